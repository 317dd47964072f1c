// Package content holds the portfolio content model: the fixed section catalog,
// per-section payload types, the sanitization pipeline and the public document
// transformer. Everything here is pure.
package content

// SectionKey identifies one of the fixed content categories of a portfolio.
type SectionKey string

const (
	SectionProfile          SectionKey = "profile"
	SectionAbout            SectionKey = "about"
	SectionFeaturedProjects SectionKey = "featuredProjects"
	SectionExperience       SectionKey = "experience"
	SectionSkills           SectionKey = "skills"
	SectionEducation        SectionKey = "education"
	SectionCertifications   SectionKey = "certifications"
	SectionAchievements     SectionKey = "achievements"
	SectionContact          SectionKey = "contact"
)

// SectionDef describes a section as it is seeded into every new project.
type SectionDef struct {
	Key   SectionKey
	Label string
	Order int
}

var sectionDefs = []SectionDef{
	{Key: SectionProfile, Label: "Profile", Order: 1},
	{Key: SectionAbout, Label: "About", Order: 2},
	{Key: SectionFeaturedProjects, Label: "Featured Projects", Order: 3},
	{Key: SectionExperience, Label: "Experience", Order: 4},
	{Key: SectionSkills, Label: "Skills", Order: 5},
	{Key: SectionEducation, Label: "Education", Order: 6},
	{Key: SectionCertifications, Label: "Certifications", Order: 7},
	{Key: SectionAchievements, Label: "Achievements", Order: 8},
	{Key: SectionContact, Label: "Contact", Order: 9},
}

// Sections returns the seed definitions in default order.
func Sections() []SectionDef {
	out := make([]SectionDef, len(sectionDefs))
	copy(out, sectionDefs)
	return out
}

// IsKnown reports whether key is one of the fixed section keys.
func IsKnown(key SectionKey) bool {
	for _, def := range sectionDefs {
		if def.Key == key {
			return true
		}
	}
	return false
}

// IsSingleton reports whether a section of this kind holds at most one item.
func IsSingleton(key SectionKey) bool {
	switch key {
	case SectionProfile, SectionAbout, SectionSkills, SectionContact:
		return true
	}
	return false
}

// DefaultPayload returns the empty payload a singleton section is seeded with.
// It returns nil for multi sections.
func DefaultPayload(key SectionKey) Payload {
	switch key {
	case SectionProfile:
		return &Profile{}
	case SectionAbout:
		return &About{}
	case SectionSkills:
		return &Skills{Groups: []SkillGroup{
			{Name: "Backend", Items: []string{}},
			{Name: "Frontend", Items: []string{}},
			{Name: "Tools", Items: []string{}},
		}}
	case SectionContact:
		return &Contact{Links: []Link{}}
	}
	return nil
}
