package content

import (
	"encoding/json"
	"fmt"
)

// Payload is the data of a single item. Each section key has exactly one
// concrete variant; Raw carries payloads of keys this build does not know.
type Payload interface {
	Section() SectionKey
}

type Profile struct {
	FullName string `json:"fullName"`
	Headline string `json:"headline"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Github   string `json:"github"`
	Linkedin string `json:"linkedin"`
}

type About struct {
	Text string `json:"text"`
}

type FeaturedProject struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Bullets     []string `json:"bullets"`
	Tags        []string `json:"tags"`
}

// Period is the start/end span shared by experience and education entries.
// Zero means "not set" for every numeric field.
type Period struct {
	StartYear  int  `json:"startYear,omitempty"`
	StartMonth int  `json:"startMonth,omitempty"`
	EndYear    int  `json:"endYear,omitempty"`
	EndMonth   int  `json:"endMonth,omitempty"`
	IsPresent  bool `json:"isPresent"`

	// Free-form dates written before structured dates existed.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Experience struct {
	Role     string   `json:"role"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	Bullets  []string `json:"bullets"`
	Period
}

type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Grade       string `json:"grade"`
	Period
}

type SkillGroup struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type Skills struct {
	Groups []SkillGroup `json:"groups"`
}

// Credential is the shape shared by certifications and achievements.
type Credential struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Year   int    `json:"year,omitempty"`
	Note   string `json:"note"`
}

type Certification struct{ Credential }

type Achievement struct{ Credential }

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Contact struct {
	CallToActionTitle string `json:"callToActionTitle"`
	CallToActionText  string `json:"callToActionText"`
	Email             string `json:"email"`
	Website           string `json:"website"`
	Links             []Link `json:"links"`
}

// Raw is an unrecognized payload kept byte-for-byte.
type Raw struct {
	Key  SectionKey
	Data json.RawMessage
}

func (*Profile) Section() SectionKey         { return SectionProfile }
func (*About) Section() SectionKey           { return SectionAbout }
func (*FeaturedProject) Section() SectionKey { return SectionFeaturedProjects }
func (*Experience) Section() SectionKey      { return SectionExperience }
func (*Education) Section() SectionKey       { return SectionEducation }
func (*Skills) Section() SectionKey          { return SectionSkills }
func (*Certification) Section() SectionKey   { return SectionCertifications }
func (*Achievement) Section() SectionKey     { return SectionAchievements }
func (*Contact) Section() SectionKey         { return SectionContact }
func (r *Raw) Section() SectionKey           { return r.Key }

// MarshalJSON writes the raw bytes back unchanged.
func (r *Raw) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 0 {
		return []byte("{}"), nil
	}
	return r.Data, nil
}

// Encode serializes a payload for storage.
func Encode(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// Decode reads a stored payload back into its variant. Stored data has already
// been sanitized, so no rules are applied here.
func Decode(key SectionKey, data []byte) (Payload, error) {
	var p Payload
	switch key {
	case SectionProfile:
		p = &Profile{}
	case SectionAbout:
		p = &About{}
	case SectionFeaturedProjects:
		p = &FeaturedProject{}
	case SectionExperience:
		p = &Experience{}
	case SectionEducation:
		p = &Education{}
	case SectionSkills:
		p = &Skills{}
	case SectionCertifications:
		p = &Certification{}
	case SectionAchievements:
		p = &Achievement{}
	case SectionContact:
		p = &Contact{}
	default:
		return &Raw{Key: key, Data: append(json.RawMessage(nil), data...)}, nil
	}
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", key, err)
	}
	return p, nil
}
