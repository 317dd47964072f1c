package content

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PublicVersion tags the schema of PublicDocument.
const PublicVersion = "1.0"

const defaultTemplateKey = "classic"

// ProjectMeta is the project-level input of ToPublicDocument.
type ProjectMeta struct {
	Title       string
	Slug        string
	Visibility  string
	TemplateKey string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
}

// SectionContent is one section with its decoded items in stored order.
type SectionContent struct {
	Key       SectionKey
	Order     int
	IsEnabled bool
	Items     []Payload
}

type PublicDocument struct {
	Version         string         `json:"version"`
	TemplateKey     string         `json:"templateKey"`
	Owner           PublicOwner    `json:"owner"`
	Contact         PublicContact  `json:"contact"`
	Sections        PublicSections `json:"sections"`
	VisibleSections []SectionKey   `json:"visibleSections"`
	Meta            PublicMeta     `json:"meta"`
}

type PublicOwner struct {
	FullName string `json:"fullName"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Location string `json:"location"`
}

type PublicLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type PublicContact struct {
	Email             string       `json:"email"`
	Phone             string       `json:"phone"`
	Website           string       `json:"website"`
	Github            string       `json:"github"`
	Linkedin          string       `json:"linkedin"`
	CallToActionTitle string       `json:"callToActionTitle"`
	CallToActionText  string       `json:"callToActionText"`
	Links             []PublicLink `json:"links"`
}

type PublicProject struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Bullets     []string `json:"bullets"`
	Tags        []string `json:"tags"`
}

type PublicExperience struct {
	Role     string   `json:"role"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Bullets  []string `json:"bullets"`
}

type PublicEducation struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Grade       string `json:"grade"`
}

type PublicCredential struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
	Note   string `json:"note"`
}

type PublicSections struct {
	About            string             `json:"about"`
	FeaturedProjects []PublicProject    `json:"featuredProjects"`
	Experience       []PublicExperience `json:"experience"`
	Skills           []SkillGroup       `json:"skills"`
	Education        []PublicEducation  `json:"education"`
	Certifications   []PublicCredential `json:"certifications"`
	Achievements     []PublicCredential `json:"achievements"`
}

type PublicMeta struct {
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	Visibility       string  `json:"visibility"`
	PublishedAt      *string `json:"publishedAt"`
	UpdatedAt        *string `json:"updatedAt"`
	LastUpdatedLabel string  `json:"lastUpdatedLabel"`
}

// ToPublicDocument projects a project's enabled sections onto the public
// schema. The output depends only on its arguments.
func ToPublicDocument(meta ProjectMeta, sections []SectionContent) PublicDocument {
	ordered := make([]SectionContent, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	doc := PublicDocument{
		Version:         PublicVersion,
		TemplateKey:     strings.TrimSpace(meta.TemplateKey),
		VisibleSections: []SectionKey{},
		Contact:         PublicContact{Links: []PublicLink{}},
		Sections: PublicSections{
			FeaturedProjects: []PublicProject{},
			Experience:       []PublicExperience{},
			Skills:           []SkillGroup{},
			Education:        []PublicEducation{},
			Certifications:   []PublicCredential{},
			Achievements:     []PublicCredential{},
		},
	}
	if doc.TemplateKey == "" {
		doc.TemplateKey = defaultTemplateKey
	}

	var profile Profile
	var contact Contact
	for _, section := range ordered {
		if !section.IsEnabled {
			continue
		}
		if section.Key != SectionProfile && IsKnown(section.Key) {
			doc.VisibleSections = append(doc.VisibleSections, section.Key)
		}
		for _, item := range section.Items {
			switch p := item.(type) {
			case *Profile:
				profile = *p
			case *About:
				doc.Sections.About = strings.TrimSpace(p.Text)
			case *Contact:
				contact = *p
			case *FeaturedProject:
				doc.Sections.FeaturedProjects = append(doc.Sections.FeaturedProjects, PublicProject{
					Name:        strings.TrimSpace(p.Name),
					Description: strings.TrimSpace(p.Description),
					Link:        normalizeHref(p.Link),
					Bullets:     compact(p.Bullets),
					Tags:        compact(p.Tags),
				})
			case *Experience:
				doc.Sections.Experience = append(doc.Sections.Experience, PublicExperience{
					Role:     strings.TrimSpace(p.Role),
					Company:  strings.TrimSpace(p.Company),
					Location: strings.TrimSpace(p.Location),
					Start:    startLabel(p.Period),
					End:      endLabel(p.Period),
					Bullets:  compact(p.Bullets),
				})
			case *Education:
				doc.Sections.Education = append(doc.Sections.Education, PublicEducation{
					Degree:      strings.TrimSpace(p.Degree),
					Field:       strings.TrimSpace(p.Field),
					Institution: strings.TrimSpace(p.Institution),
					Start:       startLabel(p.Period),
					End:         endLabel(p.Period),
					Grade:       strings.TrimSpace(p.Grade),
				})
			case *Skills:
				for _, g := range p.Groups {
					group := SkillGroup{Name: strings.TrimSpace(g.Name), Items: compact(g.Items)}
					if group.Name != "" || len(group.Items) > 0 {
						doc.Sections.Skills = append(doc.Sections.Skills, group)
					}
				}
			case *Certification:
				doc.Sections.Certifications = append(doc.Sections.Certifications, publicCredential(p.Credential))
			case *Achievement:
				doc.Sections.Achievements = append(doc.Sections.Achievements, publicCredential(p.Credential))
			}
		}
	}

	doc.Owner = PublicOwner{
		FullName: strings.TrimSpace(profile.FullName),
		Headline: strings.TrimSpace(profile.Headline),
		Summary:  doc.Sections.About,
		Location: strings.TrimSpace(profile.Location),
	}
	doc.Contact.Email = firstNonEmpty(profile.Email, contact.Email)
	doc.Contact.Phone = strings.TrimSpace(profile.Phone)
	doc.Contact.Website = firstNonEmpty(profile.Website, contact.Website)
	doc.Contact.Github = strings.TrimSpace(profile.Github)
	doc.Contact.Linkedin = strings.TrimSpace(profile.Linkedin)
	doc.Contact.CallToActionTitle = strings.TrimSpace(contact.CallToActionTitle)
	doc.Contact.CallToActionText = strings.TrimSpace(contact.CallToActionText)
	for _, link := range contact.Links {
		href := normalizeHref(link.URL)
		if href == "" {
			continue
		}
		doc.Contact.Links = append(doc.Contact.Links, PublicLink{
			Label: firstNonEmpty(link.Label, link.URL),
			Href:  href,
		})
	}

	doc.Meta = PublicMeta{
		Title:       strings.TrimSpace(meta.Title),
		Slug:        strings.TrimSpace(meta.Slug),
		Visibility:  meta.Visibility,
		PublishedAt: timestamp(meta.PublishedAt),
		UpdatedAt:   timestamp(meta.UpdatedAt),
	}
	switch {
	case doc.Meta.UpdatedAt != nil:
		doc.Meta.LastUpdatedLabel = FormatDateLabel(*doc.Meta.UpdatedAt)
	case doc.Meta.PublishedAt != nil:
		doc.Meta.LastUpdatedLabel = FormatDateLabel(*doc.Meta.PublishedAt)
	}
	return doc
}

var hrefPassthrough = regexp.MustCompile(`(?i)^(mailto:|tel:|https?://)`)

// normalizeHref keeps mailto:, tel: and http(s) links as they are and turns
// anything else into an https link.
func normalizeHref(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}
	if hrefPassthrough.MatchString(raw) {
		return raw
	}
	return "https://" + strings.TrimLeft(raw, "/")
}

// FormatDateLabel renders an RFC 3339 timestamp as "Jan 2, 2006". Values
// that do not parse are returned trimmed but otherwise unchanged.
func FormatDateLabel(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format("Jan 2, 2006")
}

func timestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func monthYearLabel(year, month int) string {
	if year == 0 {
		return ""
	}
	if month >= 1 && month <= 12 {
		return monthLabels[month-1] + " " + strconv.Itoa(year)
	}
	return strconv.Itoa(year)
}

func startLabel(p Period) string {
	if label := monthYearLabel(p.StartYear, p.StartMonth); label != "" {
		return label
	}
	return strings.TrimSpace(p.Start)
}

func endLabel(p Period) string {
	if p.IsPresent {
		return "Present"
	}
	if label := monthYearLabel(p.EndYear, p.EndMonth); label != "" {
		return label
	}
	return strings.TrimSpace(p.End)
}

func publicCredential(c Credential) PublicCredential {
	year := ""
	if c.Year != 0 {
		year = strconv.Itoa(c.Year)
	}
	return PublicCredential{
		Title:  strings.TrimSpace(c.Title),
		Issuer: strings.TrimSpace(c.Issuer),
		Year:   year,
		Note:   strings.TrimSpace(c.Note),
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
