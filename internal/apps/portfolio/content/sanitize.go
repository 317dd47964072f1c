package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sanitize cleans a raw item payload for the given section. It either returns
// a fully cleaned payload or the first rule violation; nothing is dropped
// silently except empty list entries and entries beyond a list's cap.
// Payloads of unknown sections are passed through untouched.
func Sanitize(key SectionKey, raw []byte) (Payload, error) {
	if !IsKnown(key) {
		return &Raw{Key: key, Data: append(json.RawMessage(nil), raw...)}, nil
	}
	f, err := parseFields(raw)
	if err != nil {
		return nil, err
	}
	c := &cleaner{f: f}

	switch key {
	case SectionProfile:
		return sanitizeProfile(c)
	case SectionAbout:
		text := c.text("text", "About text", MaxAboutText, false)
		if c.err != nil {
			return nil, c.err
		}
		return &About{Text: text}, nil
	case SectionFeaturedProjects:
		return sanitizeFeaturedProject(c)
	case SectionExperience:
		return sanitizeExperience(c)
	case SectionEducation:
		return sanitizeEducation(c)
	case SectionSkills:
		return sanitizeSkills(f)
	case SectionCertifications:
		cred, err := sanitizeCredential(c)
		if err != nil {
			return nil, err
		}
		return &Certification{Credential: cred}, nil
	case SectionAchievements:
		cred, err := sanitizeCredential(c)
		if err != nil {
			return nil, err
		}
		return &Achievement{Credential: cred}, nil
	case SectionContact:
		return sanitizeContact(c)
	}
	return nil, fmt.Errorf("no sanitizer for section %q", key)
}

func sanitizeProfile(c *cleaner) (Payload, error) {
	p := &Profile{
		FullName: c.text("fullName", "Full name", MaxFullName, true),
		Headline: c.text("headline", "Headline", MaxHeadline, false),
		Location: c.text("location", "Location", MaxLocation, false),
		Email:    c.email("email", "Email", MaxEmail),
		Phone:    c.text("phone", "Phone", MaxPhone, false),
		Website:  c.url("website", "Website", MaxURL),
		Github:   c.url("github", "GitHub", MaxURL),
		Linkedin: c.url("linkedin", "LinkedIn", MaxURL),
	}
	if c.err != nil {
		return nil, c.err
	}
	return p, nil
}

func sanitizeFeaturedProject(c *cleaner) (Payload, error) {
	p := &FeaturedProject{
		Name:        c.text("name", "Project name", MaxProjectName, true),
		Description: c.text("description", "Description", MaxProjectDescription, false),
		Link:        c.url("link", "Project link", MaxURL),
		Bullets:     c.lines("bullets", "bullet", MaxBulletLine, MaxProjectBullets),
		Tags:        c.tags("tags", "tag", MaxTag, MaxProjectTags),
	}
	if c.err != nil {
		return nil, c.err
	}
	return p, nil
}

func sanitizeExperience(c *cleaner) (Payload, error) {
	p := &Experience{
		Role:     c.text("role", "Role", MaxRole, true),
		Company:  c.text("company", "Company", MaxCompany, true),
		Location: c.text("location", "Location", MaxLocation, false),
		Bullets:  c.lines("bullets", "bullet", MaxBulletLine, MaxExperienceBullets),
		Period:   sanitizePeriod(c),
	}
	if c.err != nil {
		return nil, c.err
	}
	if err := checkChronology(p.Period); err != nil {
		return nil, err
	}
	return p, nil
}

func sanitizeEducation(c *cleaner) (Payload, error) {
	p := &Education{
		Degree:      c.text("degree", "Degree", MaxDegree, true),
		Field:       c.text("field", "Field of study", MaxField, false),
		Institution: c.text("institution", "Institution", MaxInstitution, true),
		Grade:       c.text("grade", "Grade", MaxGrade, false),
		Period:      sanitizePeriod(c),
	}
	if c.err != nil {
		return nil, c.err
	}
	if err := checkChronology(p.Period); err != nil {
		return nil, err
	}
	return p, nil
}

func sanitizePeriod(c *cleaner) Period {
	return Period{
		StartYear:  c.year("startYear", "Start year", false),
		StartMonth: c.month("startMonth", "Start month"),
		EndYear:    c.year("endYear", "End year", false),
		EndMonth:   c.month("endMonth", "End month"),
		IsPresent:  c.flag("isPresent", "present"),
		Start:      c.text("start", "Start date", MaxLegacyDate, false),
		End:        c.text("end", "End date", MaxLegacyDate, false),
	}
}

// checkChronology enforces the start/end ordering rules shared by experience
// and education entries.
func checkChronology(p Period) error {
	if p.StartMonth != 0 && p.StartYear == 0 {
		return invalid("startYear", "Start year is required when a start month is set.")
	}
	if p.EndMonth != 0 && p.EndYear == 0 {
		return invalid("endYear", "End year is required when an end month is set.")
	}
	if p.IsPresent {
		if p.EndYear != 0 || p.EndMonth != 0 {
			return invalid("endYear", "End date must be empty when the entry is ongoing.")
		}
		if p.StartYear == 0 {
			return invalid("startYear", "Start year is required when the entry is ongoing.")
		}
		return nil
	}
	if p.EndYear != 0 && p.StartYear == 0 {
		return invalid("startYear", "Start year is required when an end date is set.")
	}
	if p.StartYear != 0 && p.EndYear != 0 {
		start := p.StartYear*100 + monthOr(p.StartMonth, 1)
		end := p.EndYear*100 + monthOr(p.EndMonth, 12)
		if end < start {
			return invalid("endYear", "End date cannot be before the start date.")
		}
	}
	return nil
}

func monthOr(month, fallback int) int {
	if month == 0 {
		return fallback
	}
	return month
}

func sanitizeSkills(f fields) (Payload, error) {
	out := &Skills{Groups: []SkillGroup{}}
	rawGroups, ok := f["groups"].([]any)
	if !ok {
		if f["groups"] != nil {
			return nil, invalid("groups", "Skill groups must be a list.")
		}
		return out, nil
	}
	for i, rg := range rawGroups {
		gf, ok := rg.(map[string]any)
		if !ok {
			return nil, invalid(fmt.Sprintf("groups[%d]", i), "Each skill group must be an object.")
		}
		c := &cleaner{f: gf, prefix: fmt.Sprintf("groups[%d].", i)}
		group := SkillGroup{
			Name:  c.text("name", "Group name", MaxSkillGroupName, false),
			Items: c.lines("items", "skill", MaxSkillItem, MaxSkillItems),
		}
		if c.err != nil {
			return nil, c.err
		}
		out.Groups = append(out.Groups, group)
	}
	return out, nil
}

func sanitizeCredential(c *cleaner) (Credential, error) {
	cred := Credential{
		Title:  c.text("title", "Title", MaxCredentialTitle, true),
		Issuer: c.text("issuer", "Issuer", MaxCredentialIssuer, false),
		Year:   c.year("year", "Year", false),
		Note:   c.text("note", "Note", MaxNote, false),
	}
	return cred, c.err
}

func sanitizeContact(c *cleaner) (Payload, error) {
	p := &Contact{
		CallToActionTitle: c.text("callToActionTitle", "Call to action title", MaxCTATitle, false),
		CallToActionText:  c.text("callToActionText", "Call to action text", MaxCTAText, false),
		Email:             c.email("email", "Email", MaxEmail),
		Website:           c.url("website", "Website", MaxURL),
	}
	if c.err != nil {
		return nil, c.err
	}
	links, err := sanitizeLinks(c.f["links"])
	if err != nil {
		return nil, err
	}
	p.Links = links
	return p, nil
}

// sanitizeLinks accepts a list of {label, url} objects, or "label | url"
// lines either as a list of strings or one newline separated string.
func sanitizeLinks(v any) ([]Link, error) {
	var entries []fields
	switch t := v.(type) {
	case nil:
	case []any:
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				entries = append(entries, m)
				continue
			}
			entries = append(entries, splitLinkLine(asString(e)))
		}
	case string:
		for _, line := range strings.Split(t, "\n") {
			entries = append(entries, splitLinkLine(line))
		}
	default:
		return nil, invalid("links", "Links must be a list.")
	}

	out := make([]Link, 0, len(entries))
	seen := make(map[Link]bool)
	for i, e := range entries {
		c := &cleaner{f: e, prefix: fmt.Sprintf("links[%d].", i)}
		link := Link{
			Label: c.text("label", "Link label", MaxLinkLabel, false),
			URL:   c.url("url", "Link URL", MaxURL),
		}
		if c.err != nil {
			return nil, c.err
		}
		if (link.Label == "" && link.URL == "") || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out, nil
}

func splitLinkLine(line string) fields {
	label, url, found := strings.Cut(line, "|")
	if !found {
		return fields{"label": "", "url": strings.TrimSpace(line)}
	}
	return fields{"label": strings.TrimSpace(label), "url": strings.TrimSpace(url)}
}
