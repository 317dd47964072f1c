package content

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = validator.New()
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

	// currentYear bounds every year field from above.
	currentYear = func() int { return time.Now().Year() }
)

type fields map[string]any

func parseFields(raw []byte) (fields, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fields{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var f map[string]any
	if err := dec.Decode(&f); err != nil || f == nil {
		return nil, invalid("data", "Payload must be a JSON object.")
	}
	return f, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true
		}
	case json.Number:
		return t.String() == "1"
	}
	return false
}

// asEntries accepts a list of scalars or a single string split on sep.
func asEntries(v any, sep string) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, asString(e))
		}
		return out
	case []string:
		return t
	case string:
		return strings.Split(t, sep)
	}
	return nil
}

func cleanText(field, label, value string, limit int, required bool) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return "", invalid(field, "%s is required.", label)
		}
		return "", nil
	}
	if utf8.RuneCountInString(value) > limit {
		return "", invalid(field, "%s must be %d characters or fewer.", label, limit)
	}
	return value, nil
}

func cleanEmail(field, label, value string, limit int) (string, error) {
	value, err := cleanText(field, label, value, limit, false)
	if err != nil || value == "" {
		return value, err
	}
	if validate.Var(value, "email") != nil {
		return "", invalid(field, "%s must be a valid email address.", label)
	}
	return strings.ToLower(value), nil
}

func cleanURL(field, label, value string, limit int) (string, error) {
	value, err := cleanText(field, label, value, limit, false)
	if err != nil || value == "" {
		return value, err
	}
	normalized, ok := NormalizeURL(value)
	if !ok {
		return "", invalid(field, "%s must be a valid URL.", label)
	}
	return normalized, nil
}

// NormalizeURL prefixes https:// when no scheme is present, lower-cases the
// host and returns the canonical form. Only http and https are accepted.
func NormalizeURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", true
	}
	if !schemePattern.MatchString(value) {
		value = "https://" + value
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), true
}

func cleanLines(field, label string, v any, maxLen, maxCount int) ([]string, error) {
	out := make([]string, 0)
	for _, line := range asEntries(v, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(out) == maxCount {
			break
		}
		if utf8.RuneCountInString(line) > maxLen {
			return nil, invalid(field, "Each %s entry must be %d characters or fewer.", label, maxLen)
		}
		out = append(out, line)
	}
	return out, nil
}

func cleanTags(field, label string, v any, maxLen, maxCount int) ([]string, error) {
	out := make([]string, 0)
	seen := make(map[string]bool)
	for _, tag := range asEntries(v, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if len(out) == maxCount {
			break
		}
		if utf8.RuneCountInString(tag) > maxLen {
			return nil, invalid(field, "Each %s entry must be %d characters or fewer.", label, maxLen)
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}

func cleanInt(field, label string, v any) (int, bool, error) {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, invalid(field, "%s must be a whole number.", label)
	}
	return n, true, nil
}

func cleanYear(field, label string, v any, required bool) (int, error) {
	year, ok, err := cleanInt(field, label, v)
	if err != nil {
		return 0, err
	}
	if !ok {
		if required {
			return 0, invalid(field, "%s is required.", label)
		}
		return 0, nil
	}
	if latest := currentYear(); year < MinYear || year > latest {
		return 0, invalid(field, "%s must be between %d and %d.", label, MinYear, latest)
	}
	return year, nil
}

func cleanMonth(field, label string, v any) (int, error) {
	month, ok, err := cleanInt(field, label, v)
	if err != nil || !ok {
		return 0, err
	}
	if month < 1 || month > 12 {
		return 0, invalid(field, "%s must be between 1 and 12.", label)
	}
	return month, nil
}

// cleaner applies field rules to one object and keeps the first failure, so
// a sanitizer can read as a flat list of fields.
type cleaner struct {
	f      fields
	prefix string
	err    error
}

func (c *cleaner) name(key string) string {
	return c.prefix + key
}

func (c *cleaner) text(key, label string, limit int, required bool) string {
	if c.err != nil {
		return ""
	}
	v, err := cleanText(c.name(key), label, asString(c.f[key]), limit, required)
	c.err = err
	return v
}

func (c *cleaner) email(key, label string, limit int) string {
	if c.err != nil {
		return ""
	}
	v, err := cleanEmail(c.name(key), label, asString(c.f[key]), limit)
	c.err = err
	return v
}

func (c *cleaner) url(key, label string, limit int) string {
	if c.err != nil {
		return ""
	}
	v, err := cleanURL(c.name(key), label, asString(c.f[key]), limit)
	c.err = err
	return v
}

func (c *cleaner) lines(key, label string, maxLen, maxCount int) []string {
	if c.err != nil {
		return nil
	}
	v, err := cleanLines(c.name(key), label, c.f[key], maxLen, maxCount)
	c.err = err
	return v
}

func (c *cleaner) tags(key, label string, maxLen, maxCount int) []string {
	if c.err != nil {
		return nil
	}
	v, err := cleanTags(c.name(key), label, c.f[key], maxLen, maxCount)
	c.err = err
	return v
}

func (c *cleaner) year(key, label string, required bool) int {
	if c.err != nil {
		return 0
	}
	v, err := cleanYear(c.name(key), label, c.f[key], required)
	c.err = err
	return v
}

func (c *cleaner) month(key, label string) int {
	if c.err != nil {
		return 0
	}
	v, err := cleanMonth(c.name(key), label, c.f[key])
	c.err = err
	return v
}

func (c *cleaner) flag(keys ...string) bool {
	for _, k := range keys {
		if asBool(c.f[k]) {
			return true
		}
	}
	return false
}
