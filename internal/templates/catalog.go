// Package templates holds the catalog of public rendering templates and the
// entitlement tier each one requires.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// DefaultKey is used when no template is chosen or a stored key is unknown.
const DefaultKey = "classic"

type Template struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
}

type catalogFile struct {
	Templates []Template `json:"templates"`
}

// Defaults returns the built-in templates.
func Defaults() []Template {
	return []Template{
		{Key: "classic", Label: "Case Study", Tier: TierFree},
		{Key: "gallery", Label: "Gallery", Tier: TierFree},
		{Key: "minimal", Label: "Minimal", Tier: TierPro},
		{Key: "story", Label: "Story", Tier: TierPro},
	}
}

// Catalog is safe for concurrent use; Replace swaps the whole set atomically.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewCatalog(list []Template) *Catalog {
	c := &Catalog{}
	c.Replace(list)
	return c
}

// LoadFromFile reads a catalog file. A missing path yields the defaults.
func LoadFromFile(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(Defaults()), nil
	}
	list, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(list), nil
}

func readFile(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates config: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates config: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("templates config %s lists no templates", path)
	}
	hasDefault := false
	for _, t := range file.Templates {
		hasDefault = hasDefault || t.Key == DefaultKey
		if t.Key == "" {
			return nil, fmt.Errorf("templates config %s has an entry without a key", path)
		}
		if t.Tier != TierFree && t.Tier != TierPro {
			return nil, fmt.Errorf("template %q has unknown tier %q", t.Key, t.Tier)
		}
	}
	if !hasDefault {
		return nil, fmt.Errorf("templates config %s must list the default template %q", path, DefaultKey)
	}
	return file.Templates, nil
}

func (c *Catalog) Replace(list []Template) {
	m := make(map[string]Template, len(list))
	for _, t := range list {
		m[t.Key] = t
	}
	c.mu.Lock()
	c.templates = m
	c.mu.Unlock()
}

func (c *Catalog) Lookup(key string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[key]
	return t, ok
}

// IsPro reports whether key names a template that requires a paid entitlement.
// Unknown keys are not gated.
func (c *Catalog) IsPro(key string) bool {
	t, ok := c.Lookup(key)
	return ok && t.Tier == TierPro
}

// All returns the templates sorted by key.
func (c *Catalog) All() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
