// Package catalog holds the static recommendation, palette and tip tables.
//
// The tables ship as embedded YAML and are checked for completeness when loaded,
// so lookups for any classifier output can never miss.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"stylefit/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

type BodyTypeInfo struct {
	Label       string `yaml:"label" json:"label"`
	Icon        string `yaml:"icon" json:"icon"`
	Description string `yaml:"description" json:"description"`
}

type Recommendation struct {
	Title  string   `yaml:"title" json:"title"`
	Icon   string   `yaml:"icon" json:"icon"`
	Items  []string `yaml:"items" json:"items"`
	Reason string   `yaml:"reason" json:"reason"`
}

// CategoryRecommendation is a Recommendation placed in its card slot.
type CategoryRecommendation struct {
	Category      models.Category `json:"category"`
	CategoryLabel string          `json:"category_label"`
	Recommendation
}

type Swatch struct {
	Color string `yaml:"color" json:"color"`
	Name  string `yaml:"name" json:"name"`
}

type Tip struct {
	Icon string `yaml:"icon" json:"icon"`
	Text string `yaml:"text" json:"text"`
}

type document struct {
	BodyTypes       map[models.BodyType]BodyTypeInfo                                                  `yaml:"body_types"`
	Recommendations map[models.StylePreference]map[models.BodyType]map[models.Category]Recommendation `yaml:"recommendations"`
	Palettes        map[models.BodyType][]Swatch                                                      `yaml:"palettes"`
	Tips            map[models.BodyType][]Tip                                                         `yaml:"tips"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	doc document
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded tables are incomplete.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded tables invalid: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Catalog{doc: doc}, nil
}

func (d *document) validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, bt := range models.BodyTypes {
		info, ok := d.BodyTypes[bt]
		if !ok || info.Label == "" {
			add("body type %s: missing label", bt)
		}
		if len(d.Palettes[bt]) == 0 {
			add("palette %s: empty", bt)
		}
		for i, sw := range d.Palettes[bt] {
			if sw.Color == "" || sw.Name == "" {
				add("palette %s[%d]: color and name required", bt, i)
			}
		}
		if len(d.Tips[bt]) == 0 {
			add("tips %s: empty", bt)
		}
		for i, tip := range d.Tips[bt] {
			if tip.Text == "" {
				add("tips %s[%d]: empty text", bt, i)
			}
		}
	}

	for _, style := range models.StylePreferences {
		byBody, ok := d.Recommendations[style]
		if !ok {
			add("recommendations %s: missing style", style)
			continue
		}
		for _, bt := range models.BodyTypes {
			byCat, ok := byBody[bt]
			if !ok {
				add("recommendations %s/%s: missing body type", style, bt)
				continue
			}
			if len(byCat) != len(models.Categories) {
				add("recommendations %s/%s: want %d categories, got %d", style, bt, len(models.Categories), len(byCat))
			}
			for _, cat := range models.Categories {
				rec, ok := byCat[cat]
				switch {
				case !ok:
					add("recommendations %s/%s/%s: missing", style, bt, cat)
				case rec.Title == "" || rec.Icon == "":
					add("recommendations %s/%s/%s: title and icon required", style, bt, cat)
				case len(rec.Items) == 0:
					add("recommendations %s/%s/%s: no items", style, bt, cat)
				case strings.TrimSpace(rec.Reason) == "":
					add("recommendations %s/%s/%s: empty reason", style, bt, cat)
				}
			}
		}
	}

	if len(problems) > 0 {
		return errors.New("catalog incomplete: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Catalog) BodyType(bt models.BodyType) BodyTypeInfo {
	return c.doc.BodyTypes[bt]
}

// Recommendations returns the five cards in render order.
func (c *Catalog) Recommendations(style models.StylePreference, bt models.BodyType) []CategoryRecommendation {
	byCat := c.doc.Recommendations[style][bt]
	out := make([]CategoryRecommendation, 0, len(models.Categories))
	for _, cat := range models.Categories {
		out = append(out, CategoryRecommendation{
			Category:       cat,
			CategoryLabel:  cat.Label(),
			Recommendation: byCat[cat],
		})
	}
	return out
}

func (c *Catalog) Palette(bt models.BodyType) []Swatch {
	return c.doc.Palettes[bt]
}

func (c *Catalog) Tips(bt models.BodyType) []Tip {
	return c.doc.Tips[bt]
}
