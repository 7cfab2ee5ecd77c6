// Package fixtures loads tag and ingredient reference data from YAML or JSON files.
package fixtures

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"gopkg.in/yaml.v3"
)

// Catalog is the reference data read from a fixture file.
type Catalog struct {
	Tags        []models.Tag        `yaml:"tags"`
	Ingredients []models.Ingredient `yaml:"ingredients"`
}

// Result counts the rows actually inserted.
type Result struct {
	Tags        int64
	Ingredients int64
}

// LoadFile reads a fixture file. JSON is accepted since it is valid YAML.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse accepts either {tags: [...], ingredients: [...]} or a bare list of ingredients.
func Parse(data []byte) (*Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Catalog{}, nil
	}

	var catalog Catalog
	if trimmed[0] == '[' || bytes.HasPrefix(trimmed, []byte("- ")) {
		if err := yaml.Unmarshal(trimmed, &catalog.Ingredients); err != nil {
			return nil, fmt.Errorf("parse ingredient list: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &catalog); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) validate() error {
	for i := range c.Tags {
		t := &c.Tags[i]
		t.Name, t.Slug, t.Color = strings.TrimSpace(t.Name), strings.TrimSpace(t.Slug), strings.ToUpper(strings.TrimSpace(t.Color))
		if t.Name == "" || t.Slug == "" {
			return fmt.Errorf("tag %d: name and slug are required", i)
		}
		if t.Color == "" {
			t.Color = "#FF0000"
		}
	}
	for i := range c.Ingredients {
		ing := &c.Ingredients[i]
		ing.Name, ing.MeasurementUnit = strings.TrimSpace(ing.Name), strings.TrimSpace(ing.MeasurementUnit)
		if ing.Name == "" || ing.MeasurementUnit == "" {
			return fmt.Errorf("ingredient %d: name and measurement_unit are required", i)
		}
	}
	return nil
}

// Apply inserts the catalog. Rows that already exist are skipped, so
// loading the same file twice is harmless.
func (c *Catalog) Apply(ctx context.Context, store *repositories.Store) (Result, error) {
	var res Result
	err := store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if res.Tags, err = tx.Tags.InsertMissing(ctx, c.Tags); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
		if res.Ingredients, err = tx.Ingredients.InsertMissing(ctx, c.Ingredients); err != nil {
			return fmt.Errorf("insert ingredients: %w", err)
		}
		return nil
	})
	return res, err
}
