package catalog

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk YAML shape for bulk product loading.
type SeedFile struct {
	Products []Entry `yaml:"products"`
}

// LoadSeed reads a product seed file and validates its entries. Entries
// without an id get a generated one; names are mandatory.
func LoadSeed(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Products))
	for i := range f.Products {
		p := &f.Products[i]
		if p.Name == "" {
			return nil, fmt.Errorf("seed product %d missing name", i)
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("seed product id %s duplicated", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return f.Products, nil
}
