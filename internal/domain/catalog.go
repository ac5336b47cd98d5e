package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DatasetInfo names one selectable dataset and the file that holds it.
type DatasetInfo struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	File string `json:"file" yaml:"file"`
}

// Catalog is the ordered list of datasets offered for selection.
type Catalog []DatasetInfo

// DefaultCatalog lists the bundled disease datasets.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "HIV_data.xlsx", Name: "HIV", File: "HIV_data.xlsx"},
		{ID: "TB_data.xlsx", Name: "Tuberculosis", File: "TB_data.xlsx"},
		{ID: "Malaria_data.xlsx", Name: "Malaria", File: "Malaria_data.xlsx"},
		{ID: "Dengue_data.xlsx", Name: "Dengue", File: "Dengue_data.xlsx"},
	}
}

// Lookup finds a dataset by id, falling back to a case-insensitive match.
func (c Catalog) Lookup(id string) (DatasetInfo, bool) {
	for _, d := range c {
		if d.ID == id {
			return d, true
		}
	}
	for _, d := range c {
		if strings.EqualFold(d.ID, id) {
			return d, true
		}
	}
	return DatasetInfo{}, false
}

// Validate checks that ids are unique and every entry names a file.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("catalog is empty")
	}
	seen := make(map[string]bool, len(c))
	for i, d := range c {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("catalog entry %d: id is required", i)
		}
		if strings.TrimSpace(d.File) == "" {
			return fmt.Errorf("catalog entry %q: file is required", d.ID)
		}
		key := strings.ToLower(d.ID)
		if seen[key] {
			return fmt.Errorf("catalog entry %q: duplicate id", d.ID)
		}
		seen[key] = true
	}
	return nil
}
