package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	d, ok := c.Lookup("TB_data.xlsx")
	require.True(t, ok)
	assert.Equal(t, "Tuberculosis", d.Name)

	d, ok = c.Lookup("dengue_DATA.xlsx")
	require.True(t, ok)
	assert.Equal(t, "Dengue_data.xlsx", d.File)

	_, ok = c.Lookup("Zika_data.xlsx")
	assert.False(t, ok)
}

func TestCatalog_Validate(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())

	tests := []struct {
		name    string
		catalog Catalog
		want    string
	}{
		{"empty", Catalog{}, "catalog is empty"},
		{"missing id", Catalog{{File: "a.csv"}}, "id is required"},
		{"missing file", Catalog{{ID: "a"}}, "file is required"},
		{"duplicate", Catalog{{ID: "a", File: "a.csv"}, {ID: "A", File: "b.csv"}}, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
