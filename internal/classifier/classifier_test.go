package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query properties.Query
		want  properties.SearchType
	}{
		{
			name: "structured full address",
			query: properties.Query{
				Address1: "1600 Amphitheatre Parkway",
				City:     "Mountain View",
				State:    "CA",
			},
			want: properties.SearchTypeAddress,
		},
		{
			name: "structured with postal code only",
			query: properties.Query{
				Address1:   "500 Elm Dr",
				PostalCode: "75201",
			},
			want: properties.SearchTypeAddress,
		},
		{
			name:  "structured missing street number",
			query: properties.Query{Address1: "Elm Drive", City: "Dallas"},
			want:  properties.SearchTypeGeneral,
		},
		{
			name:  "structured city only",
			query: properties.Query{City: "Houston"},
			want:  properties.SearchTypeGeneral,
		},
		{
			name:  "free text address",
			query: properties.Query{RawText: "123 Main St, Fort Worth, TX 76102"},
			want:  properties.SearchTypeAddress,
		},
		{
			name:  "free text general search",
			query: properties.Query{RawText: "affordable homes in Houston"},
			want:  properties.SearchTypeGeneral,
		},
		{
			name:  "free text bare city",
			query: properties.Query{RawText: "Houston"},
			want:  properties.SearchTypeGeneral,
		},
		{
			name:  "free text digits but no locality",
			query: properties.Query{RawText: "3 bedroom homes"},
			want:  properties.SearchTypeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	q := properties.Query{RawText: "123 Main St, Fort Worth, TX"}
	first := Classify(q)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(q))
	}
}

func TestParseFilters(t *testing.T) {
	t.Run("location with max price", func(t *testing.T) {
		f := ParseFilters("homes in Houston under $300k")
		assert.Equal(t, "Houston", f.Location)
		if assert.NotNil(t, f.MaxPrice) {
			assert.Equal(t, 300000.0, *f.MaxPrice)
		}
		assert.Nil(t, f.MinPrice)
	})

	t.Run("min price in millions", func(t *testing.T) {
		f := ParseFilters("luxury homes in Austin over 1.2m")
		assert.Equal(t, "Austin", f.Location)
		if assert.NotNil(t, f.MinPrice) {
			assert.Equal(t, 1200000.0, *f.MinPrice)
		}
	})

	t.Run("status keyword", func(t *testing.T) {
		f := ParseFilters("condos for sale in Dallas")
		assert.Equal(t, "Dallas", f.Location)
		if assert.NotNil(t, f.Status) {
			assert.Equal(t, "active", *f.Status)
		}
	})

	t.Run("competing status keywords pick the same winner every run", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			f := ParseFilters("pending homes for sale in Dallas")
			if assert.NotNil(t, f.Status) {
				assert.Equal(t, "active", *f.Status)
			}
		}
	})

	t.Run("bare location", func(t *testing.T) {
		f := ParseFilters("Fort Worth")
		assert.Equal(t, "Fort Worth", f.Location)
		assert.True(t, f.MinPrice == nil && f.MaxPrice == nil && f.Status == nil)
	})

	t.Run("no filters", func(t *testing.T) {
		f := ParseFilters("")
		assert.True(t, f.IsZero())
	})
}
