package catalog

import (
	"strings"

	"github.com/allerscan/backend/internal/pkg/textnorm"
)

const (
	colCountryCode = "country_code"
	colAllergenEN  = "allergen"
)

// Obligations maps an upper-case country code to the allergens that country requires on labels,
// in file order and in the country's own wording
type Obligations struct {
	byCountry map[string][]string
}

// LoadObligations reads a long-format country_code,allergen table
func LoadObligations(path string) (*Obligations, error) {
	t, err := readTable(path, colCountryCode, colAllergenEN)
	if err != nil {
		return nil, err
	}
	return newObligations(t), nil
}

func newObligations(t *table) *Obligations {
	o := &Obligations{byCountry: make(map[string][]string)}
	seen := make(map[string]struct{})

	for _, row := range t.rows {
		country := strings.ToUpper(t.get(row, colCountryCode))
		allergen := t.get(row, colAllergenEN)
		if country == "" || allergen == "" {
			continue
		}
		key := country + "\x00" + allergen
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		o.byCountry[country] = append(o.byCountry[country], allergen)
	}

	return o
}

// For returns a copy of the obligation list for country, empty when the country is unknown
func (o *Obligations) For(country string) []string {
	list := o.byCountry[strings.ToUpper(textnorm.Normalize(country))]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Countries returns the number of countries with an obligation list
func (o *Obligations) Countries() int {
	return len(o.byCountry)
}
