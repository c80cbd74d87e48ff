package catalog

import (
	"strings"

	"github.com/allerscan/backend/internal/pkg/textnorm"
)

const maxPlanCandidates = 5

// SearchPlan lists registry queries derived from processed food rows related to an ingredient
type SearchPlan struct {
	KindCandidates        []string `json:"prdkindCandidates"`
	ProductNameCandidates []string `json:"prdlstNmCandidates"`
}

// Empty reports whether the plan has nothing to search
func (p SearchPlan) Empty() bool {
	return len(p.KindCandidates) == 0 && len(p.ProductNameCandidates) == 0
}

type processedFood struct {
	name      string
	represent string
	mid       string
	sub       string
	allergens []string
}

// ProcessedFoodsCatalog indexes the processed food composition table
type ProcessedFoodsCatalog struct {
	foods  []processedFood
	byName map[string]int
}

// LoadProcessedFoods reads the processed food table
func LoadProcessedFoods(path string) (*ProcessedFoodsCatalog, error) {
	t, err := readTable(path, colFoodName, colRepresentName, colMidCategory, colSubCategory, colAllergen)
	if err != nil {
		return nil, err
	}
	return newProcessedFoodsCatalog(t), nil
}

func newProcessedFoodsCatalog(t *table) *ProcessedFoodsCatalog {
	c := &ProcessedFoodsCatalog{byName: make(map[string]int)}

	for _, row := range t.rows {
		food := processedFood{
			name:      t.get(row, colFoodName),
			represent: t.get(row, colRepresentName),
			mid:       t.get(row, colMidCategory),
			sub:       t.get(row, colSubCategory),
			allergens: splitList(t.get(row, colAllergen)),
		}
		if food.name == "" && food.represent == "" {
			continue
		}
		c.foods = append(c.foods, food)
		idx := len(c.foods) - 1

		// first row wins for duplicate names
		for _, n := range []string{food.name, food.represent} {
			key := textnorm.Key(n)
			if key == "" {
				continue
			}
			if _, ok := c.byName[key]; !ok {
				c.byName[key] = idx
			}
		}
	}

	return c
}

// MatchDirect returns the allergen labels declared for a food whose name equals name.
// ok is false when no row is named name or the row declares no allergens.
func (c *ProcessedFoodsCatalog) MatchDirect(name string) ([]string, bool) {
	idx, ok := c.byName[textnorm.Key(name)]
	if !ok {
		return nil, false
	}
	labels := c.foods[idx].allergens
	if len(labels) == 0 {
		return nil, false
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out, true
}

// BuildSearchPlan collects up to five classification keywords and five product names
// from rows whose name contains the ingredient
func (c *ProcessedFoodsCatalog) BuildSearchPlan(ingredient string) SearchPlan {
	key := textnorm.Key(ingredient)
	if key == "" {
		return SearchPlan{}
	}

	kinds := newOrderedSet(maxPlanCandidates)
	names := newOrderedSet(maxPlanCandidates)

	for _, food := range c.foods {
		if !strings.Contains(textnorm.Key(food.name), key) && !strings.Contains(textnorm.Key(food.represent), key) {
			continue
		}
		kinds.add(food.sub, key)
		kinds.add(food.mid, key)
		names.add(food.represent, key)
		names.add(food.name, key)

		if kinds.full() && names.full() {
			break
		}
	}

	return SearchPlan{KindCandidates: kinds.items, ProductNameCandidates: names.items}
}

// Size returns the number of indexed rows
func (c *ProcessedFoodsCatalog) Size() int {
	return len(c.foods)
}

// orderedSet keeps the first n distinct values in insertion order
type orderedSet struct {
	limit int
	seen  map[string]struct{}
	items []string
}

func newOrderedSet(limit int) *orderedSet {
	return &orderedSet{limit: limit, seen: make(map[string]struct{}), items: []string{}}
}

// add skips blanks and values equal to exclude
func (s *orderedSet) add(v, exclude string) {
	if v == "" || s.full() {
		return
	}
	key := textnorm.Key(v)
	if key == exclude {
		return
	}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) full() bool {
	return len(s.items) >= s.limit
}

// splitList splits a cell holding several values separated by commas, slashes or pipes
func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == '/' || r == '|' || r == ';' || r == '·'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = textnorm.Normalize(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
