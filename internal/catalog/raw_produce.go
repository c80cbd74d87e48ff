package catalog

import (
	"strings"

	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/textnorm"
)

// Column names of the food composition tables
const (
	colFoodName      = "식품명"
	colDataType      = "데이터구분명"
	colRepresentName = "대표식품명"
	colMajorCategory = "식품대분류명"
	colMidCategory   = "식품중분류명"
	colSubCategory   = "식품소분류명"
	colAllergen      = "알레르기유발물질"

	rawProduceType = "원재료성 식품"
)

// seafoodRule pairs a category with the keywords that select it.
// Rules are evaluated in order, most specific first.
type seafoodRule struct {
	category domain.SeafoodCategory
	keywords []string
}

var seafoodRules = []seafoodRule{
	{domain.SeafoodShrimp, []string{"새우"}},
	{domain.SeafoodCrab, []string{"게", "크랩"}},
	{domain.SeafoodCrustacean, []string{"갑각", "가재", "랍스터", "바닷가재", "킹크랩", "꽃게"}},
	{domain.SeafoodFish, []string{"어류", "생선", "연어", "참치", "고등어", "명태", "대구", "도미", "광어", "삼치", "전갱이", "멸치"}},
	{domain.SeafoodMollusc, []string{"연체", "조개", "패류", "가리비", "굴", "전복", "오징어", "낙지", "문어", "주꾸미"}},
	{domain.SeafoodSeaweed, []string{"해조", "해조류", "해초", "김", "미역", "다시마", "파래"}},
}

// RawProduceCatalog answers whether an ingredient is an unprocessed agricultural,
// livestock or marine product and, for seafood, which category it belongs to.
// It is read-only after LoadRawProduce returns.
type RawProduceCatalog struct {
	names   map[string]struct{}
	seafood map[string]domain.SeafoodCategory
}

// LoadRawProduce builds the catalog from the produce table and the seafood table
func LoadRawProduce(producePath, seafoodPath string) (*RawProduceCatalog, error) {
	produce, err := readTable(producePath, colFoodName, colDataType)
	if err != nil {
		return nil, err
	}
	seafood, err := readTable(seafoodPath, colDataType)
	if err != nil {
		return nil, err
	}
	return newRawProduceCatalog(produce, seafood), nil
}

func newRawProduceCatalog(produce, seafood *table) *RawProduceCatalog {
	c := &RawProduceCatalog{
		names:   make(map[string]struct{}),
		seafood: make(map[string]domain.SeafoodCategory),
	}

	for _, row := range produce.rows {
		if produce.get(row, colDataType) != rawProduceType {
			continue
		}
		for _, col := range []string{colFoodName, colRepresentName, colMidCategory, colSubCategory} {
			if v := textnorm.Key(produce.get(row, col)); v != "" {
				c.names[v] = struct{}{}
			}
		}
	}

	for _, row := range seafood.rows {
		if seafood.get(row, colDataType) != rawProduceType {
			continue
		}
		rep := seafood.get(row, colRepresentName)
		major := seafood.get(row, colMajorCategory)
		mid := seafood.get(row, colMidCategory)

		category, ok := ClassifySeafood(rep, major, mid)
		if !ok {
			continue
		}
		c.addSeafood(rep, category)
		c.addSeafood(major, category)
		c.addSeafood(mid, category)
	}

	return c
}

// addSeafood inserts key unless a more specific (lower priority number) category already owns it
func (c *RawProduceCatalog) addSeafood(name string, category domain.SeafoodCategory) {
	key := textnorm.Key(name)
	if key == "" {
		return
	}
	existing, ok := c.seafood[key]
	if !ok || category.Priority() < existing.Priority() {
		c.seafood[key] = category
	}
}

// IsRawProduce reports whether name is listed as a raw produce item
func (c *RawProduceCatalog) IsRawProduce(name string) bool {
	key := textnorm.Key(name)
	if key == "" {
		return false
	}
	_, ok := c.names[key]
	return ok
}

// MatchSeafoodCategory returns the seafood category registered for name
func (c *RawProduceCatalog) MatchSeafoodCategory(name string) (domain.SeafoodCategory, bool) {
	key := textnorm.Key(name)
	if key == "" {
		return "", false
	}
	category, ok := c.seafood[key]
	return category, ok
}

// Size returns the number of raw produce keys and seafood keys
func (c *RawProduceCatalog) Size() (produce, seafood int) {
	return len(c.names), len(c.seafood)
}

// ClassifySeafood picks the first category whose keyword appears in any of the given names
func ClassifySeafood(names ...string) (domain.SeafoodCategory, bool) {
	text := strings.ToLower(strings.Join(names, " "))
	for _, rule := range seafoodRules {
		for _, k := range rule.keywords {
			if strings.Contains(text, k) {
				return rule.category, true
			}
		}
	}
	return "", false
}
