package catalog

import (
	"github.com/allerscan/backend/internal/domain"
)

const (
	colCaseID            = "case_id"
	colCountry           = "country"
	colIngredientKeyword = "ingredient_keyword"
	colIngredientType    = "ingredient_type"
	colAnnouncementDate  = "announcement_date"
	colIngredient        = "ingredient"
	colViolationReason   = "violation_reason"
	colAction            = "action"
)

// CaseIndex holds the regulatory case search rows and the case details keyed by case id
type CaseIndex struct {
	rows []domain.CaseSearchRow
	info map[string]domain.CaseInfo
}

// LoadCaseIndex reads the search index and the case detail table
func LoadCaseIndex(searchPath, infoPath string) (*CaseIndex, error) {
	search, err := readTable(searchPath, colCaseID, colCountry, colIngredientKeyword, colIngredientType)
	if err != nil {
		return nil, err
	}
	info, err := readTable(infoPath, colCaseID, colCountry, colAnnouncementDate, colIngredient, colViolationReason, colAction)
	if err != nil {
		return nil, err
	}
	return newCaseIndex(search, info), nil
}

func newCaseIndex(search, info *table) *CaseIndex {
	idx := &CaseIndex{info: make(map[string]domain.CaseInfo)}

	for _, row := range search.rows {
		r := domain.CaseSearchRow{
			CaseID:            search.get(row, colCaseID),
			Country:           search.get(row, colCountry),
			IngredientKeyword: search.get(row, colIngredientKeyword),
			IngredientType:    search.get(row, colIngredientType),
		}
		if r.CaseID == "" || r.IngredientKeyword == "" {
			continue
		}
		idx.rows = append(idx.rows, r)
	}

	for _, row := range info.rows {
		c := domain.CaseInfo{
			CaseID:           info.get(row, colCaseID),
			Country:          info.get(row, colCountry),
			AnnouncementDate: info.get(row, colAnnouncementDate),
			Ingredient:       info.get(row, colIngredient),
			ViolationReason:  info.get(row, colViolationReason),
			Action:           info.get(row, colAction),
		}
		if c.CaseID == "" {
			continue
		}
		idx.info[c.CaseID] = c
	}

	return idx
}

// SearchRows returns the search index in file order. Callers must not modify it.
func (c *CaseIndex) SearchRows() []domain.CaseSearchRow {
	return c.rows
}

// Info returns the case details for caseID
func (c *CaseIndex) Info(caseID string) (domain.CaseInfo, bool) {
	info, ok := c.info[caseID]
	return info, ok
}

// Size returns the number of search rows and the number of case records
func (c *CaseIndex) Size() (rows, cases int) {
	return len(c.rows), len(c.info)
}
