package domain

import "time"

// Search index row types that qualify for product-level case matching
const (
	CaseTypeFinishedProduct     = "FINISHED_PRODUCT"
	CaseTypeProcessedIngredient = "PROCESSED_INGREDIENT"
)

// CaseSearchRow is one keyword row of the regulatory case search index
type CaseSearchRow struct {
	CaseID            string
	Country           string
	IngredientKeyword string
	IngredientType    string
}

// CaseInfo is the full record of a historical export violation
type CaseInfo struct {
	CaseID           string
	Country          string
	AnnouncementDate string
	Ingredient       string
	ViolationReason  string
	Action           string
}

// CaseRequest is the input of a regulatory case lookup
type CaseRequest struct {
	RecipeID *int64 `json:"recipeId,omitempty"`
	Recipe   string `json:"recipe" binding:"required"`
}

// RegulatoryCase is one matched violation case
type RegulatoryCase struct {
	CaseID            string `json:"caseId"`
	Country           string `json:"country"`
	AnnouncementDate  string `json:"announcementDate"`
	Ingredient        string `json:"ingredient"`
	ViolationReason   string `json:"violationReason"`
	Action            string `json:"action"`
	MatchedIngredient string `json:"matchedIngredient"`
}

// ProductCases are the cases matched against the product name
type ProductCases struct {
	Product string           `json:"product"`
	Cases   []RegulatoryCase `json:"cases"`
}

// IngredientCases are the cases matched against one ingredient
type IngredientCases struct {
	Ingredient string           `json:"ingredient"`
	Cases      []RegulatoryCase `json:"cases"`
}

// CaseResponse is the outcome of a regulatory case lookup
type CaseResponse struct {
	ProductCases    ProductCases      `json:"productCases"`
	IngredientCases []IngredientCases `json:"ingredientCases"`
}

// NonconformingCase is the audit record of a case matched for a recipe
type NonconformingCase struct {
	RecipeID          int64
	CaseID            string
	Country           string
	Ingredient        string
	AnnouncementDate  string
	ViolationReason   string
	Action            string
	MatchedIngredient string
	CreatedAt         time.Time
}
