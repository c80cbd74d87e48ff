package domain

// SeafoodCategory is the coarse class a raw seafood ingredient belongs to
type SeafoodCategory string

const (
	SeafoodShrimp     SeafoodCategory = "SHRIMP"
	SeafoodCrab       SeafoodCategory = "CRAB"
	SeafoodCrustacean SeafoodCategory = "CRUSTACEAN"
	SeafoodFish       SeafoodCategory = "FISH"
	SeafoodMollusc    SeafoodCategory = "MOLLUSC"
	SeafoodSeaweed    SeafoodCategory = "SEAWEED"
)

// Priority returns the tie-break rank of the category. Lower is more specific.
func (c SeafoodCategory) Priority() int {
	switch c {
	case SeafoodShrimp, SeafoodCrab:
		return 1
	case SeafoodCrustacean:
		return 2
	case SeafoodFish:
		return 3
	case SeafoodMollusc:
		return 4
	case SeafoodSeaweed:
		return 5
	}
	return 99
}

// EvidenceStatus is the terminal state of one ingredient's evidence search
type EvidenceStatus string

const (
	StatusFound    EvidenceStatus = "FOUND"
	StatusNotFound EvidenceStatus = "NOT_FOUND"
	StatusSkipped  EvidenceStatus = "SKIPPED"
)

// Search strategy names recorded on IngredientEvidence
const (
	StrategyProductNameExact   = "PRDLSTNM_INGREDIENT_EXACT"
	StrategyKindExploratory    = "HACCP_PRDKIND_EXPLORATORY"
	StrategyKindExpanded       = "HACCP_PRDKIND_QUERY_EXPANDED"
	StrategyCatalogKind        = "CATALOG_PRDKIND_SIMILARITY"
	StrategyCatalogProductName = "CATALOG_PRDLSTNM_SIMILARITY"
	StrategyAIProductName      = "AI_PRDLSTNM_EXPANSION"
	StrategySeafoodSkipped     = "RAW_PRODUCE_SEAFOOD_NON_ALLERGEN"
	StrategyRawProduceSkipped  = "RAW_PRODUCE_CATALOG_NON_ALLERGEN"
)

// AnalysisRequest is the input of an allergen analysis
type AnalysisRequest struct {
	Recipe        string `json:"recipe" binding:"required"`
	TargetCountry string `json:"targetCountry"`
	JobID         string `json:"jobId,omitempty"`
}

// ProductEvidence is one registry product backing an ingredient's allergens
type ProductEvidence struct {
	ReportNo    string `json:"prdlstReportNo"`
	ProductName string `json:"prdlstNm"`
	ProductKind string `json:"prdkind"`
	AllergyRaw  string `json:"allergyRaw"`
	RawMaterial string `json:"rawmtrlRaw"`
}

// IngredientEvidence records how one ingredient was resolved
type IngredientEvidence struct {
	Ingredient       string            `json:"ingredient"`
	SearchStrategy   string            `json:"searchStrategy"`
	Evidences        []ProductEvidence `json:"evidences"`
	MatchedAllergens []string          `json:"matchedAllergensForTargetCountry"`
	Status           EvidenceStatus    `json:"status"`
	Error            string            `json:"error,omitempty"`
}

// AnalysisResponse aggregates the outcome of one analysis. It is not modified after construction.
type AnalysisResponse struct {
	TargetCountry          string               `json:"targetCountry"`
	ExtractedIngredients   []string             `json:"extractedIngredients"`
	DirectMatchedAllergens map[string]string    `json:"directMatchedAllergens"`
	Evidences              []IngredientEvidence `json:"haccpSearchEvidences"`
	FinalMatchedAllergens  []string             `json:"finalMatchedAllergens"`
	Note                   string               `json:"note"`
}
