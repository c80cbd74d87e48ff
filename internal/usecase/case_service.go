package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/allerscan/backend/internal/catalog"
	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/textnorm"
	"go.uber.org/zap"
)

// ParsedRecipe is a recipe split into its product name and ingredients
type ParsedRecipe struct {
	ProductName string
	Ingredients []string
}

// ParseRecipe splits "<product>: <ingredients>" at the first colon.
// Without a colon the whole string is the product and there are no ingredients.
func ParseRecipe(recipe string) ParsedRecipe {
	idx := strings.Index(recipe, ":")
	if idx == -1 {
		return ParsedRecipe{ProductName: textnorm.Normalize(recipe), Ingredients: []string{}}
	}
	return ParsedRecipe{
		ProductName: textnorm.Normalize(recipe[:idx]),
		Ingredients: splitIngredientList(recipe[idx+1:]),
	}
}

// CaseService matches recipes against historical export violation cases
type CaseService struct {
	index  *catalog.CaseIndex
	repo   domain.CaseRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCaseService creates a new case service. repo may be nil, in which case nothing is persisted.
func NewCaseService(index *catalog.CaseIndex, repo domain.CaseRepository, logger *zap.Logger) *CaseService {
	return &CaseService{
		index:  index,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// FindCases matches the product name against finished product and processed ingredient rows
// by shared token, and every ingredient against all rows by exact token or token sequence.
// Matches are persisted for auditing when the request carries a recipe id.
func (s *CaseService) FindCases(ctx context.Context, req *domain.CaseRequest) (*domain.CaseResponse, error) {
	if req == nil || strings.TrimSpace(req.Recipe) == "" {
		return nil, domain.ErrInvalidRequest
	}

	parsed := ParseRecipe(req.Recipe)
	rows := s.index.SearchRows()
	var audit []domain.NonconformingCase

	productCases := []domain.RegulatoryCase{}
	if parsed.ProductName != "" {
		productTokens := textnorm.Tokenize(parsed.ProductName)
		for _, row := range rows {
			if !isProductRow(row.IngredientType) || !hasTokenOverlap(productTokens, textnorm.Tokenize(row.IngredientKeyword)) {
				continue
			}
			if c, ok := s.resolve(row); ok {
				productCases = append(productCases, c)
				audit = append(audit, s.auditRecord(req.RecipeID, c))
			}
		}
	}

	ingredientCases := make([]domain.IngredientCases, 0, len(parsed.Ingredients))
	for _, ing := range parsed.Ingredients {
		ingTokens := textnorm.Tokenize(ing)
		cases := []domain.RegulatoryCase{}
		for _, row := range rows {
			if !hasExactTokenMatch(textnorm.Tokenize(row.IngredientKeyword), ingTokens) {
				continue
			}
			if c, ok := s.resolve(row); ok {
				cases = append(cases, c)
				audit = append(audit, s.auditRecord(req.RecipeID, c))
			}
		}
		ingredientCases = append(ingredientCases, domain.IngredientCases{Ingredient: ing, Cases: cases})
	}

	s.logger.Info("[Cases] Lookup completed",
		zap.String("product", parsed.ProductName),
		zap.Int("product_cases", len(productCases)),
		zap.Int("ingredients", len(parsed.Ingredients)),
	)

	if req.RecipeID != nil && s.repo != nil && len(audit) > 0 {
		if err := s.repo.SaveAll(ctx, audit); err != nil {
			s.logger.Warn("[Cases] Failed to persist matched cases",
				zap.Int64("recipe_id", *req.RecipeID),
				zap.Error(err),
			)
		}
	}

	return &domain.CaseResponse{
		ProductCases:    domain.ProductCases{Product: parsed.ProductName, Cases: productCases},
		IngredientCases: ingredientCases,
	}, nil
}

// resolve joins a search row with its case record. Rows without a record are skipped.
func (s *CaseService) resolve(row domain.CaseSearchRow) (domain.RegulatoryCase, bool) {
	info, ok := s.index.Info(row.CaseID)
	if !ok {
		return domain.RegulatoryCase{}, false
	}
	return domain.RegulatoryCase{
		CaseID:            info.CaseID,
		Country:           info.Country,
		AnnouncementDate:  info.AnnouncementDate,
		Ingredient:        info.Ingredient,
		ViolationReason:   info.ViolationReason,
		Action:            info.Action,
		MatchedIngredient: row.IngredientKeyword,
	}, true
}

func (s *CaseService) auditRecord(recipeID *int64, c domain.RegulatoryCase) domain.NonconformingCase {
	var id int64
	if recipeID != nil {
		id = *recipeID
	}
	return domain.NonconformingCase{
		RecipeID:          id,
		CaseID:            c.CaseID,
		Country:           c.Country,
		Ingredient:        c.Ingredient,
		AnnouncementDate:  c.AnnouncementDate,
		ViolationReason:   c.ViolationReason,
		Action:            c.Action,
		MatchedIngredient: c.MatchedIngredient,
		CreatedAt:         s.now(),
	}
}

// History returns the cases previously persisted for a recipe
func (s *CaseService) History(ctx context.Context, recipeID int64) ([]domain.NonconformingCase, error) {
	if s.repo == nil {
		return []domain.NonconformingCase{}, nil
	}
	return s.repo.ListByRecipe(ctx, recipeID)
}

func isProductRow(ingredientType string) bool {
	switch strings.ToUpper(strings.TrimSpace(ingredientType)) {
	case domain.CaseTypeFinishedProduct, domain.CaseTypeProcessedIngredient:
		return true
	}
	return false
}

// hasTokenOverlap reports whether any token appears in both lists
func hasTokenOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// hasExactTokenMatch requires a single ingredient token to equal a keyword token,
// and a multi-token ingredient to appear as a contiguous run of keyword tokens
func hasExactTokenMatch(keyword, ingredient []string) bool {
	if len(keyword) == 0 || len(ingredient) == 0 {
		return false
	}
	if len(ingredient) == 1 {
		for _, k := range keyword {
			if k == ingredient[0] {
				return true
			}
		}
		return false
	}
	for i := 0; i+len(ingredient) <= len(keyword); i++ {
		match := true
		for j := range ingredient {
			if keyword[i+j] != ingredient[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
