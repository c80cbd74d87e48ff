package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/allerscan/backend/internal/catalog"
	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/textnorm"
	"go.uber.org/zap"
)

// AnalysisNote is attached to every analysis response
const AnalysisNote = "Results come from HACCP prdkind/prdlstNm searches matched against declared allergy and raw material text. " +
	"No allergen is inferred beyond that evidence; an ingredient with no registry results ends as NOT_FOUND."

// Progress weights of the analysis stages
const (
	weightExtract  = 1
	weightClassify = 1
	weightRegistry = 3
	weightAssemble = 1
)

// AllergenService runs the allergen analysis of a recipe for a target country
type AllergenService struct {
	catalogs *catalog.Catalogs
	matcher  *AllergenMatcher
	evidence *EvidenceService
	progress *ProgressTracker
	logger   *zap.Logger
}

// NewAllergenService creates a new allergen service. progress may be nil.
func NewAllergenService(
	catalogs *catalog.Catalogs,
	matcher *AllergenMatcher,
	evidence *EvidenceService,
	progress *ProgressTracker,
	logger *zap.Logger,
) *AllergenService {
	if progress == nil {
		progress = NewProgressTracker()
	}
	return &AllergenService{
		catalogs: catalogs,
		matcher:  matcher,
		evidence: evidence,
		progress: progress,
		logger:   logger,
	}
}

// directMatches records allergen -> triggering ingredient in first-seen order
type directMatches struct {
	byAllergen map[string]string
	order      []string
}

func newDirectMatches() *directMatches {
	return &directMatches{byAllergen: make(map[string]string)}
}

func (d *directMatches) put(allergen, ingredient string) {
	if _, ok := d.byAllergen[allergen]; !ok {
		d.order = append(d.order, allergen)
	}
	d.byAllergen[allergen] = ingredient
}

// addIfObligated records canonical under the country's wording when the country requires it
func (d *directMatches) addIfObligated(canonical, ingredient string, obligation []string) bool {
	name, ok := ResolveForCountry(canonical, obligation)
	if !ok {
		return false
	}
	d.put(name, ingredient)
	return true
}

// Analyze extracts ingredients from the recipe and resolves each one in order:
// multi-allergen dictionary, seafood category, raw produce, single dictionary and processed
// food catalog, then registry evidence. Registry and AI failures only affect their own ingredient.
func (s *AllergenService) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	if req == nil || strings.TrimSpace(req.Recipe) == "" {
		return nil, domain.ErrInvalidRequest
	}

	country := strings.ToUpper(textnorm.Normalize(req.TargetCountry))
	obligation := s.catalogs.Obligations.For(country)
	ingredients := ExtractIngredients(req.Recipe)

	s.progress.Init(req.JobID, weightExtract+weightClassify*len(ingredients)+weightRegistry*len(ingredients)+weightAssemble)
	s.progress.Step(req.JobID, weightExtract, "extract", fmt.Sprintf("extracted %d ingredients", len(ingredients)))

	s.logger.Info("[Analysis] Starting",
		zap.String("country", country),
		zap.Int("obligations", len(obligation)),
		zap.Strings("ingredients", ingredients),
	)

	direct := newDirectMatches()
	var remaining []string
	evidences := []domain.IngredientEvidence{}

	for _, ing := range ingredients {
		if skipped, resolved := s.classify(ing, obligation, direct); resolved {
			if skipped != nil {
				evidences = append(evidences, *skipped)
			}
		} else {
			remaining = append(remaining, ing)
		}
		s.progress.Step(req.JobID, weightClassify, "classify", "classified "+ing)
	}
	// ingredients resolved before the registry never reach it
	s.progress.Step(req.JobID, weightRegistry*(len(ingredients)-len(remaining)), "classify", "direct matching done")

	final := newOrderedStrings(direct.order...)

	for _, ing := range remaining {
		if err := ctx.Err(); err != nil {
			s.progress.Fail(req.JobID, err.Error())
			return nil, err
		}

		ev, err := s.evidence.Search(ctx, ing, obligation)
		if err != nil {
			s.logger.Warn("[Analysis] Registry search failed",
				zap.String("ingredient", ing),
				zap.Error(err),
			)
			ev = domain.IngredientEvidence{
				Ingredient:       ing,
				Evidences:        []domain.ProductEvidence{},
				MatchedAllergens: []string{},
				Status:           domain.StatusNotFound,
				Error:            err.Error(),
			}
		}
		evidences = append(evidences, ev)
		final.add(ev.MatchedAllergens...)

		s.progress.Step(req.JobID, weightRegistry, "registry", "searched "+ing)
	}

	resp := &domain.AnalysisResponse{
		TargetCountry:          country,
		ExtractedIngredients:   ingredients,
		DirectMatchedAllergens: direct.byAllergen,
		Evidences:              evidences,
		FinalMatchedAllergens:  final.items,
		Note:                   AnalysisNote,
	}

	s.logger.Info("[Analysis] Completed",
		zap.String("country", country),
		zap.Strings("allergens", resp.FinalMatchedAllergens),
	)
	s.progress.Step(req.JobID, weightAssemble, "assemble", "assembled response")
	s.progress.Complete(req.JobID)

	return resp, nil
}

// classify resolves an ingredient without the registry. resolved is false when the
// ingredient still needs a registry search; skipped is set when it was deliberately excluded.
func (s *AllergenService) classify(ing string, obligation []string, direct *directMatches) (skipped *domain.IngredientEvidence, resolved bool) {
	if multi := s.matcher.DirectMultiMatch(ing); len(multi) > 0 {
		for _, canonical := range multi {
			direct.addIfObligated(canonical, ing, obligation)
		}
		return nil, true
	}

	if category, ok := s.catalogs.RawProduce.MatchSeafoodCategory(ing); ok {
		s.logger.Debug("[Analysis] Seafood ingredient", zap.String("ingredient", ing), zap.String("category", string(category)))
		if addSeafoodMatches(category, ing, obligation, direct) {
			return nil, true
		}
		return skippedEvidence(ing, domain.StrategySeafoodSkipped+":"+string(category)), true
	}

	if s.catalogs.RawProduce.IsRawProduce(ing) {
		s.logger.Debug("[Analysis] Raw produce ingredient", zap.String("ingredient", ing))
		if canonical, ok := s.matcher.DirectMatch(ing); ok && direct.addIfObligated(canonical, ing, obligation) {
			return nil, true
		}
		return skippedEvidence(ing, domain.StrategyRawProduceSkipped), true
	}

	if canonical, ok := s.matcher.DirectMatch(ing); ok {
		return nil, direct.addIfObligated(canonical, ing, obligation)
	}

	if labels, ok := s.catalogs.ProcessedFoods.MatchDirect(ing); ok {
		matched := false
		for _, canonical := range s.matcher.AllergensFromTokens(labels) {
			if direct.addIfObligated(canonical, ing, obligation) {
				matched = true
			}
		}
		return nil, matched
	}

	return nil, false
}

// addSeafoodMatches applies the seafood category rules. Molluscs and seaweed never match.
func addSeafoodMatches(category domain.SeafoodCategory, ing string, obligation []string, direct *directMatches) bool {
	switch category {
	case domain.SeafoodFish:
		return direct.addIfObligated(AllergenFish, ing, obligation)
	case domain.SeafoodCrustacean:
		return direct.addIfObligated(AllergenCrustaceans, ing, obligation)
	case domain.SeafoodShrimp:
		matched := direct.addIfObligated(AllergenCrustaceans, ing, obligation)
		if direct.addIfObligated(AllergenShrimp, ing, obligation) {
			matched = true
		}
		return matched
	case domain.SeafoodCrab:
		matched := direct.addIfObligated(AllergenCrustaceans, ing, obligation)
		if direct.addIfObligated(AllergenCrab, ing, obligation) {
			matched = true
		}
		return matched
	}
	return false
}

func skippedEvidence(ing, strategy string) *domain.IngredientEvidence {
	return &domain.IngredientEvidence{
		Ingredient:       ing,
		SearchStrategy:   strategy,
		Evidences:        []domain.ProductEvidence{},
		MatchedAllergens: []string{},
		Status:           domain.StatusSkipped,
	}
}

// orderedStrings is an insertion-ordered set
type orderedStrings struct {
	seen  map[string]bool
	items []string
}

func newOrderedStrings(initial ...string) *orderedStrings {
	o := &orderedStrings{seen: make(map[string]bool), items: []string{}}
	o.add(initial...)
	return o
}

func (o *orderedStrings) add(values ...string) {
	for _, v := range values {
		if o.seen[v] {
			continue
		}
		o.seen[v] = true
		o.items = append(o.items, v)
	}
}
