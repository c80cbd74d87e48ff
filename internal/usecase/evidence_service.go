package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allerscan/backend/internal/catalog"
	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/infrastructure/haccp"
	"github.com/allerscan/backend/internal/pkg/textnorm"
	"go.uber.org/zap"
)

// EvidenceServiceConfig holds configuration for the evidence service
type EvidenceServiceConfig struct {
	CacheTTL    time.Duration
	KindRows    int // rows requested per classification keyword query
	NameRows    int // rows requested per product name query
	MaxEvidence int // product records kept per ingredient
}

// EvidenceService searches the certified product registry for an ingredient and
// derives allergens from the products it finds
type EvidenceService struct {
	registry  domain.RegistryClient
	generator domain.CandidateGenerator
	cache     domain.CacheRepository
	matcher   *AllergenMatcher
	processed *catalog.ProcessedFoodsCatalog
	logger    *zap.Logger

	cacheTTL    time.Duration
	kindRows    int
	nameRows    int
	maxEvidence int
}

// NewEvidenceService creates a new evidence service. generator and cache may be nil.
func NewEvidenceService(
	registry domain.RegistryClient,
	generator domain.CandidateGenerator,
	cache domain.CacheRepository,
	matcher *AllergenMatcher,
	processed *catalog.ProcessedFoodsCatalog,
	logger *zap.Logger,
	config EvidenceServiceConfig,
) *EvidenceService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	kindRows := config.KindRows
	if kindRows <= 0 {
		kindRows = 3
	}
	nameRows := config.NameRows
	if nameRows <= 0 {
		nameRows = 20
	}
	maxEvidence := config.MaxEvidence
	if maxEvidence <= 0 {
		maxEvidence = 5
	}

	return &EvidenceService{
		registry:    registry,
		generator:   generator,
		cache:       cache,
		matcher:     matcher,
		processed:   processed,
		logger:      logger,
		cacheTTL:    cacheTTL,
		kindRows:    kindRows,
		nameRows:    nameRows,
		maxEvidence: maxEvidence,
	}
}

// queryShape selects which registry field carries the search term
type queryShape string

const (
	shapeKind        queryShape = "prdkind"
	shapeProductName queryShape = "prdlstNm"
)

// Search runs the strategy chain for one ingredient and stops at the first strategy that finds products:
// exact product name, classification keyword, expanded classification keywords, catalog derived
// candidates, then AI suggested product names. When every strategy comes back empty the evidence is NOT_FOUND.
func (s *EvidenceService) Search(ctx context.Context, ingredient string, obligation []string) (domain.IngredientEvidence, error) {
	strategy := domain.StrategyProductNameExact
	items, err := s.searchNames(ctx, []string{ingredient})
	if err != nil {
		return domain.IngredientEvidence{}, err
	}

	if len(items) == 0 {
		strategy = domain.StrategyKindExploratory
		if items, err = s.searchKinds(ctx, []string{ingredient}); err != nil {
			return domain.IngredientEvidence{}, err
		}
	}

	if len(items) == 0 {
		if expanded := s.matcher.ExpandKindQueries(ingredient); len(expanded) > 0 {
			strategy = domain.StrategyKindExpanded
			if items, err = s.searchKinds(ctx, expanded); err != nil {
				return domain.IngredientEvidence{}, err
			}
		}
	}

	if len(items) == 0 && s.processed != nil {
		plan := s.processed.BuildSearchPlan(ingredient)
		s.logger.Debug("[Evidence] Catalog search plan",
			zap.String("ingredient", ingredient),
			zap.Strings("kinds", plan.KindCandidates),
			zap.Strings("names", plan.ProductNameCandidates),
		)

		if len(plan.KindCandidates) > 0 {
			strategy = domain.StrategyCatalogKind
			if items, err = s.searchKinds(ctx, plan.KindCandidates); err != nil {
				return domain.IngredientEvidence{}, err
			}
		}
		if len(items) == 0 && len(plan.ProductNameCandidates) > 0 {
			strategy = domain.StrategyCatalogProductName
			if items, err = s.searchNames(ctx, plan.ProductNameCandidates); err != nil {
				return domain.IngredientEvidence{}, err
			}
		}
	}

	if len(items) == 0 && s.generator != nil {
		raw, err := s.generator.Generate(ctx, productNamePrompt(ingredient))
		if err != nil {
			return domain.IngredientEvidence{}, fmt.Errorf("%w: %v", domain.ErrAIFailure, err)
		}
		if candidates := PostProcessCandidates(raw); len(candidates) > 0 {
			s.logger.Debug("[Evidence] AI product name candidates",
				zap.String("ingredient", ingredient),
				zap.Strings("candidates", candidates),
			)
			strategy = domain.StrategyAIProductName
			if items, err = s.searchNames(ctx, candidates); err != nil {
				return domain.IngredientEvidence{}, err
			}
		}
	}

	if len(items) == 0 {
		return domain.IngredientEvidence{
			Ingredient:       ingredient,
			SearchStrategy:   strategy,
			Evidences:        []domain.ProductEvidence{},
			MatchedAllergens: []string{},
			Status:           domain.StatusNotFound,
		}, nil
	}

	return s.buildEvidence(ctx, ingredient, items, obligation, strategy)
}

// buildEvidence keeps the first products and reads allergens from them.
// Declared allergy text is trusted only for a product named exactly like the ingredient;
// otherwise only raw material entries related to the ingredient are considered.
func (s *EvidenceService) buildEvidence(
	ctx context.Context,
	ingredient string,
	items []domain.HACCPItem,
	obligation []string,
	strategy string,
) (domain.IngredientEvidence, error) {
	if len(items) > s.maxEvidence {
		items = items[:s.maxEvidence]
	}

	evidences := make([]domain.ProductEvidence, 0, len(items))
	var canonicals []string

	for _, item := range items {
		evidences = append(evidences, haccp.MapToProductEvidence(item))

		exact := textnorm.Normalize(item.ProductName) == textnorm.Normalize(ingredient)
		if exact && !IsUnknownAllergy(item.Allergy) {
			canonicals = append(canonicals, s.matcher.AllergensFromAllergyText(item.Allergy)...)
			continue
		}
		if textnorm.Normalize(item.RawMaterial) == "" {
			continue
		}

		related, err := s.relatedTokens(ctx, ingredient, item.RawMaterial)
		if err != nil {
			return domain.IngredientEvidence{}, err
		}
		if len(related) > 0 {
			canonicals = append(canonicals, s.matcher.AllergensFromTokens(related)...)
		}
	}

	return domain.IngredientEvidence{
		Ingredient:       ingredient,
		SearchStrategy:   strategy,
		Evidences:        evidences,
		MatchedAllergens: FilterByObligation(canonicals, obligation),
		Status:           domain.StatusFound,
	}, nil
}

// relatedTokens narrows raw material text to the ingredient's own entries,
// asking the generator only when the deterministic pass finds nothing
func (s *EvidenceService) relatedTokens(ctx context.Context, ingredient, rawMaterial string) ([]string, error) {
	if tokens := ExtractRelatedTokens(ingredient, rawMaterial); len(tokens) > 0 {
		return tokens, nil
	}
	if s.generator == nil {
		return nil, nil
	}

	raw, err := s.generator.Generate(ctx, relatedTokensPrompt(ingredient, rawMaterial))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAIFailure, err)
	}
	return ConstrainToRawMaterial(raw, rawMaterial), nil
}

// searchKinds runs a classification keyword query per entry, de-duplicated by report number
func (s *EvidenceService) searchKinds(ctx context.Context, queries []string) ([]domain.HACCPItem, error) {
	return s.searchAll(ctx, shapeKind, queries, s.kindRows)
}

// searchNames runs a product name query per entry and keeps only products named exactly like a query
func (s *EvidenceService) searchNames(ctx context.Context, queries []string) ([]domain.HACCPItem, error) {
	items, err := s.searchAll(ctx, shapeProductName, queries, s.nameRows)
	if err != nil {
		return nil, err
	}
	return filterExactNames(items, queries), nil
}

func (s *EvidenceService) searchAll(ctx context.Context, shape queryShape, queries []string, rows int) ([]domain.HACCPItem, error) {
	var items []domain.HACCPItem
	seen := make(map[string]bool)

	for _, query := range queries {
		query = textnorm.Normalize(query)
		if query == "" {
			continue
		}
		found, err := s.query(ctx, shape, query, rows)
		if err != nil {
			return nil, err
		}
		for _, item := range found {
			if item.ReportNo != "" {
				if seen[item.ReportNo] {
					continue
				}
				seen[item.ReportNo] = true
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// query hits the registry through the cache
func (s *EvidenceService) query(ctx context.Context, shape queryShape, query string, rows int) ([]domain.HACCPItem, error) {
	key := registryCacheKey(shape, query, rows)
	if items, ok := s.getFromCache(ctx, key); ok {
		return items, nil
	}

	var (
		resp *domain.HACCPSearchResponse
		err  error
	)
	switch shape {
	case shapeKind:
		resp, err = s.registry.SearchByKind(ctx, query, 1, rows)
	default:
		resp, err = s.registry.SearchByProductName(ctx, query, 1, rows)
	}
	if err != nil {
		return nil, err
	}

	var items []domain.HACCPItem
	if resp != nil {
		items = resp.Items
	}
	s.setInCache(ctx, key, items)
	return items, nil
}

// registryCacheKey creates a cache key from the query shape, term and row cap.
// Format: "haccp:{shape}:{rows}:{normalized_query}"
func registryCacheKey(shape queryShape, query string, rows int) string {
	return fmt.Sprintf("haccp:%s:%d:%s", shape, rows, textnorm.Key(query))
}

func (s *EvidenceService) getFromCache(ctx context.Context, key string) ([]domain.HACCPItem, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var items []domain.HACCPItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("[Evidence] Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return items, true
}

// setInCache stores a registry result; caching failures never fail the search
func (s *EvidenceService) setInCache(ctx context.Context, key string, items []domain.HACCPItem) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Debug("[Evidence] Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// filterExactNames keeps items whose product name equals one of the queries
func filterExactNames(items []domain.HACCPItem, queries []string) []domain.HACCPItem {
	wanted := make(map[string]bool, len(queries))
	for _, q := range queries {
		if q = textnorm.Normalize(q); q != "" {
			wanted[q] = true
		}
	}
	var out []domain.HACCPItem
	for _, item := range items {
		if wanted[textnorm.Normalize(item.ProductName)] {
			out = append(out, item)
		}
	}
	return out
}
