package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/allerscan/backend/internal/domain"
	"go.uber.org/zap"
)

func newTestEvidenceService(t *testing.T, registry *MockRegistryClient, generator domain.CandidateGenerator, cache domain.CacheRepository) *EvidenceService {
	t.Helper()
	catalogs := loadTestCatalogs(t)
	return NewEvidenceService(registry, generator, cache, NewAllergenMatcher(), catalogs.ProcessedFoods, zap.NewNop(), EvidenceServiceConfig{})
}

func TestNewEvidenceService(t *testing.T) {
	t.Run("creates service with default values", func(t *testing.T) {
		svc := NewEvidenceService(NewMockRegistryClient(), nil, nil, NewAllergenMatcher(), nil, zap.NewNop(), EvidenceServiceConfig{})
		if svc.cacheTTL != 24*time.Hour {
			t.Errorf("cacheTTL = %v, want 24h", svc.cacheTTL)
		}
		if svc.kindRows != 3 || svc.nameRows != 20 || svc.maxEvidence != 5 {
			t.Errorf("rows = %d/%d, maxEvidence = %d", svc.kindRows, svc.nameRows, svc.maxEvidence)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewEvidenceService(NewMockRegistryClient(), nil, nil, NewAllergenMatcher(), nil, zap.NewNop(), EvidenceServiceConfig{
			CacheTTL:    time.Hour,
			KindRows:    10,
			NameRows:    50,
			MaxEvidence: 2,
		})
		if svc.cacheTTL != time.Hour || svc.kindRows != 10 || svc.nameRows != 50 || svc.maxEvidence != 2 {
			t.Errorf("custom config not applied: %+v", svc)
		}
	})
}

func TestEvidenceService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("exact product name trusts declared allergy text", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byName["고추장"] = []domain.HACCPItem{
			{ReportNo: "R1", ProductName: "고추장", ProductKind: "고추장", Allergy: "대두, 밀 함유", RawMaterial: "고춧가루, 찹쌀"},
			{ReportNo: "R2", ProductName: "찹쌀고추장", Allergy: "우유"},
		}
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "고추장", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Status != domain.StatusFound || ev.SearchStrategy != domain.StrategyProductNameExact {
			t.Errorf("status/strategy = %s/%s", ev.Status, ev.SearchStrategy)
		}
		if len(ev.Evidences) != 1 || ev.Evidences[0].ReportNo != "R1" {
			t.Errorf("evidences = %+v, want only the exact name", ev.Evidences)
		}
		want := []string{"Soybeans", "Wheat"}
		if !reflect.DeepEqual(ev.MatchedAllergens, want) {
			t.Errorf("MatchedAllergens = %v, want %v", ev.MatchedAllergens, want)
		}
		if len(registry.kindCalls) != 0 {
			t.Errorf("kind search should not run, got %v", registry.kindCalls)
		}
	})

	t.Run("classification keyword reads only related raw materials", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byKind["굴소스"] = []domain.HACCPItem{
			{ReportNo: "R3", ProductName: "프리미엄 굴소스", Allergy: "대두, 밀", RawMaterial: "굴소스농축액(굴추출물), 정제수, 밀가루"},
		}
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "굴소스", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyKindExploratory {
			t.Errorf("SearchStrategy = %s, want %s", ev.SearchStrategy, domain.StrategyKindExploratory)
		}
		if ev.MatchedAllergens == nil || len(ev.MatchedAllergens) != 0 {
			t.Errorf("MatchedAllergens = %#v, want empty", ev.MatchedAllergens)
		}
	})

	t.Run("expanded classification keywords", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byKind["고춧"] = []domain.HACCPItem{
			{ReportNo: "R4", ProductName: "고춧가루", Allergy: "알 수 없음", RawMaterial: "고춧가루(국산)"},
		}
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "고춧가루", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyKindExpanded || ev.Status != domain.StatusFound {
			t.Errorf("status/strategy = %s/%s", ev.Status, ev.SearchStrategy)
		}
		if len(ev.MatchedAllergens) != 0 {
			t.Errorf("MatchedAllergens = %v, want none", ev.MatchedAllergens)
		}
	})

	t.Run("catalog classification candidates", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byKind["떡류"] = []domain.HACCPItem{
			{ReportNo: "R5", ProductName: "떡볶이떡", RawMaterial: "떡[쌀, 소맥분(밀)], 정제수"},
		}
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "떡", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyCatalogKind {
			t.Errorf("SearchStrategy = %s, want %s", ev.SearchStrategy, domain.StrategyCatalogKind)
		}
		if !reflect.DeepEqual(ev.MatchedAllergens, []string{"Wheat"}) {
			t.Errorf("MatchedAllergens = %v, want [Wheat]", ev.MatchedAllergens)
		}
		wantKinds := []string{"떡", "가래떡", "떡류", "떡국떡"}
		if !reflect.DeepEqual(registry.kindCalls, wantKinds) {
			t.Errorf("kind queries = %v, want %v", registry.kindCalls, wantKinds)
		}
	})

	t.Run("catalog product name candidates", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byName["떡국떡"] = []domain.HACCPItem{
			{ReportNo: "R6", ProductName: "떡국떡", RawMaterial: "쌀, 정제소금"},
		}
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "떡", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyCatalogProductName || ev.Status != domain.StatusFound {
			t.Errorf("status/strategy = %s/%s", ev.Status, ev.SearchStrategy)
		}
	})

	t.Run("AI product names and related raw materials", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byName["달걀말이"] = []domain.HACCPItem{
			{ReportNo: "R7", ProductName: "달걀말이", Allergy: "난류, 우유, 대두", RawMaterial: "달걀말이[전란액, 우유], 정제소금"},
		}
		generator := &MockCandidateGenerator{
			namesResult:   []string{"계란말이", "HACCP 계란", "달걀말이"},
			relatedResult: []string{"전란액", "우유", "대두"},
		}
		svc := newTestEvidenceService(t, registry, generator, nil)

		ev, err := svc.Search(ctx, "계란말이", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyAIProductName {
			t.Errorf("SearchStrategy = %s, want %s", ev.SearchStrategy, domain.StrategyAIProductName)
		}
		want := []string{"Eggs", "Milk"}
		if !reflect.DeepEqual(ev.MatchedAllergens, want) {
			t.Errorf("MatchedAllergens = %v, want %v", ev.MatchedAllergens, want)
		}
		if len(generator.prompts) != 2 {
			t.Errorf("generator called %d times, want 2", len(generator.prompts))
		}
	})

	t.Run("not found keeps the last strategy tried", func(t *testing.T) {
		registry := NewMockRegistryClient()
		generator := &MockCandidateGenerator{namesResult: []string{}}
		svc := newTestEvidenceService(t, registry, generator, nil)

		ev, err := svc.Search(ctx, "대파", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Status != domain.StatusNotFound {
			t.Errorf("Status = %s, want NOT_FOUND", ev.Status)
		}
		if ev.SearchStrategy != domain.StrategyKindExploratory {
			t.Errorf("SearchStrategy = %s, want %s", ev.SearchStrategy, domain.StrategyKindExploratory)
		}
		if ev.Evidences == nil || ev.MatchedAllergens == nil {
			t.Error("expected empty, non-nil slices")
		}
	})

	t.Run("keeps at most five products and skips repeated report numbers", func(t *testing.T) {
		registry := NewMockRegistryClient()
		var items []domain.HACCPItem
		for i := 0; i < 7; i++ {
			items = append(items, domain.HACCPItem{ReportNo: fmt.Sprintf("K%d", i), ProductName: fmt.Sprintf("가공두부 %d", i)})
		}
		registry.byKind["두부"] = items[:4]
		registry.byKind["두부류"] = items[2:]
		svc := newTestEvidenceService(t, registry, nil, nil)

		ev, err := svc.Search(ctx, "두부", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyKindExploratory {
			t.Fatalf("SearchStrategy = %s", ev.SearchStrategy)
		}
		if len(ev.Evidences) != 4 {
			t.Errorf("len(Evidences) = %d, want 4 from the first keyword", len(ev.Evidences))
		}

		registry.byKind["두부"] = nil
		registry.byKind["두류가공품"] = items
		ev, err = svc.Search(ctx, "두부", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SearchStrategy != domain.StrategyKindExpanded {
			t.Fatalf("SearchStrategy = %s", ev.SearchStrategy)
		}
		if len(ev.Evidences) != 5 {
			t.Errorf("len(Evidences) = %d, want 5", len(ev.Evidences))
		}
		seen := map[string]bool{}
		for _, e := range ev.Evidences {
			if seen[e.ReportNo] {
				t.Errorf("duplicate report number %s", e.ReportNo)
			}
			seen[e.ReportNo] = true
		}
	})

	t.Run("registry errors are returned", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.err = fmt.Errorf("%w: status 500", domain.ErrRegistryFailure)
		svc := newTestEvidenceService(t, registry, nil, nil)

		_, err := svc.Search(ctx, "고추장", usObligation)
		if !errors.Is(err, domain.ErrRegistryFailure) {
			t.Errorf("error = %v, want ErrRegistryFailure", err)
		}
	})

	t.Run("generator errors are wrapped", func(t *testing.T) {
		registry := NewMockRegistryClient()
		generator := &MockCandidateGenerator{err: errors.New("quota exceeded")}
		svc := newTestEvidenceService(t, registry, generator, nil)

		_, err := svc.Search(ctx, "대파", usObligation)
		if !errors.Is(err, domain.ErrAIFailure) {
			t.Errorf("error = %v, want ErrAIFailure", err)
		}
	})
}

func TestEvidenceService_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("second search is served from cache", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byName["고추장"] = []domain.HACCPItem{{ReportNo: "R1", ProductName: "고추장", Allergy: "대두"}}
		cache := NewMockCacheRepository()
		svc := newTestEvidenceService(t, registry, nil, cache)

		first, err := svc.Search(ctx, "고추장", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cache.setCalled {
			t.Error("expected cache.Set to be called")
		}
		if _, ok := cache.data[registryCacheKey(shapeProductName, "고추장", 20)]; !ok {
			t.Errorf("cache keys = %v", cache.data)
		}

		second, err := svc.Search(ctx, "고추장", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(registry.nameCalls) != 1 {
			t.Errorf("registry called %d times, want 1", len(registry.nameCalls))
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("cached result differs:\n%+v\n%+v", first, second)
		}
	})

	t.Run("empty results are cached too", func(t *testing.T) {
		registry := NewMockRegistryClient()
		cache := NewMockCacheRepository()
		svc := newTestEvidenceService(t, registry, nil, cache)

		if _, err := svc.Search(ctx, "대파", usObligation); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		calls := registry.calls()
		if _, err := svc.Search(ctx, "대파", usObligation); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if registry.calls() != calls {
			t.Errorf("registry calls grew from %d to %d", calls, registry.calls())
		}
	})

	t.Run("cache failures fall through to the registry", func(t *testing.T) {
		registry := NewMockRegistryClient()
		registry.byName["고추장"] = []domain.HACCPItem{{ReportNo: "R1", ProductName: "고추장", Allergy: "대두"}}
		cache := NewMockCacheRepository()
		cache.getError = domain.ErrCacheUnavailable
		cache.setError = domain.ErrCacheUnavailable
		svc := newTestEvidenceService(t, registry, nil, cache)

		ev, err := svc.Search(ctx, "고추장", usObligation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Status != domain.StatusFound {
			t.Errorf("Status = %s, want FOUND", ev.Status)
		}
	})

	t.Run("undecodable entries are ignored", func(t *testing.T) {
		registry := NewMockRegistryClient()
		cache := NewMockCacheRepository()
		cache.data[registryCacheKey(shapeProductName, "고추장", 20)] = []byte("not json")
		svc := newTestEvidenceService(t, registry, nil, cache)

		if _, err := svc.Search(ctx, "고추장", usObligation); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(registry.nameCalls) == 0 {
			t.Error("expected the registry to be queried")
		}
	})
}

func TestRegistryCacheKey(t *testing.T) {
	if got := registryCacheKey(shapeKind, "  Soy Sauce ", 3); got != "haccp:prdkind:3:soy sauce" {
		t.Errorf("registryCacheKey() = %q", got)
	}
}
