package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/catalog"
	"github.com/allerscan/backend/internal/domain"
	"go.uber.org/zap"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockRegistryClient is a mock implementation of domain.RegistryClient
type MockRegistryClient struct {
	byKind    map[string][]domain.HACCPItem
	byName    map[string][]domain.HACCPItem
	err       error
	kindCalls []string
	nameCalls []string
}

func NewMockRegistryClient() *MockRegistryClient {
	return &MockRegistryClient{
		byKind: make(map[string][]domain.HACCPItem),
		byName: make(map[string][]domain.HACCPItem),
	}
}

func (m *MockRegistryClient) SearchByKind(ctx context.Context, kind string, pageNo, numOfRows int) (*domain.HACCPSearchResponse, error) {
	m.kindCalls = append(m.kindCalls, kind)
	if m.err != nil {
		return nil, m.err
	}
	items := m.byKind[kind]
	return &domain.HACCPSearchResponse{Items: items, TotalCount: len(items)}, nil
}

func (m *MockRegistryClient) SearchByProductName(ctx context.Context, name string, pageNo, numOfRows int) (*domain.HACCPSearchResponse, error) {
	m.nameCalls = append(m.nameCalls, name)
	if m.err != nil {
		return nil, m.err
	}
	items := m.byName[name]
	return &domain.HACCPSearchResponse{Items: items, TotalCount: len(items)}, nil
}

func (m *MockRegistryClient) calls() int {
	return len(m.kindCalls) + len(m.nameCalls)
}

// MockCandidateGenerator is a mock implementation of domain.CandidateGenerator.
// Prompts mentioning raw materials get relatedResult, every other prompt gets namesResult.
type MockCandidateGenerator struct {
	namesResult   []string
	relatedResult []string
	err           error
	prompts       []string
}

func (m *MockCandidateGenerator) Generate(ctx context.Context, prompt string) ([]string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	if strings.Contains(prompt, "원재료:") {
		return m.relatedResult, nil
	}
	return m.namesResult, nil
}

// MockCaseRepository is a mock implementation of domain.CaseRepository
type MockCaseRepository struct {
	saved      []domain.NonconformingCase
	saveError  error
	saveCalled int
}

func (m *MockCaseRepository) SaveAll(ctx context.Context, cases []domain.NonconformingCase) error {
	m.saveCalled++
	if m.saveError != nil {
		return m.saveError
	}
	m.saved = append(m.saved, cases...)
	return nil
}

func (m *MockCaseRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]domain.NonconformingCase, error) {
	out := []domain.NonconformingCase{}
	for _, c := range m.saved {
		if c.RecipeID == recipeID {
			out = append(out, c)
		}
	}
	return out, nil
}

const (
	testProduceCSV = "식품명,데이터구분명,대표식품명,식품중분류명,식품소분류명\n" +
		"대파,원재료성 식품,파,채소류,파\n" +
		"우유,원재료성 식품,우유,유류,우유\n" +
		"돼지고기,원재료성 식품,돼지고기,육류,돼지\n"

	testSeafoodCSV = "데이터구분명,대표식품명,식품대분류명,식품중분류명\n" +
		"원재료성 식품,새우,수산물,갑각류\n" +
		"원재료성 식품,오징어,수산물,연체류\n" +
		"원재료성 식품,미역,수산물,해조류\n" +
		"원재료성 식품,고등어,수산물,어류\n"

	testProcessedCSV = "식품명,대표식품명,식품중분류명,식품소분류명,알레르기유발물질\n" +
		"카레,카레,조미식품,카레,\"밀, 우유\"\n" +
		"떡볶이떡,떡,떡류,가래떡,\n" +
		"떡국떡,떡,떡류,떡국떡,\n"

	testObligationsCSV = "country_code,allergen\n" +
		"US,Milk\nUS,Eggs\nUS,Fish\nUS,Crustacean shellfish\nUS,Tree nuts\n" +
		"US,Wheat\nUS,Peanuts\nUS,Soybeans\nUS,Sesame\n" +
		"KR,Milk\nKR,Eggs\nKR,Wheat\nKR,Soybeans\nKR,Crustaceans\nKR,Shrimp\nKR,Crab\nKR,Squid\nKR,Pork\n"

	testCaseSearchCSV = "case_id,country,ingredient_keyword,ingredient_type\n" +
		"C1,US,kimchi stew,FINISHED_PRODUCT\n" +
		"C2,US,pork belly,RAW_MATERIAL\n" +
		"C3,JP,red pepper paste,PROCESSED_INGREDIENT\n" +
		"C4,US,kimchi,RAW_MATERIAL\n" +
		"C9,US,tofu,RAW_MATERIAL\n"

	testCaseInfoCSV = "case_id,country,announcement_date,ingredient,violation_reason,action\n" +
		"C1,US,2024-01-10,kimchi stew,Undeclared shrimp,Recall\n" +
		"C2,US,2024-02-02,pork belly,Veterinary drug residue,Rejected\n" +
		"C3,JP,2023-11-05,red pepper paste,Aflatoxin,Destroyed\n" +
		"C4,US,2024-03-03,kimchi,Undeclared sulfites,Detained\n"
)

// loadTestCatalogs writes a small set of reference tables and loads them
func loadTestCatalogs(t *testing.T) *catalog.Catalogs {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	cfg := config.CatalogConfig{
		RawProducePath:     write("produce.csv", testProduceCSV),
		SeafoodPath:        write("seafood.csv", testSeafoodCSV),
		ProcessedFoodsPath: write("processed.csv", testProcessedCSV),
		ObligationsPath:    write("obligations.csv", testObligationsCSV),
		CaseSearchPath:     write("case_search.csv", testCaseSearchCSV),
		CaseInfoPath:       write("case_info.csv", testCaseInfoCSV),
	}

	catalogs, err := catalog.Load(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	return catalogs
}

var usObligation = []string{"Milk", "Eggs", "Fish", "Crustacean shellfish", "Tree nuts", "Wheat", "Peanuts", "Soybeans", "Sesame"}
