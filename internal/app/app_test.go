package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	data := filepath.Join("..", "..", "data")
	return &config.Config{
		HACCP: config.HACCPConfig{BaseURL: "http://127.0.0.1:1"},
		Catalog: config.CatalogConfig{
			RawProducePath:     filepath.Join(data, "raw_produce_catalog.csv"),
			SeafoodPath:        filepath.Join(data, "raw_produce_seafood_catalog.csv"),
			ProcessedFoodsPath: filepath.Join(data, "processed_foods_catalog.csv"),
			ObligationsPath:    filepath.Join(data, "allergen_obligations.csv"),
			CaseSearchPath:     filepath.Join(data, "recipe_inspection_basis_search.csv"),
			CaseInfoPath:       filepath.Join(data, "regulatory_cases.csv"),
		},
		Cache:    config.CacheConfig{Type: "memory"},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "audit.db")},
	}
}

func TestNew(t *testing.T) {
	application, err := New(testConfig(t), zap.NewNop(), Options{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, application.Close()) }()

	require.NotNil(t, application.Allergens)
	require.NotNil(t, application.Cases)
	require.NotNil(t, application.Progress)

	ctx := context.Background()

	resp, err := application.Allergens.Analyze(ctx, &domain.AnalysisRequest{Recipe: "새우볶음: 새우, 간장", TargetCountry: "US"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Crustacean shellfish", "Soybeans", "Wheat"}, resp.FinalMatchedAllergens)

	recipeID := int64(1)
	cases, err := application.Cases.FindCases(ctx, &domain.CaseRequest{RecipeID: &recipeID, Recipe: "kimchi: napa cabbage"})
	require.NoError(t, err)
	assert.Len(t, cases.ProductCases.Cases, 1)

	history, err := application.Cases.History(ctx, recipeID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestNew_WithoutDatabase(t *testing.T) {
	application, err := New(testConfig(t), zap.NewNop(), Options{WithoutDatabase: true})
	require.NoError(t, err)
	defer application.Close()

	history, err := application.Cases.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing catalog", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Catalog.ObligationsPath = filepath.Join(t.TempDir(), "missing.csv")

		_, err := New(cfg, zap.NewNop(), Options{WithoutDatabase: true})
		assert.ErrorIs(t, err, domain.ErrCatalogLoad)
	})

	t.Run("unknown cache type", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cache.Type = "memcached"

		_, err := New(cfg, zap.NewNop(), Options{WithoutDatabase: true})
		assert.Error(t, err)
	})

	t.Run("unknown database driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Driver = "oracle"

		_, err := New(cfg, zap.NewNop(), Options{})
		assert.Error(t, err)
	})
}
