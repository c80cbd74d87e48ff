// Package app assembles catalogs, infrastructure clients and services from configuration.
// The HTTP server and the CLI share it.
package app

import (
	"errors"
	"fmt"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/catalog"
	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/infrastructure/cache"
	"github.com/allerscan/backend/internal/infrastructure/haccp"
	"github.com/allerscan/backend/internal/infrastructure/openai"
	"github.com/allerscan/backend/internal/infrastructure/persistence"
	"github.com/allerscan/backend/internal/pkg/logger"
	"github.com/allerscan/backend/internal/usecase"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired services and the resources they own
type App struct {
	Catalogs  *catalog.Catalogs
	Progress  *usecase.ProgressTracker
	Allergens *usecase.AllergenService
	Cases     *usecase.CaseService

	cache cache.Store
	db    *gorm.DB
}

// Options selects optional parts of the wiring
type Options struct {
	// WithoutDatabase skips the audit store; matched cases are then not persisted
	WithoutDatabase bool
}

// New loads the catalogs and wires every service. A catalog failure is returned as is so callers can abort.
func New(cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	catalogs, err := catalog.Load(cfg.Catalog, log.Named("catalog"))
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.Cache, log.Named("cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	registry := haccp.NewClient(haccp.Config{
		ServiceKey: cfg.HACCP.ServiceKey,
		BaseURL:    cfg.HACCP.BaseURL,
		RatePerSec: cfg.HACCP.RatePerSec,
		Burst:      cfg.HACCP.Burst,
		Timeout:    cfg.HACCP.Timeout,
	}, log.Named("haccp"))
	log.Info("[App] HACCP registry configured",
		zap.String("base_url", cfg.HACCP.BaseURL),
		zap.String("service_key", logger.MaskSecret(cfg.HACCP.ServiceKey)),
	)

	// the interface stays nil, not a typed nil pointer, when AI expansion is off
	var generator domain.CandidateGenerator
	if cfg.OpenAI.Enabled() {
		generator = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		}, log.Named("openai"))
		log.Info("[App] AI candidate expansion enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		log.Warn("[App] AI candidate expansion disabled (no OpenAI API key)")
	}

	var (
		db       *gorm.DB
		caseRepo domain.CaseRepository
	)
	if !opts.WithoutDatabase {
		db, err = persistence.Open(cfg.Database, log.Named("database"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		caseRepo = persistence.NewCaseRepository(db)
	}

	matcher := usecase.NewAllergenMatcher()
	evidence := usecase.NewEvidenceService(
		registry,
		generator,
		store,
		matcher,
		catalogs.ProcessedFoods,
		log.Named("evidence"),
		usecase.EvidenceServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	progress := usecase.NewProgressTracker()

	return &App{
		Catalogs:  catalogs,
		Progress:  progress,
		Allergens: usecase.NewAllergenService(catalogs, matcher, evidence, progress, log.Named("analysis")),
		Cases:     usecase.NewCaseService(catalogs.Cases, caseRepo, log.Named("cases")),
		cache:     store,
		db:        db,
	}, nil
}

// Close releases the cache and database
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, persistence.Close(a.db))
	}
	return errors.Join(errs...)
}
