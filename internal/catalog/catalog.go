// Package catalog loads the static reference tables the analysis runs against.
// Every catalog is built once and is safe for concurrent reads afterwards.
package catalog

import (
	"github.com/allerscan/backend/config"
	"go.uber.org/zap"
)

// Catalogs bundles every reference table. Services receive it by pointer and never modify it.
type Catalogs struct {
	RawProduce     *RawProduceCatalog
	ProcessedFoods *ProcessedFoodsCatalog
	Obligations    *Obligations
	Cases          *CaseIndex
}

// Load reads all reference tables. Any failure is returned and the caller is expected to abort.
func Load(cfg config.CatalogConfig, logger *zap.Logger) (*Catalogs, error) {
	raw, err := LoadRawProduce(cfg.RawProducePath, cfg.SeafoodPath)
	if err != nil {
		return nil, err
	}
	processed, err := LoadProcessedFoods(cfg.ProcessedFoodsPath)
	if err != nil {
		return nil, err
	}
	obligations, err := LoadObligations(cfg.ObligationsPath)
	if err != nil {
		return nil, err
	}
	cases, err := LoadCaseIndex(cfg.CaseSearchPath, cfg.CaseInfoPath)
	if err != nil {
		return nil, err
	}

	produceKeys, seafoodKeys := raw.Size()
	caseRows, caseRecords := cases.Size()
	logger.Info("[Catalog] Reference data loaded",
		zap.Int("raw_produce_keys", produceKeys),
		zap.Int("seafood_keys", seafoodKeys),
		zap.Int("processed_foods", processed.Size()),
		zap.Int("countries", obligations.Countries()),
		zap.Int("case_rows", caseRows),
		zap.Int("cases", caseRecords),
	)

	return &Catalogs{
		RawProduce:     raw,
		ProcessedFoods: processed,
		Obligations:    obligations,
		Cases:          cases,
	}, nil
}
