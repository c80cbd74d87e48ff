package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RegistryClient defines the interface for the HACCP certified product registry.
// Both queries return an empty response, not an error, when nothing matches.
type RegistryClient interface {
	SearchByKind(ctx context.Context, kind string, pageNo, numOfRows int) (*HACCPSearchResponse, error)
	SearchByProductName(ctx context.Context, name string, pageNo, numOfRows int) (*HACCPSearchResponse, error)
}

// CandidateGenerator turns a text prompt into a list of short strings.
// It is the only AI capability the analysis depends on.
type CandidateGenerator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// CaseRepository persists matched regulatory cases for auditing
type CaseRepository interface {
	SaveAll(ctx context.Context, cases []NonconformingCase) error
	ListByRecipe(ctx context.Context, recipeID int64) ([]NonconformingCase, error)
}
