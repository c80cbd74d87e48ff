package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCatalogLoad is returned when a reference catalog cannot be read or parsed
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrMissingColumn is returned when a catalog header lacks a required column
	ErrMissingColumn = errors.New("required catalog column missing")

	// ErrRegistryFailure is returned when the HACCP registry request fails
	ErrRegistryFailure = errors.New("HACCP registry request failed")

	// ErrRegistryMalformed is returned when the HACCP registry answers with a body that is not XML
	ErrRegistryMalformed = errors.New("HACCP registry returned a malformed response")

	// ErrAIFailure is returned when the candidate generator request fails
	ErrAIFailure = errors.New("AI candidate request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
