// Package services defines the business logic for daily item selection and the
// content approval workflow. This file centralizes service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Generator and storage failures keep their own sentinels
// (generator.ErrExternalService, cache.ErrStorage, ...) and are wrapped, not
// replaced, so errors.Is works across layers.
package services

import "errors"

// Selection errors.
var (
	// ErrEmptyCatalog indicates a configuration error: no item can ever be
	// selected, so callers must abort instead of fabricating a result.
	ErrEmptyCatalog = errors.New("catalog is empty")

	// ErrItemNotFound is returned for an item id that is not in the catalog.
	ErrItemNotFound = errors.New("item not found")
)

// Approval workflow errors.
var (
	// ErrValidationFailed indicates generated content failed the quality gate.
	// It is retried inside the workflow and only surfaces wrapped in
	// ErrGenerationExhausted.
	ErrValidationFailed = errors.New("content failed validation")

	// ErrGenerationExhausted is returned when every attempt allowed by the
	// retry policy failed. Nothing is persisted in that case.
	ErrGenerationExhausted = errors.New("generation attempts exhausted")

	// ErrPendingReview is returned to readers while content awaits approval.
	ErrPendingReview = errors.New("content is pending review")

	// ErrEntryNotFound is returned by admin operations on an item that has
	// no cache entry.
	ErrEntryNotFound = errors.New("cache entry not found")
)
