// Package cache provides a read-through cache for hydrated documents.
// The cache is strictly an optimization: every path must behave identically
// with the Noop implementation.
package cache

import (
	"context"

	"digiarchive/internal/model"
)

// DocumentCache caches hydrated documents by id.
type DocumentCache interface {
	// Get returns the cached document, or nil when absent. Cache errors are
	// swallowed by implementations; a failing cache reads as a miss.
	Get(ctx context.Context, id string) *model.Document
	// Set stores the document with the configured TTL.
	Set(ctx context.Context, doc *model.Document)
	// Invalidate drops the cached entry for id.
	Invalidate(ctx context.Context, id string)
}

// Noop is a DocumentCache that caches nothing.
type Noop struct{}

func (Noop) Get(ctx context.Context, id string) *model.Document { return nil }
func (Noop) Set(ctx context.Context, doc *model.Document)       {}
func (Noop) Invalidate(ctx context.Context, id string)          {}
