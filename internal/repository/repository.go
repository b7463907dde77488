package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
// Repositories return apperr error kinds for domain-visible failures and
// contain no business logic beyond the storage-layer invariants they guard.

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Suggestion is one search-suggestion candidate.
type Suggestion struct {
	Text string `json:"text"`
	Type string `json:"type"`
}
