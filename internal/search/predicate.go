// Package search models a search request as a backend-agnostic predicate.
// The resolver turns partially-specified filter parameters into one
// fully-specified Plan; each backend (relational, inverted index) compiles the
// same Plan, so the two paths cannot drift apart.
package search

import (
	"time"

	"digiarchive/internal/model"
)

// Cond is one condition of the filter predicate. Conditions are combined by
// conjunction; there is no OR at the top level.
type Cond interface{ cond() }

// TextCond matches documents whose searchable text contains every token.
// A token matches when any word of the title, reference number, description,
// extracted text, folder name or tag names contains it, case-insensitively.
type TextCond struct {
	Tokens []string
}

// DepartmentCond restricts to one department.
type DepartmentCond struct {
	ID string
}

// FolderCond restricts to one folder.
type FolderCond struct {
	ID string
}

// TagCond matches documents carrying any of the given tags.
type TagCond struct {
	IDs []string
}

// TypeCond restricts to one document type.
type TypeCond struct {
	Type model.DocumentType
}

// DateCond restricts the document date to an inclusive range. Either bound
// may be nil.
type DateCond struct {
	From *time.Time
	To   *time.Time
}

// OCRCond restricts on the OCR-processed flag.
type OCRCond struct {
	Processed bool
}

// UploaderCond restricts to documents uploaded by one identity.
type UploaderCond struct {
	ID string
}

func (TextCond) cond()       {}
func (DepartmentCond) cond() {}
func (FolderCond) cond()     {}
func (TagCond) cond()        {}
func (TypeCond) cond()       {}
func (DateCond) cond()       {}
func (OCRCond) cond()        {}
func (UploaderCond) cond()   {}

// Predicate is a conjunction of conditions.
type Predicate struct {
	Conds []Cond
}

// SortKey names a supported ordering.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortDate      SortKey = "date"
	SortTitle     SortKey = "title"
	SortRelevance SortKey = "relevance"
)

// Sort is a fully-specified ordering. Every ordering carries an implicit
// id DESC tiebreak so that equal keys still yield a deterministic sequence.
type Sort struct {
	Key  SortKey
	Desc bool
}

// Backend names a search execution path.
type Backend string

const (
	BackendRelational Backend = "relational"
	BackendIndex      Backend = "index"
)

// Plan is a deterministic, fully-specified search: the same Plan compiled by
// either backend yields the same document set and ordering.
type Plan struct {
	Pred   Predicate
	Sort   Sort
	Tokens []string
	Offset int
	Limit  int
}

// Result is the raw outcome of a backend query: an ordered page of document
// ids plus the total match count.
type Result struct {
	IDs   []string
	Total int
}
