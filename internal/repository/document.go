package repository

import (
	"context"

	"digiarchive/internal/model"
	"digiarchive/internal/search"
)

// DocumentRepository defines data access for documents.
//
// Create and Update run inside a single transaction scoped to the document.
// When a folder is assigned, the folder row is share-locked and the document's
// department is taken from it inside that transaction, so a concurrent folder
// move can never commit a folder/department pair that disagrees.
type DocumentRepository interface {
	// Create inserts a new document row plus its tag links.
	Create(ctx context.Context, doc *model.Document, tagIDs []string) (*model.Document, error)

	// FindByID returns a document with tags and folder department hydrated.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDs returns the documents for ids, hydrated, preserving the input
	// order. Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]model.Document, error)

	// Update rewrites the document row and replaces its tag links.
	Update(ctx context.Context, doc *model.Document, tagIDs []string) (*model.Document, error)

	// Delete removes a document and its tag links.
	Delete(ctx context.Context, id string) error

	// Search executes a resolved plan against the relational store and
	// returns the ordered id page plus the total match count.
	Search(ctx context.Context, plan *search.Plan) (*search.Result, error)

	// ListIDsAfter pages through all document ids in ascending id order,
	// returning up to limit ids greater than afterID. Used by index rebuild.
	ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)

	// SweepInconsistent returns the ids of documents whose folder's
	// department differs from the document's department. Read-only.
	SweepInconsistent(ctx context.Context) ([]string, error)

	// ReconcileDepartment sets the document's department from its folder, in
	// one statement, and returns the updated document. Idempotent; a document
	// without a folder is returned unchanged.
	ReconcileDepartment(ctx context.Context, id string) (*model.Document, error)

	// CountByFolder returns document counts keyed by folder id for one
	// department.
	CountByFolder(ctx context.Context, departmentID string) (map[string]int, error)

	// CountByDepartment returns the number of documents directly assigned to
	// the department.
	CountByDepartment(ctx context.Context, departmentID string) (int, error)

	// Suggest returns title and reference-number suggestions for a partial
	// query.
	Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error)
}
