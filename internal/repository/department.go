package repository

import (
	"context"

	"digiarchive/internal/model"
)

// DepartmentRepository defines data access for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, d *model.Department) (*model.Department, error)
	FindByID(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, d *model.Department) (*model.Department, error)

	// Delete removes a department. It fails with HasDependents while child
	// departments, folders, or directly assigned documents still exist; the
	// check runs in the same transaction as the delete.
	Delete(ctx context.Context, id string) error
}

// FolderRepository defines data access for folders.
type FolderRepository interface {
	Create(ctx context.Context, f *model.Folder) (*model.Folder, error)
	FindByID(ctx context.Context, id string) (*model.Folder, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]model.Folder, error)

	// Update rewrites the folder. Moving a folder to another department
	// updates its documents' department in the same transaction and is
	// refused with HasDependents while subfolders exist. Returns the ids of
	// documents whose department changed.
	Update(ctx context.Context, f *model.Folder) (*model.Folder, []string, error)

	// Delete removes a folder. Subfolders always block the delete. By default
	// the folder reference of its documents is nulled; with cascade the
	// documents are deleted instead. Returns the ids of documents touched.
	Delete(ctx context.Context, id string, cascade bool) ([]string, error)
}

// TagRepository defines data access for tags.
type TagRepository interface {
	Create(ctx context.Context, t *model.Tag) (*model.Tag, error)
	FindByID(ctx context.Context, id string) (*model.Tag, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Delete(ctx context.Context, id string) error

	// SuggestNames returns tag-name suggestions for a partial query.
	SuggestNames(ctx context.Context, q string, limit int) ([]Suggestion, error)
}

// AuditLogRepository appends to and reads the append-only audit trail.
// There is deliberately no update or delete operation.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, pq PageQuery) (*PageResult[model.AuditLog], error)
}
