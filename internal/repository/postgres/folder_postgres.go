package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// FolderPostgres is a PostgreSQL implementation of repository.FolderRepository.
type FolderPostgres struct {
	db *sql.DB
}

// NewFolderPostgres creates a new FolderPostgres repository.
func NewFolderPostgres(db *sql.DB) *FolderPostgres {
	return &FolderPostgres{db: db}
}

var _ repository.FolderRepository = (*FolderPostgres)(nil)

const folderColumns = "id, name, department_id, parent_id, description, created_at, updated_at"

func scanFolder(row interface{ Scan(...any) error }) (*model.Folder, error) {
	var f model.Folder
	var parent sql.NullString
	if err := row.Scan(&f.ID, &f.Name, &f.DepartmentID, &parent, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ParentID = strPtr(parent)
	return &f, nil
}

// Create inserts a new folder row and returns the stored record.
func (r *FolderPostgres) Create(ctx context.Context, f *model.Folder) (*model.Folder, error) {
	const q = `
		INSERT INTO folders (id, name, department_id, parent_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + folderColumns
	row := r.db.QueryRowContext(ctx, q, f.ID, f.Name, f.DepartmentID, nullStr(f.ParentID), f.Description, f.CreatedAt)
	out, err := scanFolder(row)
	if err != nil {
		return nil, uniqueViolation(err, "name")
	}
	return out, nil
}

// FindByID fetches a single folder by its ID.
func (r *FolderPostgres) FindByID(ctx context.Context, id string) (*model.Folder, error) {
	const q = `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	out, err := scanFolder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if IsNoRowsError(err) {
			return nil, apperr.NotFound("folder", id)
		}
		return nil, err
	}
	return out, nil
}

// ListByDepartment returns the department's folders ordered by name.
func (r *FolderPostgres) ListByDepartment(ctx context.Context, departmentID string) ([]model.Folder, error) {
	const q = `SELECT ` + folderColumns + ` FROM folders WHERE department_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

// Update rewrites a folder row. A department change is applied to the
// folder's documents inside the same transaction, so the folder/department
// pairing invariant holds for every committed document. Subfolders block a
// department change because they would be left pointing across departments.
func (r *FolderPostgres) Update(ctx context.Context, f *model.Folder) (*model.Folder, []string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var currentDept string
	err = tx.QueryRowContext(ctx, `SELECT department_id FROM folders WHERE id = $1 FOR UPDATE`, f.ID).Scan(&currentDept)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, nil, apperr.NotFound("folder", f.ID)
		}
		return nil, nil, err
	}

	moved := make([]string, 0)
	if currentDept != f.DepartmentID {
		var subfolders int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders WHERE parent_id = $1`, f.ID).Scan(&subfolders); err != nil {
			return nil, nil, err
		}
		if subfolders > 0 {
			return nil, nil, &apperr.HasDependentsError{
				Entity:     "folder",
				ID:         f.ID,
				Dependents: []string{fmt.Sprintf("%d subfolders", subfolders)},
			}
		}
		rows, err := tx.QueryContext(ctx,
			`UPDATE documents SET department_id = $2, updated_at = now() WHERE folder_id = $1 RETURNING id`,
			f.ID, f.DepartmentID)
		if err != nil {
			return nil, nil, err
		}
		for rows.Next() {
			var docID string
			if err := rows.Scan(&docID); err != nil {
				rows.Close()
				return nil, nil, err
			}
			moved = append(moved, docID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
	}

	const q = `
		UPDATE folders
		SET name = $2, department_id = $3, parent_id = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + folderColumns
	row := tx.QueryRowContext(ctx, q, f.ID, f.Name, f.DepartmentID, nullStr(f.ParentID), f.Description)
	out, err := scanFolder(row)
	if err != nil {
		return nil, nil, uniqueViolation(err, "name")
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return out, moved, nil
}

// Delete removes a folder. Subfolders block the delete. By default the folder
// reference on its documents is nulled (the derived department stays); with
// cascade the documents themselves are deleted. Returns ids of affected
// documents so the caller can re-index or drop them.
func (r *FolderPostgres) Delete(ctx context.Context, id string, cascade bool) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var subfolders int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders WHERE parent_id = $1`, id).Scan(&subfolders); err != nil {
		return nil, err
	}
	if subfolders > 0 {
		return nil, &apperr.HasDependentsError{
			Entity:     "folder",
			ID:         id,
			Dependents: []string{fmt.Sprintf("%d subfolders", subfolders)},
		}
	}

	affected := make([]string, 0)
	rows, err := tx.QueryContext(ctx, `SELECT id FROM documents WHERE folder_id = $1`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var docID string
		if err := rows.Scan(&docID); err != nil {
			rows.Close()
			return nil, err
		}
		affected = append(affected, docID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cascade {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE folder_id = $1`, id); err != nil {
			return nil, err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET folder_id = NULL, updated_at = now() WHERE folder_id = $1`, id); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("folder", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return affected, nil
}
