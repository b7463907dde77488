package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// DepartmentPostgres is a PostgreSQL implementation of repository.DepartmentRepository.
type DepartmentPostgres struct {
	db *sql.DB
}

// NewDepartmentPostgres creates a new DepartmentPostgres repository.
func NewDepartmentPostgres(db *sql.DB) *DepartmentPostgres {
	return &DepartmentPostgres{db: db}
}

var _ repository.DepartmentRepository = (*DepartmentPostgres)(nil)

const departmentColumns = "id, name, code, description, parent_id, created_at, updated_at"

func scanDepartment(row interface{ Scan(...any) error }) (*model.Department, error) {
	var d model.Department
	var parent sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &parent, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ParentID = strPtr(parent)
	return &d, nil
}

// Create inserts a new department row and returns the stored record.
func (r *DepartmentPostgres) Create(ctx context.Context, d *model.Department) (*model.Department, error) {
	const q = `
		INSERT INTO departments (id, name, code, description, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + departmentColumns
	row := r.db.QueryRowContext(ctx, q, d.ID, d.Name, d.Code, d.Description, nullStr(d.ParentID), d.CreatedAt)
	out, err := scanDepartment(row)
	if err != nil {
		return nil, uniqueViolation(err, "name/code")
	}
	return out, nil
}

// FindByID fetches a single department by its ID.
func (r *DepartmentPostgres) FindByID(ctx context.Context, id string) (*model.Department, error) {
	const q = `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	out, err := scanDepartment(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if IsNoRowsError(err) {
			return nil, apperr.NotFound("department", id)
		}
		return nil, err
	}
	return out, nil
}

// List returns all departments ordered by name.
func (r *DepartmentPostgres) List(ctx context.Context) ([]model.Department, error) {
	const q = `SELECT ` + departmentColumns + ` FROM departments ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// Update rewrites a department row.
func (r *DepartmentPostgres) Update(ctx context.Context, d *model.Department) (*model.Department, error) {
	const q = `
		UPDATE departments
		SET name = $2, code = $3, description = $4, parent_id = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + departmentColumns
	row := r.db.QueryRowContext(ctx, q, d.ID, d.Name, d.Code, d.Description, nullStr(d.ParentID))
	out, err := scanDepartment(row)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, apperr.NotFound("department", d.ID)
		}
		return nil, uniqueViolation(err, "name/code")
	}
	return out, nil
}

// Delete removes a department after verifying, inside the same transaction,
// that no child departments, folders, or directly assigned documents remain.
func (r *DepartmentPostgres) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var children, folders, documents int
	const qDeps = `
		SELECT
			(SELECT COUNT(*) FROM departments WHERE parent_id = $1),
			(SELECT COUNT(*) FROM folders WHERE department_id = $1),
			(SELECT COUNT(*) FROM documents WHERE department_id = $1)
	`
	if err := tx.QueryRowContext(ctx, qDeps, id).Scan(&children, &folders, &documents); err != nil {
		return err
	}
	if children > 0 || folders > 0 || documents > 0 {
		deps := make([]string, 0, 3)
		if children > 0 {
			deps = append(deps, fmt.Sprintf("%d child departments", children))
		}
		if folders > 0 {
			deps = append(deps, fmt.Sprintf("%d folders", folders))
		}
		if documents > 0 {
			deps = append(deps, fmt.Sprintf("%d documents", documents))
		}
		return &apperr.HasDependentsError{Entity: "department", ID: id, Dependents: deps}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("department", id)
	}
	return tx.Commit()
}
