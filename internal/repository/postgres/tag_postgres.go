package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db *sql.DB
}

// NewTagPostgres creates a new TagPostgres repository.
func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

// Create inserts a new tag row and returns the stored record.
func (r *TagPostgres) Create(ctx context.Context, t *model.Tag) (*model.Tag, error) {
	const q = `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, name, created_at
	`
	var out model.Tag
	if err := r.db.QueryRowContext(ctx, q, t.ID, t.Name, t.CreatedAt).Scan(&out.ID, &out.Name, &out.CreatedAt); err != nil {
		return nil, uniqueViolation(err, "name")
	}
	return &out, nil
}

// FindByID fetches a single tag by its ID.
func (r *TagPostgres) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	const q = `SELECT id, name, created_at FROM tags WHERE id = $1`
	var t model.Tag
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		if IsNoRowsError(err) {
			return nil, apperr.NotFound("tag", id)
		}
		return nil, err
	}
	return &t, nil
}

// FindByIDs returns the tags for the given ids, ordered by name. Missing ids
// are simply absent from the result; callers compare lengths to detect them.
func (r *TagPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `SELECT id, name, created_at FROM tags WHERE id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Tag, 0, len(ids))
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// List returns all tags ordered by name.
func (r *TagPostgres) List(ctx context.Context) ([]model.Tag, error) {
	const q = `SELECT id, name, created_at FROM tags ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Delete removes a tag; document links go with it via the join table cascade.
func (r *TagPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("tag", id)
	}
	return nil
}

// SuggestNames returns tag names matching the partial query.
func (r *TagPostgres) SuggestNames(ctx context.Context, q string, limit int) ([]repository.Suggestion, error) {
	const query = `SELECT DISTINCT name FROM tags WHERE name ILIKE $1 ORDER BY name ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, "%"+q+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]repository.Suggestion, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, repository.Suggestion{Text: name, Type: "tag"})
	}
	return out, rows.Err()
}
