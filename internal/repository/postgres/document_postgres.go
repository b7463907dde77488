package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/search"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.title, d.document_type, d.department_id, d.folder_id, d.storage_path,
	d.description, d.reference_number, d.doc_date, d.uploaded_by, d.content_text,
	d.is_ocr_processed, d.created_at, d.updated_at, f.department_id`

const documentFrom = ` FROM documents d LEFT JOIN folders f ON f.id = d.folder_id `

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var dept, folder, content, folderDept sql.NullString
	var docType string
	var date sql.NullTime
	if err := row.Scan(&d.ID, &d.Title, &docType, &dept, &folder, &d.StoragePath,
		&d.Description, &d.ReferenceNumber, &date, &d.UploadedBy, &content,
		&d.OCRProcessed, &d.CreatedAt, &d.UpdatedAt, &folderDept); err != nil {
		return nil, err
	}
	d.DocumentType = model.DocumentType(docType)
	d.DepartmentID = strPtr(dept)
	d.FolderID = strPtr(folder)
	d.ContentText = strPtr(content)
	d.Date = timePtr(date)
	d.FolderDepartmentID = strPtr(folderDept)
	d.Tags = []model.Tag{}
	return &d, nil
}

// lockFolderDepartment share-locks the folder row inside tx and returns its
// department. The lock holds until commit, so the returned department cannot
// change under the document write that follows.
func lockFolderDepartment(ctx context.Context, tx *sql.Tx, folderID string) (string, error) {
	var dept string
	err := tx.QueryRowContext(ctx, `SELECT department_id FROM folders WHERE id = $1 FOR SHARE`, folderID).Scan(&dept)
	if err != nil {
		if IsNoRowsError(err) {
			return "", apperr.NotFound("folder", folderID)
		}
		return "", err
	}
	return dept, nil
}

func insertTagLinks(ctx context.Context, tx *sql.Tx, docID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			docID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a document and its tag links in one transaction. When a
// folder is set, the department column is written from the locked folder row,
// never from the caller, which makes the pairing invariant structural.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document, tagIDs []string) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	deptID := doc.DepartmentID
	if doc.FolderID != nil {
		folderDept, err := lockFolderDepartment(ctx, tx, *doc.FolderID)
		if err != nil {
			return nil, err
		}
		deptID = &folderDept
	}

	const q = `
		INSERT INTO documents (id, title, document_type, department_id, folder_id, storage_path,
			description, reference_number, doc_date, uploaded_by, content_text, is_ocr_processed,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	if _, err := tx.ExecContext(ctx, q,
		doc.ID, doc.Title, string(doc.DocumentType), nullStr(deptID), nullStr(doc.FolderID),
		doc.StoragePath, doc.Description, doc.ReferenceNumber, nullTime(doc.Date),
		doc.UploadedBy, nullStr(doc.ContentText), doc.OCRProcessed, doc.CreatedAt,
	); err != nil {
		return nil, uniqueViolation(err, "storage_path")
	}

	if err := insertTagLinks(ctx, tx, doc.ID, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, doc.ID)
}

// Update rewrites the document row and replaces its tag links in one
// transaction, deriving the department from the locked folder row when a
// folder is assigned.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document, tagIDs []string) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	deptID := doc.DepartmentID
	if doc.FolderID != nil {
		folderDept, err := lockFolderDepartment(ctx, tx, *doc.FolderID)
		if err != nil {
			return nil, err
		}
		deptID = &folderDept
	}

	const q = `
		UPDATE documents
		SET title = $2, document_type = $3, department_id = $4, folder_id = $5,
			description = $6, reference_number = $7, doc_date = $8,
			content_text = $9, is_ocr_processed = $10, updated_at = now()
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, q,
		doc.ID, doc.Title, string(doc.DocumentType), nullStr(deptID), nullStr(doc.FolderID),
		doc.Description, doc.ReferenceNumber, nullTime(doc.Date),
		nullStr(doc.ContentText), doc.OCRProcessed,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("document", doc.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, doc.ID); err != nil {
		return nil, err
	}
	if err := insertTagLinks(ctx, tx, doc.ID, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, doc.ID)
}

// FindByID fetches a document with folder department and tags hydrated.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + documentFrom + `WHERE d.id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if IsNoRowsError(err) {
			return nil, apperr.NotFound("document", id)
		}
		return nil, err
	}
	tags, err := r.tagsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	doc.Tags = tags[id]
	if doc.Tags == nil {
		doc.Tags = []model.Tag{}
	}
	return doc, nil
}

// FindByIDs hydrates the given documents, preserving the input order.
func (r *DocumentPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `SELECT ` + documentColumns + documentFrom + `WHERE d.id IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*model.Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok := byID[id]
		if !ok {
			continue
		}
		if t := tags[id]; t != nil {
			doc.Tags = t
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (r *DocumentPostgres) tagsFor(ctx context.Context, docIDs []string) (map[string][]model.Tag, error) {
	placeholders := make([]string, len(docIDs))
	args := make([]any, len(docIDs))
	for i, id := range docIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `
		SELECT dt.document_id, t.id, t.name, t.created_at
		FROM document_tags dt
		JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY t.name ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.Tag)
	for rows.Next() {
		var docID string
		var t model.Tag
		if err := rows.Scan(&docID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out[docID] = append(out[docID], t)
	}
	return out, rows.Err()
}

// Delete removes a document; tag links go via the join table cascade.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("document", id)
	}
	return nil
}

// Search executes the resolved plan against the relational store. Field sorts
// run entirely in SQL; relevance ordering fetches the matched candidates and
// ranks them with the shared scorer so the ordering matches the index path.
func (r *DocumentPostgres) Search(ctx context.Context, plan *search.Plan) (*search.Result, error) {
	where, args := compilePredicate(plan.Pred)

	if plan.Sort.Key == search.SortRelevance && len(plan.Tokens) > 0 {
		return r.searchByRelevance(ctx, plan, where, args)
	}

	var total int
	qCount := `SELECT COUNT(*)` + documentFrom + `WHERE ` + where
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT d.id` + documentFrom + `WHERE ` + where +
		` ORDER BY ` + compileSort(plan.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	listArgs := append(append([]any{}, args...), plan.Limit, plan.Offset)

	rows, err := r.db.QueryContext(ctx, qList, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, plan.Limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &search.Result{IDs: ids, Total: total}, nil
}

type scoredID struct {
	id        string
	score     int
	createdAt sql.NullTime
}

func (r *DocumentPostgres) searchByRelevance(ctx context.Context, plan *search.Plan, where string, args []any) (*search.Result, error) {
	q := `SELECT d.id, d.title, d.reference_number, d.description, COALESCE(d.content_text, ''), d.created_at` +
		documentFrom + `WHERE ` + where
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []scoredID
	for rows.Next() {
		var s scoredID
		var title, ref, desc, content string
		if err := rows.Scan(&s.id, &title, &ref, &desc, &content, &s.createdAt); err != nil {
			return nil, err
		}
		s.score = search.Score(plan.Tokens, search.Fields{
			Title:       title,
			Content:     content,
			Reference:   ref,
			Description: desc,
		})
		candidates = append(candidates, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].createdAt.Time.Equal(candidates[j].createdAt.Time) {
			return candidates[i].createdAt.Time.After(candidates[j].createdAt.Time)
		}
		return candidates[i].id > candidates[j].id
	})

	total := len(candidates)
	start := plan.Offset
	if start > total {
		start = total
	}
	end := start + plan.Limit
	if end > total {
		end = total
	}
	ids := make([]string, 0, end-start)
	for _, c := range candidates[start:end] {
		ids = append(ids, c.id)
	}
	return &search.Result{IDs: ids, Total: total}, nil
}

// ListIDsAfter pages all document ids in ascending id order.
func (r *DocumentPostgres) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	const q = `SELECT id FROM documents WHERE id > $1 ORDER BY id ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SweepInconsistent returns ids of documents whose folder and department
// assignments disagree. IS DISTINCT FROM also catches documents that have a
// folder but no department at all.
func (r *DocumentPostgres) SweepInconsistent(ctx context.Context) ([]string, error) {
	const q = `
		SELECT d.id
		FROM documents d
		JOIN folders f ON f.id = d.folder_id
		WHERE d.department_id IS DISTINCT FROM f.department_id
		ORDER BY d.id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReconcileDepartment repairs one document from its folder in a single
// idempotent statement. Documents without a folder are returned unchanged.
func (r *DocumentPostgres) ReconcileDepartment(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		UPDATE documents d
		SET department_id = f.department_id, updated_at = now()
		FROM folders f
		WHERE d.id = $1 AND d.folder_id = f.id
			AND d.department_id IS DISTINCT FROM f.department_id
	`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// CountByFolder returns per-folder document counts for a department.
func (r *DocumentPostgres) CountByFolder(ctx context.Context, departmentID string) (map[string]int, error) {
	const q = `
		SELECT folder_id, COUNT(*)
		FROM documents
		WHERE department_id = $1 AND folder_id IS NOT NULL
		GROUP BY folder_id
	`
	rows, err := r.db.QueryContext(ctx, q, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var folderID string
		var n int
		if err := rows.Scan(&folderID, &n); err != nil {
			return nil, err
		}
		out[folderID] = n
	}
	return out, rows.Err()
}

// CountByDepartment returns the number of documents in the department.
func (r *DocumentPostgres) CountByDepartment(ctx context.Context, departmentID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE department_id = $1`, departmentID).Scan(&n)
	return n, err
}

// Suggest returns document title and reference-number suggestions.
func (r *DocumentPostgres) Suggest(ctx context.Context, q string, limit int) ([]repository.Suggestion, error) {
	like := "%" + q + "%"
	out := make([]repository.Suggestion, 0, limit)

	const qTitles = `SELECT DISTINCT title FROM documents WHERE title ILIKE $1 ORDER BY title ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, qTitles, like, limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, repository.Suggestion{Text: title, Type: "document_title"})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qRefs = `
		SELECT DISTINCT reference_number FROM documents
		WHERE reference_number <> '' AND reference_number ILIKE $1
		ORDER BY reference_number ASC LIMIT $2`
	rows, err = r.db.QueryContext(ctx, qRefs, like, limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, repository.Suggestion{Text: ref, Type: "reference_number"})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
