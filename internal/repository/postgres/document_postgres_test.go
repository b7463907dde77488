package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
)

var docTestColumns = []string{
	"id", "title", "document_type", "department_id", "folder_id", "storage_path",
	"description", "reference_number", "doc_date", "uploaded_by", "content_text",
	"is_ocr_processed", "created_at", "updated_at", "folder_department_id",
}

func docRow(id, dept, folder string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(docTestColumns).AddRow(
		id, "Invoice March", "invoice", dept, nullableStr(folder), "documents/"+id+".pdf",
		"", "INV-9", nil, "alice", nil, false, now, now, nullableStr(dept),
	)
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func expectFindByID(mock sqlmock.Sqlmock, id, dept, folder string, now time.Time) {
	mock.ExpectQuery(`SELECT d\.id, d\.title`).
		WithArgs(id).
		WillReturnRows(docRow(id, dept, folder, now))
	mock.ExpectQuery(`SELECT dt\.document_id, t\.id, t\.name`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "id", "name", "created_at"}).
			AddRow(id, "tag-1", "finance", now))
}

func TestDocumentCreateDerivesDepartmentFromFolder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	now := time.Now()
	folderID := "folder-1"
	doc := &model.Document{
		ID:           "doc-1",
		Title:        "Invoice March",
		DocumentType: model.TypeInvoice,
		FolderID:     &folderID,
		StoragePath:  "documents/doc-1.pdf",
		UploadedBy:   "alice",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT department_id FROM folders WHERE id = \$1 FOR SHARE`).
		WithArgs(folderID).
		WillReturnRows(sqlmock.NewRows([]string{"department_id"}).AddRow("dept-99"))
	// department must come from the locked folder row, not the caller
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("doc-1", "Invoice March", "invoice", "dept-99", folderID,
			"documents/doc-1.pdf", "", "", sqlmock.AnyArg(), "alice",
			sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO document_tags`).
		WithArgs("doc-1", "tag-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectFindByID(mock, "doc-1", "dept-99", folderID, now)

	out, err := repo.Create(context.Background(), doc, []string{"tag-1"})
	require.NoError(t, err)
	require.NotNil(t, out.DepartmentID)
	assert.Equal(t, "dept-99", *out.DepartmentID)
	require.Len(t, out.Tags, 1)
	assert.Equal(t, "finance", out.Tags[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreateUnknownFolder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	folderID := "ghost"
	doc := &model.Document{ID: "doc-1", Title: "x", DocumentType: model.TypeInvoice, FolderID: &folderID}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT department_id FROM folders WHERE id = \$1 FOR SHARE`).
		WithArgs(folderID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), doc, nil)
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	doc := &model.Document{ID: "missing", Title: "x", DocumentType: model.TypeReport}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), doc, nil)
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), "doc-1"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.True(t, apperr.IsNotFound(repo.Delete(context.Background(), "ghost")))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSweepInconsistent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery(`IS DISTINCT FROM`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1").AddRow("doc-3"))

	ids, err := repo.SweepInconsistent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentReconcileDepartment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	now := time.Now()
	mock.ExpectExec(`UPDATE documents d`).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectFindByID(mock, "doc-1", "dept-2", "folder-1", now)

	out, err := repo.ReconcileDepartment(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NotNil(t, out.DepartmentID)
	assert.Equal(t, "dept-2", *out.DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentFindByIDsPreservesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	now := time.Now()
	rows := sqlmock.NewRows(docTestColumns)
	for _, id := range []string{"doc-1", "doc-2"} {
		rows.AddRow(id, "Invoice March", "invoice", "dept-1", nil, "documents/"+id+".pdf",
			"", "", nil, "alice", nil, false, now, now, nil)
	}
	mock.ExpectQuery(`SELECT d\.id, d\.title`).
		WithArgs("doc-2", "ghost", "doc-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT dt\.document_id, t\.id, t\.name`).
		WithArgs("doc-2", "ghost", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "id", "name", "created_at"}))

	out, err := repo.FindByIDs(context.Background(), []string{"doc-2", "ghost", "doc-1"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "doc-2", out[0].ID)
	assert.Equal(t, "doc-1", out[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCountByFolder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery(`GROUP BY folder_id`).
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"folder_id", "count"}).
			AddRow("folder-1", 3).
			AddRow("folder-2", 1))

	counts, err := repo.CountByFolder(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"folder-1": 3, "folder-2": 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
