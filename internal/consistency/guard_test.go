package consistency

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/apperr"
	"digiarchive/internal/event"
	"digiarchive/internal/model"
	"digiarchive/internal/repository/mocks"
)

func strp(s string) *string { return &s }

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newGuard(t *testing.T) (*Guard, *mocks.MockDocumentRepository, *mocks.MockFolderRepository) {
	docs := new(mocks.MockDocumentRepository)
	folders := new(mocks.MockFolderRepository)
	t.Cleanup(func() {
		docs.AssertExpectations(t)
		folders.AssertExpectations(t)
	})
	return NewGuard(docs, folders, quietLog()), docs, folders
}

func TestResolveDepartmentNoFolder(t *testing.T) {
	g, _, _ := newGuard(t)

	dept, err := g.ResolveDepartment(context.Background(), strp("dept-1"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, "dept-1", *dept)

	dept, err = g.ResolveDepartment(context.Background(), nil, nil, false)
	require.NoError(t, err)
	assert.Nil(t, dept)
}

func TestResolveDepartmentDerivesFromFolder(t *testing.T) {
	g, _, folders := newGuard(t)
	folders.On("FindByID", mock.Anything, "folder-1").
		Return(&model.Folder{ID: "folder-1", DepartmentID: "dept-1"}, nil)

	dept, err := g.ResolveDepartment(context.Background(), nil, strp("folder-1"), false)
	require.NoError(t, err)
	assert.Equal(t, "dept-1", *dept)
}

func TestResolveDepartmentAgreementPasses(t *testing.T) {
	g, _, folders := newGuard(t)
	folders.On("FindByID", mock.Anything, "folder-1").
		Return(&model.Folder{ID: "folder-1", DepartmentID: "dept-1"}, nil)

	dept, err := g.ResolveDepartment(context.Background(), strp("dept-1"), strp("folder-1"), false)
	require.NoError(t, err)
	assert.Equal(t, "dept-1", *dept)
}

func TestResolveDepartmentMismatchFails(t *testing.T) {
	g, _, folders := newGuard(t)
	folders.On("FindByID", mock.Anything, "folder-1").
		Return(&model.Folder{ID: "folder-1", DepartmentID: "dept-1"}, nil)

	_, err := g.ResolveDepartment(context.Background(), strp("dept-2"), strp("folder-1"), false)
	require.Error(t, err)
	assert.True(t, apperr.IsFolderDepartmentMismatch(err))
}

func TestResolveDepartmentMismatchWithDerive(t *testing.T) {
	g, _, folders := newGuard(t)
	folders.On("FindByID", mock.Anything, "folder-1").
		Return(&model.Folder{ID: "folder-1", DepartmentID: "dept-1"}, nil)

	// The caller accepts the folder's department; the folder wins.
	dept, err := g.ResolveDepartment(context.Background(), strp("dept-2"), strp("folder-1"), true)
	require.NoError(t, err)
	assert.Equal(t, "dept-1", *dept)
}

func TestAuditSweep(t *testing.T) {
	g, docs, _ := newGuard(t)
	docs.On("SweepInconsistent", mock.Anything).Return([]string{"doc-1", "doc-2"}, nil)

	ids, err := g.AuditSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-2"}, ids)
}

func TestReconcileConsistentIsNoOp(t *testing.T) {
	g, docs, _ := newGuard(t)
	doc := &model.Document{
		ID:                 "doc-1",
		FolderID:           strp("folder-1"),
		DepartmentID:       strp("dept-1"),
		FolderDepartmentID: strp("dept-1"),
	}
	docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)

	got, events, err := g.Reconcile(context.Background(), "doc-1", "admin")
	require.NoError(t, err)
	assert.Same(t, doc, got)
	assert.Empty(t, events)
	docs.AssertNotCalled(t, "ReconcileDepartment", mock.Anything, mock.Anything)
}

func TestReconcileRepairs(t *testing.T) {
	g, docs, _ := newGuard(t)
	before := &model.Document{
		ID:                 "doc-1",
		FolderID:           strp("folder-1"),
		DepartmentID:       strp("dept-old"),
		FolderDepartmentID: strp("dept-new"),
	}
	after := &model.Document{
		ID:                 "doc-1",
		FolderID:           strp("folder-1"),
		DepartmentID:       strp("dept-new"),
		FolderDepartmentID: strp("dept-new"),
	}
	docs.On("FindByID", mock.Anything, "doc-1").Return(before, nil)
	docs.On("ReconcileDepartment", mock.Anything, "doc-1").Return(after, nil)

	got, events, err := g.Reconcile(context.Background(), "doc-1", "admin")
	require.NoError(t, err)
	assert.True(t, got.Consistent())

	require.Len(t, events, 1)
	assert.Equal(t, event.DocumentReconciled, events[0].Kind)
	assert.Equal(t, "dept-old", events[0].Payload["department_from"])
	assert.Equal(t, "dept-new", events[0].Payload["department_to"])
}

func TestReconcileWithoutFolderIsNoOp(t *testing.T) {
	g, docs, _ := newGuard(t)
	doc := &model.Document{ID: "doc-1", DepartmentID: strp("dept-1")}
	docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)

	got, events, err := g.Reconcile(context.Background(), "doc-1", "admin")
	require.NoError(t, err)
	assert.Same(t, doc, got)
	assert.Empty(t, events)
}

func TestReconcileUnknownDocument(t *testing.T) {
	g, docs, _ := newGuard(t)
	docs.On("FindByID", mock.Anything, "missing").Return(nil, apperr.NotFound("document", "missing"))

	_, _, err := g.Reconcile(context.Background(), "missing", "admin")
	assert.True(t, apperr.IsNotFound(err))
}
