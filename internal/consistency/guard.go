// Package consistency enforces the folder/department pairing invariant: a
// document's folder, when set, always belongs to the document's department.
// Violations are surfaced to the caller at write time and repaired only
// through the explicit, idempotent reconcile operation.
package consistency

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"digiarchive/internal/apperr"
	"digiarchive/internal/event"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

var tracer = otel.Tracer("digiarchive/consistency")

// Guard validates department/folder pairings and runs the sweep/reconcile
// repair cycle.
type Guard struct {
	docs    repository.DocumentRepository
	folders repository.FolderRepository
	log     *logrus.Logger
}

// NewGuard creates a Guard over the given repositories.
func NewGuard(docs repository.DocumentRepository, folders repository.FolderRepository, log *logrus.Logger) *Guard {
	return &Guard{docs: docs, folders: folders, log: log}
}

// ResolveDepartment computes the canonical department for a document write.
//
// With a folder, the folder's department is authoritative. An explicit
// department that disagrees with it fails with FolderDepartmentMismatch
// unless the caller set deriveFromFolder, which states the intent to accept
// the folder-derived value. Without a folder the explicit department passes
// through unchanged; the guard never guesses a department from anything else.
func (g *Guard) ResolveDepartment(ctx context.Context, explicitDeptID *string, folderID *string, deriveFromFolder bool) (*string, error) {
	if folderID == nil {
		return explicitDeptID, nil
	}
	folder, err := g.folders.FindByID(ctx, *folderID)
	if err != nil {
		return nil, err
	}
	if explicitDeptID != nil && *explicitDeptID != folder.DepartmentID && !deriveFromFolder {
		return nil, &apperr.FolderDepartmentMismatchError{
			FolderID:           folder.ID,
			FolderDepartmentID: folder.DepartmentID,
			DepartmentID:       *explicitDeptID,
		}
	}
	dept := folder.DepartmentID
	return &dept, nil
}

// AuditSweep scans all documents and returns the ids of those whose folder's
// department differs from the document's own. It never mutates; repair is
// the separate Reconcile operation.
func (g *Guard) AuditSweep(ctx context.Context) ([]string, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "consistency.AuditSweep")
	defer span.End()

	ids, err := g.docs.SweepInconsistent(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("documents.inconsistent", len(ids)))
	if len(ids) > 0 {
		g.log.WithField("count", len(ids)).Warn("audit sweep found inconsistent documents")
	}
	return ids, nil
}

// Reconcile repairs a single document by setting its department from its
// folder. Idempotent: reconciling an already consistent document changes
// nothing. Returns the document and the events describing what changed.
func (g *Guard) Reconcile(ctx context.Context, docID, actor string) (*model.Document, []event.Event, error) {
	before, err := g.docs.FindByID(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if before.FolderID == nil || before.Consistent() {
		return before, nil, nil
	}

	after, err := g.docs.ReconcileDepartment(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	payload := map[string]any{
		"folder_id": *after.FolderID,
	}
	if before.DepartmentID != nil {
		payload["department_from"] = *before.DepartmentID
	}
	if after.DepartmentID != nil {
		payload["department_to"] = *after.DepartmentID
	}
	events := []event.Event{event.New(event.DocumentReconciled, after.ID, actor, payload)}
	return after, events, nil
}
