package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"digiarchive/internal/apperr"
	"digiarchive/internal/cache"
	"digiarchive/internal/consistency"
	"digiarchive/internal/event"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/storage"
)

// CreateDocumentInput carries the metadata for a new document.
type CreateDocumentInput struct {
	Title           string
	DocumentType    model.DocumentType
	DepartmentID    *string
	FolderID        *string
	TagIDs          []string
	Description     string
	ReferenceNumber string
	Date            *time.Time
	// DeriveDepartment states the caller's intent to accept the folder's
	// department when it conflicts with DepartmentID.
	DeriveDepartment bool
}

// UpdateDocumentInput is a patch: nil fields are left unchanged. Clear flags
// distinguish "unset this" from "leave alone".
type UpdateDocumentInput struct {
	Title            *string
	DocumentType     *model.DocumentType
	DepartmentID     *string
	ClearDepartment  bool
	FolderID         *string
	ClearFolder      bool
	TagIDs           *[]string
	Description      *string
	ReferenceNumber  *string
	Date             *time.Time
	ClearDate        bool
	DeriveDepartment bool
}

// DocumentService defines the document use cases. Mutations return the
// domain events they produced; the transport layer dispatches them.
type DocumentService interface {
	// Upload stores the file in object storage, saves the document in one
	// transaction, and rolls the object back if the save fails.
	Upload(ctx context.Context, caller model.Identity, in CreateDocumentInput, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, []event.Event, error)

	// Get returns a document visible to the caller.
	Get(ctx context.Context, caller model.Identity, id string) (*model.Document, error)

	// Update applies a patch to a document visible to the caller.
	Update(ctx context.Context, caller model.Identity, id string, in UpdateDocumentInput) (*model.Document, []event.Event, error)

	// Delete removes the document and its stored object.
	Delete(ctx context.Context, caller model.Identity, id string) ([]event.Event, error)

	// SetExtractedText records the OCR collaborator's result for a document.
	SetExtractedText(ctx context.Context, id, text string) (*model.Document, []event.Event, error)

	// PresignDownload returns a time-limited download URL for the document's
	// stored object.
	PresignDownload(ctx context.Context, caller model.Identity, id string, expiry time.Duration) (string, error)
}

type documentService struct {
	store       storage.Storage
	repo        repository.DocumentRepository
	tags        repository.TagRepository
	departments repository.DepartmentRepository
	guard       *consistency.Guard
	cache       cache.DocumentCache
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository,
	tags repository.TagRepository, departments repository.DepartmentRepository,
	guard *consistency.Guard, docCache cache.DocumentCache) DocumentService {
	return &documentService{
		store:       store,
		repo:        repo,
		tags:        tags,
		departments: departments,
		guard:       guard,
		cache:       docCache,
	}
}

func (s *documentService) Upload(ctx context.Context, caller model.Identity, in CreateDocumentInput, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, []event.Event, error) {
	if r == nil {
		return nil, nil, apperr.Validation("file", "file is required")
	}
	if in.Title == "" {
		return nil, nil, apperr.Validation("title", "title is required")
	}
	if in.DocumentType == "" {
		in.DocumentType = model.TypeOther
	}
	if !model.ValidDocumentType(in.DocumentType) {
		return nil, nil, apperr.Validation("document_type", fmt.Sprintf("unknown type %q", in.DocumentType))
	}
	if err := s.checkTags(ctx, in.TagIDs); err != nil {
		return nil, nil, err
	}

	deptID, err := s.guard.ResolveDepartment(ctx, in.DepartmentID, in.FolderID, in.DeriveDepartment)
	if err != nil {
		return nil, nil, err
	}
	if deptID != nil && in.FolderID == nil {
		if _, err := s.departments.FindByID(ctx, *deptID); err != nil {
			return nil, nil, err
		}
	}

	// Stored object name is a UUID plus the original extension; the original
	// filename survives only as object metadata.
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", genName))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:              uuid.New().String(),
		Title:           in.Title,
		DocumentType:    in.DocumentType,
		DepartmentID:    deptID,
		FolderID:        in.FolderID,
		StoragePath:     objInfo.Key,
		Description:     in.Description,
		ReferenceNumber: in.ReferenceNumber,
		Date:            in.Date,
		UploadedBy:      caller.UserID,
		CreatedAt:       time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc, in.TagIDs)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, nil, fmt.Errorf("db save failed: %w", err)
	}

	events := []event.Event{event.New(event.DocumentCreated, stored.ID, caller.UserID, map[string]any{
		"title":         stored.Title,
		"document_type": string(stored.DocumentType),
	})}
	return stored, events, nil
}

// Get returns a document by ID, read through the cache. Non-privileged
// callers only see their own uploads; anything else reads as not found.
func (s *documentService) Get(ctx context.Context, caller model.Identity, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("id", "id is required")
	}
	doc := s.cache.Get(ctx, id)
	if doc == nil {
		var err error
		doc, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, doc)
	}
	if !caller.Privileged && doc.UploadedBy != caller.UserID {
		return nil, apperr.NotFound("document", id)
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, caller model.Identity, id string, in UpdateDocumentInput) (*model.Document, []event.Event, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !caller.Privileged && current.UploadedBy != caller.UserID {
		return nil, nil, apperr.NotFound("document", id)
	}

	next := *current
	if in.Title != nil {
		if *in.Title == "" {
			return nil, nil, apperr.Validation("title", "title is required")
		}
		next.Title = *in.Title
	}
	if in.DocumentType != nil {
		if !model.ValidDocumentType(*in.DocumentType) {
			return nil, nil, apperr.Validation("document_type", fmt.Sprintf("unknown type %q", *in.DocumentType))
		}
		next.DocumentType = *in.DocumentType
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.ReferenceNumber != nil {
		next.ReferenceNumber = *in.ReferenceNumber
	}
	if in.ClearDate {
		next.Date = nil
	} else if in.Date != nil {
		next.Date = in.Date
	}
	if in.ClearFolder {
		next.FolderID = nil
	} else if in.FolderID != nil {
		next.FolderID = in.FolderID
	}
	if in.ClearDepartment {
		next.DepartmentID = nil
	} else if in.DepartmentID != nil {
		next.DepartmentID = in.DepartmentID
	}

	// The stored department only counts as explicit when this patch touches
	// it; otherwise a folder move carries the document to the folder's
	// department instead of tripping the mismatch guard on the stale value.
	derive := in.DeriveDepartment
	if in.DepartmentID == nil && !in.ClearDepartment {
		derive = true
	}
	deptID, err := s.guard.ResolveDepartment(ctx, next.DepartmentID, next.FolderID, derive)
	if err != nil {
		return nil, nil, err
	}
	if deptID != nil && next.FolderID == nil && (in.DepartmentID != nil || in.ClearFolder) {
		if _, err := s.departments.FindByID(ctx, *deptID); err != nil {
			return nil, nil, err
		}
	}
	next.DepartmentID = deptID

	tagIDs := current.TagIDs()
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
		if err := s.checkTags(ctx, tagIDs); err != nil {
			return nil, nil, err
		}
	}

	updated, err := s.repo.Update(ctx, &next, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, id)

	events := []event.Event{event.New(event.DocumentUpdated, id, caller.UserID, nil)}
	if moved(current, updated) {
		events = append(events, event.New(event.DocumentMoved, id, caller.UserID, movePayload(current, updated)))
	}
	added, removed := diffTags(current.TagIDs(), tagIDs)
	if len(added) > 0 {
		events = append(events, event.New(event.DocumentTagged, id, caller.UserID, map[string]any{"tag_ids": added}))
	}
	if len(removed) > 0 {
		events = append(events, event.New(event.DocumentUntagged, id, caller.UserID, map[string]any{"tag_ids": removed}))
	}
	return updated, events, nil
}

func (s *documentService) Delete(ctx context.Context, caller model.Identity, id string) ([]event.Event, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Privileged && doc.UploadedBy != caller.UserID {
		return nil, apperr.NotFound("document", id)
	}
	// Delete from storage first; a failing object delete keeps the row so
	// the reference is not lost.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return nil, fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return []event.Event{event.New(event.DocumentDeleted, id, caller.UserID, nil)}, nil
}

func (s *documentService) SetExtractedText(ctx context.Context, id, text string) (*model.Document, []event.Event, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc.ContentText = &text
	doc.OCRProcessed = true
	updated, err := s.repo.Update(ctx, doc, doc.TagIDs())
	if err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, id)
	events := []event.Event{event.New(event.DocumentOCRCompleted, id, "ocr", map[string]any{
		"characters": len(text),
	})}
	return updated, events, nil
}

func (s *documentService) PresignDownload(ctx context.Context, caller model.Identity, id string, expiry time.Duration) (string, error) {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StoragePath, expiry)
}

// checkTags verifies every tag id exists.
func (s *documentService) checkTags(ctx context.Context, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	found, err := s.tags.FindByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(found) != len(dedupe(tagIDs)) {
		return apperr.Validation("tag_ids", "one or more tag ids do not exist")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func moved(before, after *model.Document) bool {
	return !strPtrEq(before.FolderID, after.FolderID) || !strPtrEq(before.DepartmentID, after.DepartmentID)
}

func movePayload(before, after *model.Document) map[string]any {
	p := map[string]any{}
	if before.FolderID != nil {
		p["folder_from"] = *before.FolderID
	}
	if after.FolderID != nil {
		p["folder_to"] = *after.FolderID
	}
	if before.DepartmentID != nil {
		p["department_from"] = *before.DepartmentID
	}
	if after.DepartmentID != nil {
		p["department_to"] = *after.DepartmentID
	}
	return p
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func diffTags(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]bool, len(before))
	for _, id := range before {
		beforeSet[id] = true
	}
	afterSet := make(map[string]bool, len(after))
	for _, id := range after {
		afterSet[id] = true
		if !beforeSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !afterSet[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
