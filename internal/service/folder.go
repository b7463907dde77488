package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"digiarchive/internal/apperr"
	"digiarchive/internal/event"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// FolderInput carries the writable fields of a folder.
type FolderInput struct {
	Name         string
	DepartmentID string
	ParentID     *string
}

// FolderWithCount pairs a folder with its direct document count.
type FolderWithCount struct {
	model.Folder
	DocumentCount int `json:"document_count"`
}

type FolderService interface {
	Create(ctx context.Context, in FolderInput) (*model.Folder, error)
	Get(ctx context.Context, id string) (*model.Folder, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]FolderWithCount, error)

	// Update rewrites the folder. Moving it to another department carries its
	// documents along; every touched document is reported as a moved event.
	Update(ctx context.Context, actor string, id string, in FolderInput) (*model.Folder, []event.Event, error)

	// Delete removes a folder, either orphaning or cascading to its
	// documents, and reports an event per touched document.
	Delete(ctx context.Context, actor string, id string, cascade bool) ([]event.Event, error)
}

type folderService struct {
	repo        repository.FolderRepository
	departments repository.DepartmentRepository
	docs        repository.DocumentRepository
}

func NewFolderService(repo repository.FolderRepository, departments repository.DepartmentRepository, docs repository.DocumentRepository) FolderService {
	return &folderService{repo: repo, departments: departments, docs: docs}
}

func (s *folderService) Create(ctx context.Context, in FolderInput) (*model.Folder, error) {
	if in.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if in.DepartmentID == "" {
		return nil, apperr.Validation("department_id", "department_id is required")
	}
	if _, err := s.departments.FindByID(ctx, in.DepartmentID); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.DepartmentID != in.DepartmentID {
			return nil, apperr.Validation("parent_id", "parent folder belongs to another department")
		}
	}
	f := &model.Folder{
		ID:           uuid.New().String(),
		Name:         in.Name,
		DepartmentID: in.DepartmentID,
		ParentID:     in.ParentID,
		CreatedAt:    time.Now().UTC(),
	}
	return s.repo.Create(ctx, f)
}

func (s *folderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *folderService) ListByDepartment(ctx context.Context, departmentID string) ([]FolderWithCount, error) {
	folders, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	counts, err := s.docs.CountByFolder(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	out := make([]FolderWithCount, 0, len(folders))
	for _, f := range folders {
		out = append(out, FolderWithCount{Folder: f, DocumentCount: counts[f.ID]})
	}
	return out, nil
}

func (s *folderService) Update(ctx context.Context, actor string, id string, in FolderInput) (*model.Folder, []event.Event, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if in.Name == "" {
		return nil, nil, apperr.Validation("name", "name is required")
	}
	if in.DepartmentID == "" {
		return nil, nil, apperr.Validation("department_id", "department_id is required")
	}
	if in.DepartmentID != f.DepartmentID {
		if _, err := s.departments.FindByID(ctx, in.DepartmentID); err != nil {
			return nil, nil, err
		}
	}
	if in.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, nil, err
		}
		if parent.DepartmentID != in.DepartmentID {
			return nil, nil, apperr.Validation("parent_id", "parent folder belongs to another department")
		}
		if err := s.checkNoCycle(ctx, id, *in.ParentID); err != nil {
			return nil, nil, err
		}
	}

	prevDept := f.DepartmentID

	f.Name = in.Name
	f.DepartmentID = in.DepartmentID
	f.ParentID = in.ParentID
	updated, movedDocs, err := s.repo.Update(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	// Documents moved with the folder need re-indexing and an audit line.
	var events []event.Event
	for _, docID := range movedDocs {
		events = append(events, event.New(event.DocumentMoved, docID, actor, map[string]any{
			"department_from": prevDept,
			"department_to":   in.DepartmentID,
			"folder_id":       id,
		}))
	}
	return updated, events, nil
}

// checkNoCycle walks the parent chain from candidate upward and rejects it
// if the chain passes through id.
func (s *folderService) checkNoCycle(ctx context.Context, id, candidate string) error {
	const maxDepth = 32
	cur := candidate
	for depth := 0; depth < maxDepth; depth++ {
		if cur == id {
			return apperr.Validation("parent_id", "parent chain would form a cycle")
		}
		folder, err := s.repo.FindByID(ctx, cur)
		if err != nil {
			return err
		}
		if folder.ParentID == nil {
			return nil
		}
		cur = *folder.ParentID
	}
	return apperr.Validation("parent_id", "parent chain too deep")
}

func (s *folderService) Delete(ctx context.Context, actor string, id string, cascade bool) ([]event.Event, error) {
	docIDs, err := s.repo.Delete(ctx, id, cascade)
	if err != nil {
		return nil, err
	}
	events := make([]event.Event, 0, len(docIDs))
	kind := event.DocumentMoved
	if cascade {
		kind = event.DocumentDeleted
	}
	for _, docID := range docIDs {
		events = append(events, event.New(kind, docID, actor, map[string]any{"folder_id": id}))
	}
	return events, nil
}
