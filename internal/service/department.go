package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// DepartmentInput carries the writable fields of a department.
type DepartmentInput struct {
	Name     string
	Code     string
	ParentID *string
}

type DepartmentService interface {
	Create(ctx context.Context, in DepartmentInput) (*model.Department, error)
	Get(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, id string, in DepartmentInput) (*model.Department, error)
	Delete(ctx context.Context, id string) error
}

type departmentService struct {
	repo repository.DepartmentRepository
}

func NewDepartmentService(repo repository.DepartmentRepository) DepartmentService {
	return &departmentService{repo: repo}
}

func (s *departmentService) Create(ctx context.Context, in DepartmentInput) (*model.Department, error) {
	if in.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if in.Code == "" {
		return nil, apperr.Validation("code", "code is required")
	}
	if in.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}
	dept := &model.Department{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Code:      in.Code,
		ParentID:  in.ParentID,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Create(ctx, dept)
}

func (s *departmentService) Get(ctx context.Context, id string) (*model.Department, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *departmentService) List(ctx context.Context) ([]model.Department, error) {
	return s.repo.List(ctx)
}

func (s *departmentService) Update(ctx context.Context, id string, in DepartmentInput) (*model.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if in.Code == "" {
		return nil, apperr.Validation("code", "code is required")
	}
	if in.ParentID != nil {
		if err := s.checkNoCycle(ctx, id, *in.ParentID); err != nil {
			return nil, err
		}
	}
	dept.Name = in.Name
	dept.Code = in.Code
	dept.ParentID = in.ParentID
	return s.repo.Update(ctx, dept)
}

func (s *departmentService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// checkNoCycle walks the parent chain from candidate upward and rejects it
// if the chain passes through id.
func (s *departmentService) checkNoCycle(ctx context.Context, id, candidate string) error {
	const maxDepth = 32
	cur := candidate
	for depth := 0; depth < maxDepth; depth++ {
		if cur == id {
			return apperr.Validation("parent_id", "parent chain would form a cycle")
		}
		parent, err := s.repo.FindByID(ctx, cur)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		cur = *parent.ParentID
	}
	return apperr.Validation("parent_id", "parent chain too deep")
}
