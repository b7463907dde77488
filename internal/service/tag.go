package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

type TagService interface {
	Create(ctx context.Context, name string) (*model.Tag, error)
	Get(ctx context.Context, id string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Delete(ctx context.Context, id string) error
}

type tagService struct {
	repo repository.TagRepository
}

func NewTagService(repo repository.TagRepository) TagService {
	return &tagService{repo: repo}
}

func (s *tagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	t := &model.Tag{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Create(ctx, t)
}

func (s *tagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.repo.List(ctx)
}

func (s *tagService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
