package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"digiarchive/internal/event"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/search"
	"digiarchive/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, caller model.Identity, in service.CreateDocumentInput, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, []event.Event, error) {
	args := m.Called(ctx, caller, in, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Document), events(args.Get(1)), args.Error(2)
}

func (m *MockDocumentService) Get(ctx context.Context, caller model.Identity, id string) (*model.Document, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, caller model.Identity, id string, in service.UpdateDocumentInput) (*model.Document, []event.Event, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Document), events(args.Get(1)), args.Error(2)
}

func (m *MockDocumentService) Delete(ctx context.Context, caller model.Identity, id string) ([]event.Event, error) {
	args := m.Called(ctx, caller, id)
	return events(args.Get(0)), args.Error(1)
}

func (m *MockDocumentService) SetExtractedText(ctx context.Context, id, text string) (*model.Document, []event.Event, error) {
	args := m.Called(ctx, id, text)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Document), events(args.Get(1)), args.Error(2)
}

func (m *MockDocumentService) PresignDownload(ctx context.Context, caller model.Identity, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, caller, id, expiry)
	return args.String(0), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, caller model.Identity, req search.Request) (*service.SearchResponse, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchResponse), args.Error(1)
}

func (m *MockSearchService) Suggestions(ctx context.Context, prefix string, limit int) ([]repository.Suggestion, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Suggestion), args.Error(1)
}

type MockDepartmentService struct {
	mock.Mock
}

func (m *MockDepartmentService) Create(ctx context.Context, in service.DepartmentInput) (*model.Department, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) Get(ctx context.Context, id string) (*model.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) List(ctx context.Context) ([]model.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Department), args.Error(1)
}

func (m *MockDepartmentService) Update(ctx context.Context, id string, in service.DepartmentInput) (*model.Department, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFolderService struct {
	mock.Mock
}

func (m *MockFolderService) Create(ctx context.Context, in service.FolderInput) (*model.Folder, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockFolderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockFolderService) ListByDepartment(ctx context.Context, departmentID string) ([]service.FolderWithCount, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.FolderWithCount), args.Error(1)
}

func (m *MockFolderService) Update(ctx context.Context, actor string, id string, in service.FolderInput) (*model.Folder, []event.Event, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Folder), events(args.Get(1)), args.Error(2)
}

func (m *MockFolderService) Delete(ctx context.Context, actor string, id string, cascade bool) ([]event.Event, error) {
	args := m.Called(ctx, actor, id, cascade)
	return events(args.Get(0)), args.Error(1)
}

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) List(ctx context.Context) ([]model.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func events(v any) []event.Event {
	if v == nil {
		return nil
	}
	return v.([]event.Event)
}
