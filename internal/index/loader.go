package index

import (
	"context"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// StoreLoader adapts the relational repositories into a Loader.
type StoreLoader struct {
	Docs    repository.DocumentRepository
	Folders repository.FolderRepository
}

var _ Loader = (*StoreLoader)(nil)

// Entry builds the denormalized index entry for one document.
func (l *StoreLoader) Entry(ctx context.Context, id string) (*Entry, error) {
	doc, err := l.Docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return EntryFromDocument(ctx, doc, l.Folders)
}

// IDs pages document ids for rebuild.
func (l *StoreLoader) IDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return l.Docs.ListIDsAfter(ctx, afterID, limit)
}

// EntryFromDocument denormalizes a hydrated document into an Entry, resolving
// the folder name when a folder is assigned. A folder deleted in between is
// treated as no folder rather than an error.
func EntryFromDocument(ctx context.Context, doc *model.Document, folders repository.FolderRepository) (*Entry, error) {
	entry := &Entry{
		ID:           doc.ID,
		Title:        doc.Title,
		Reference:    doc.ReferenceNumber,
		Description:  doc.Description,
		TagNames:     doc.TagNames(),
		TagIDs:       doc.TagIDs(),
		Type:         string(doc.DocumentType),
		UploadedBy:   doc.UploadedBy,
		OCRProcessed: doc.OCRProcessed,
		CreatedAt:    doc.CreatedAt,
		Date:         doc.Date,
	}
	if doc.ContentText != nil {
		entry.Content = *doc.ContentText
	}
	if doc.DepartmentID != nil {
		entry.DepartmentID = *doc.DepartmentID
	}
	if doc.FolderID != nil {
		entry.FolderID = *doc.FolderID
		folder, err := folders.FindByID(ctx, *doc.FolderID)
		switch {
		case err == nil:
			entry.FolderName = folder.Name
		case apperr.IsNotFound(err):
			entry.FolderID = ""
		default:
			return nil, err
		}
	}
	return entry, nil
}
