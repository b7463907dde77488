package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
)

// Request is the raw, partially-specified search input as it arrives from a
// caller. Zero values mean "not filtered".
type Request struct {
	Query        string
	DepartmentID string
	FolderID     string
	TagIDs       []string
	DocumentType string
	DateFrom     *time.Time
	DateTo       *time.Time
	OCRProcessed *bool
	UploadedBy   string
	Sort         string
	Page         int
	PageSize     int
	Backend      Backend
}

// FolderLookup is the slice of the folder repository the resolver needs.
type FolderLookup interface {
	FindByID(ctx context.Context, id string) (*model.Folder, error)
}

// Resolver translates a Request into a fully-specified Plan. Resolution is
// deterministic: the same request and folder data always produce the same
// plan, with no per-request special cases.
type Resolver struct {
	folders         FolderLookup
	defaultPageSize int
	maxPageSize     int
}

// NewResolver creates a Resolver with the given pagination bounds.
func NewResolver(folders FolderLookup, defaultPageSize, maxPageSize int) *Resolver {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Resolver{folders: folders, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Resolve validates req against the caller identity and produces the Plan.
//
// Precedence rules:
//   - folder and department both given but mismatched fails with
//     InvalidFilterCombination; nothing is silently chosen.
//   - folder given without department implies the folder's department for
//     filtering only.
//   - non-privileged callers are always restricted to their own uploads; the
//     UploadedBy parameter is honored for privileged callers only.
func (r *Resolver) Resolve(ctx context.Context, req Request, caller model.Identity) (*Plan, error) {
	sort, err := parseSort(req.Sort)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = r.defaultPageSize
	}
	if size > r.maxPageSize {
		size = r.maxPageSize
	}

	var conds []Cond

	tokens := Tokenize(req.Query)
	if len(tokens) > 0 {
		conds = append(conds, TextCond{Tokens: tokens})
	}

	departmentID := req.DepartmentID
	if req.FolderID != "" {
		folder, err := r.folders.FindByID(ctx, req.FolderID)
		if err != nil {
			return nil, err
		}
		if departmentID != "" && departmentID != folder.DepartmentID {
			return nil, &apperr.InvalidFilterCombinationError{
				FolderID:           folder.ID,
				FolderDepartmentID: folder.DepartmentID,
				DepartmentID:       departmentID,
			}
		}
		// Filtering-only implication; no document is mutated here.
		departmentID = folder.DepartmentID
		conds = append(conds, FolderCond{ID: folder.ID})
	}
	if departmentID != "" {
		conds = append(conds, DepartmentCond{ID: departmentID})
	}

	if len(req.TagIDs) > 0 {
		conds = append(conds, TagCond{IDs: req.TagIDs})
	}

	if req.DocumentType != "" {
		dt := model.DocumentType(req.DocumentType)
		if !model.ValidDocumentType(dt) {
			return nil, apperr.Validation("document_type", fmt.Sprintf("unknown type %q", req.DocumentType))
		}
		conds = append(conds, TypeCond{Type: dt})
	}

	if req.DateFrom != nil || req.DateTo != nil {
		if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
			return nil, apperr.Validation("date_to", "date_to precedes date_from")
		}
		conds = append(conds, DateCond{From: req.DateFrom, To: req.DateTo})
	}

	if req.OCRProcessed != nil {
		conds = append(conds, OCRCond{Processed: *req.OCRProcessed})
	}

	// Visibility rule: always an implicit AND for non-privileged callers,
	// with no exception branches.
	if !caller.Privileged {
		conds = append(conds, UploaderCond{ID: caller.UserID})
	} else if req.UploadedBy != "" {
		conds = append(conds, UploaderCond{ID: req.UploadedBy})
	}

	return &Plan{
		Pred:   Predicate{Conds: conds},
		Sort:   sort,
		Tokens: tokens,
		Offset: (page - 1) * size,
		Limit:  size,
	}, nil
}

func parseSort(s string) (Sort, error) {
	if s == "" {
		s = "-created_at"
	}
	desc := strings.HasPrefix(s, "-")
	key := strings.TrimPrefix(s, "-")
	switch SortKey(key) {
	case SortCreatedAt, SortDate, SortTitle:
		return Sort{Key: SortKey(key), Desc: desc}, nil
	case SortRelevance:
		// Relevance is inherently descending.
		return Sort{Key: SortRelevance, Desc: true}, nil
	default:
		return Sort{}, apperr.Validation("sort", fmt.Sprintf("unknown sort key %q", key))
	}
}
