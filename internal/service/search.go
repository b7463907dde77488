package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/apperr"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/search"
)

// SearchBackend runs a compiled search plan. Both the relational store and
// the in-memory index satisfy it.
type SearchBackend interface {
	Search(ctx context.Context, plan *search.Plan) (*search.Result, error)
}

// SearchResponse is a hydrated page of search results.
type SearchResponse struct {
	Items      []model.Document `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Backend    string           `json:"backend"`
}

// SearchService is the search façade: it resolves requests into plans, picks
// a backend, falls back to the relational store when the index fails, and
// hydrates the resulting page.
type SearchService interface {
	Search(ctx context.Context, caller model.Identity, req search.Request) (*SearchResponse, error)
	Suggestions(ctx context.Context, prefix string, limit int) ([]repository.Suggestion, error)
}

type searchService struct {
	resolver     *search.Resolver
	store        SearchBackend
	index        SearchBackend
	docs         repository.DocumentRepository
	tags         repository.TagRepository
	indexTimeout time.Duration
	log          *logrus.Logger

	fallbacks    prometheus.Counter
	inconsistent prometheus.Counter
}

// NewSearchService constructs the search façade. index may be nil, in which
// case every query runs against the relational store.
func NewSearchService(resolver *search.Resolver, store, index SearchBackend,
	docs repository.DocumentRepository, tags repository.TagRepository,
	indexTimeout time.Duration, log *logrus.Logger, reg prometheus.Registerer) SearchService {
	s := &searchService{
		resolver:     resolver,
		store:        store,
		index:        index,
		docs:         docs,
		tags:         tags,
		indexTimeout: indexTimeout,
		log:          log,
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_backend_fallback_total",
			Help: "Queries that fell back from the index to the relational store.",
		}),
		inconsistent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_inconsistent_results_total",
			Help: "Hydrated search results whose department disagreed with their folder.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.fallbacks, s.inconsistent)
	}
	return s
}

func (s *searchService) Search(ctx context.Context, caller model.Identity, req search.Request) (*SearchResponse, error) {
	plan, err := s.resolver.Resolve(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	backend := search.BackendRelational
	if req.Backend != "" {
		backend = req.Backend
	}

	var result *search.Result
	used := string(search.BackendRelational)

	if backend == search.BackendIndex && s.index != nil {
		result, err = s.queryIndex(ctx, plan)
		if err == nil {
			used = string(search.BackendIndex)
		} else {
			s.log.WithError(err).Warn("index backend failed, falling back to relational store")
			s.fallbacks.Inc()
		}
	}

	if result == nil {
		var storeErr error
		result, storeErr = s.store.Search(ctx, plan)
		if storeErr != nil {
			if err != nil {
				return nil, &apperr.SearchUnavailableError{IndexErr: err, StoreErr: storeErr}
			}
			return nil, storeErr
		}
	}

	items, err := s.hydrate(ctx, result.IDs)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Items:      items,
		TotalCount: result.Total,
		Page:       plan.Offset/plan.Limit + 1,
		PageSize:   plan.Limit,
		Backend:    used,
	}, nil
}

// queryIndex runs the plan against the index with a deadline, retrying once
// on timeout before giving up.
func (s *searchService) queryIndex(ctx context.Context, plan *search.Plan) (*search.Result, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
		result, err := s.index.Search(qctx, plan)
		cancel()
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &apperr.BackendTimeoutError{Backend: "index", Err: err}
		}
		lastErr = err
		if !apperr.IsBackendTimeout(err) {
			break
		}
	}
	return nil, lastErr
}

// hydrate resolves an ordered id page into documents, preserving order, and
// flags any document whose stored department disagrees with its folder's.
func (s *searchService) hydrate(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}
	docs, err := s.docs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if !doc.Consistent() {
			s.inconsistent.Inc()
			s.log.WithFields(logrus.Fields{
				"document_id": doc.ID,
				"folder_id":   deref(doc.FolderID),
			}).Warn("search result has department inconsistent with its folder")
		}
		items = append(items, doc)
	}
	return items, nil
}

func (s *searchService) Suggestions(ctx context.Context, prefix string, limit int) ([]repository.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < 2 {
		return []repository.Suggestion{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	docSugg, err := s.docs.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	tagSugg, err := s.tags.SuggestNames(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	out := append(docSugg, tagSugg...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
