// Package index maintains the secondary searchable representation of the
// document store: an in-memory inverted index over weighted text fields plus
// faceted filter sets, kept eventually consistent by the Synchronizer.
package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"digiarchive/internal/search"
)

// Entry is the denormalized, indexable representation of one document.
type Entry struct {
	ID           string
	Title        string
	Content      string
	Reference    string
	Description  string
	FolderName   string
	TagNames     []string
	DepartmentID string
	FolderID     string
	TagIDs       []string
	Type         string
	UploadedBy   string
	OCRProcessed bool
	CreatedAt    time.Time
	Date         *time.Time
}

type docMeta struct {
	createdAt  time.Time
	date       *time.Time
	titleLower string
}

// Engine is the inverted index. Postings carry the same field weights the
// relational path scores with, so a relevance ordering is identical on both
// backends. Safe for concurrent use.
type Engine struct {
	mu sync.RWMutex

	postings  map[string]map[string]int // term -> docID -> weight
	docTerms  map[string]map[string]int // docID -> term -> weight
	facets    map[string]map[string]bool
	docFacets map[string][]string
	meta      map[string]docMeta
}

// NewEngine creates an empty index engine.
func NewEngine() *Engine {
	return &Engine{
		postings:  make(map[string]map[string]int),
		docTerms:  make(map[string]map[string]int),
		facets:    make(map[string]map[string]bool),
		docFacets: make(map[string][]string),
		meta:      make(map[string]docMeta),
	}
}

func facetKey(kind, value string) string { return kind + ":" + value }

// Upsert replaces the index entry for e.ID. Readers observe either the old or
// the new entry, never a mix.
func (e *Engine) Upsert(entry *Entry) {
	terms := make(map[string]int)
	addTerms(terms, entry.Title, search.WeightTitle)
	addTerms(terms, entry.Content, search.WeightContent)
	addTerms(terms, entry.Reference, search.WeightReference)
	addTerms(terms, entry.Description, search.WeightDescription)
	// Folder and tag names participate in matching but carry no rank weight,
	// mirroring the relational text clause.
	addTerms(terms, entry.FolderName, 0)
	for _, name := range entry.TagNames {
		addTerms(terms, name, 0)
	}

	fks := make([]string, 0, 4+len(entry.TagIDs))
	if entry.DepartmentID != "" {
		fks = append(fks, facetKey("department", entry.DepartmentID))
	}
	if entry.FolderID != "" {
		fks = append(fks, facetKey("folder", entry.FolderID))
	}
	for _, tagID := range entry.TagIDs {
		fks = append(fks, facetKey("tag", tagID))
	}
	fks = append(fks,
		facetKey("type", entry.Type),
		facetKey("uploader", entry.UploadedBy),
		facetKey("ocr", boolValue(entry.OCRProcessed)),
	)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeLocked(entry.ID)

	e.docTerms[entry.ID] = terms
	for term, weight := range terms {
		docs := e.postings[term]
		if docs == nil {
			docs = make(map[string]int)
			e.postings[term] = docs
		}
		docs[entry.ID] = weight
	}

	e.docFacets[entry.ID] = fks
	for _, fk := range fks {
		set := e.facets[fk]
		if set == nil {
			set = make(map[string]bool)
			e.facets[fk] = set
		}
		set[entry.ID] = true
	}

	e.meta[entry.ID] = docMeta{
		createdAt:  entry.CreatedAt,
		date:       entry.Date,
		titleLower: strings.ToLower(entry.Title),
	}
}

// Remove deletes a document from the index. Unknown ids are a no-op.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(id)
}

func (e *Engine) removeLocked(id string) {
	for term := range e.docTerms[id] {
		docs := e.postings[term]
		delete(docs, id)
		if len(docs) == 0 {
			delete(e.postings, term)
		}
	}
	delete(e.docTerms, id)

	for _, fk := range e.docFacets[id] {
		set := e.facets[fk]
		delete(set, id)
		if len(set) == 0 {
			delete(e.facets, fk)
		}
	}
	delete(e.docFacets, id)
	delete(e.meta, id)
}

// Sweep removes every indexed document whose id is not in keep. Used by
// rebuild to drop entries for documents deleted during divergence.
func (e *Engine) Sweep(keep map[string]bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var stale []string
	for id := range e.meta {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		e.removeLocked(id)
	}
}

// DocCount returns the number of indexed documents.
func (e *Engine) DocCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.meta)
}

// Search compiles the plan against the postings and facet sets and returns
// the ordered id page plus the total match count. Candidate filtering is a
// pure intersection of conjunctive conditions, mirroring the SQL compiler.
func (e *Engine) Search(ctx context.Context, plan *search.Plan) (*search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var candidates map[string]bool
	scores := make(map[string]int)

	intersect := func(set map[string]bool) {
		if candidates == nil {
			candidates = make(map[string]bool, len(set))
			for id := range set {
				candidates[id] = true
			}
			return
		}
		for id := range candidates {
			if !set[id] {
				delete(candidates, id)
			}
		}
	}

	for _, c := range plan.Pred.Conds {
		switch c := c.(type) {
		case search.TextCond:
			for _, tok := range c.Tokens {
				matched := make(map[string]bool)
				for term, docs := range e.postings {
					if !strings.Contains(term, tok) {
						continue
					}
					for id, weight := range docs {
						matched[id] = true
						scores[id] += weight
					}
				}
				intersect(matched)
			}
		case search.DepartmentCond:
			intersect(e.facets[facetKey("department", c.ID)])
		case search.FolderCond:
			intersect(e.facets[facetKey("folder", c.ID)])
		case search.TagCond:
			union := make(map[string]bool)
			for _, tagID := range c.IDs {
				for id := range e.facets[facetKey("tag", tagID)] {
					union[id] = true
				}
			}
			intersect(union)
		case search.TypeCond:
			intersect(e.facets[facetKey("type", string(c.Type))])
		case search.OCRCond:
			intersect(e.facets[facetKey("ocr", boolValue(c.Processed))])
		case search.UploaderCond:
			intersect(e.facets[facetKey("uploader", c.ID)])
		case search.DateCond:
			matched := make(map[string]bool)
			source := candidates
			if source == nil {
				matched = e.matchDates(nil, c)
			} else {
				matched = e.matchDates(source, c)
			}
			candidates = matched
		}
	}

	if candidates == nil {
		candidates = make(map[string]bool, len(e.meta))
		for id := range e.meta {
			candidates[id] = true
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	e.sortIDs(ids, plan.Sort, scores)

	total := len(ids)
	start := plan.Offset
	if start > total {
		start = total
	}
	end := start + plan.Limit
	if end > total {
		end = total
	}
	page := make([]string, end-start)
	copy(page, ids[start:end])

	return &search.Result{IDs: page, Total: total}, nil
}

func (e *Engine) matchDates(within map[string]bool, c search.DateCond) map[string]bool {
	matched := make(map[string]bool)
	check := func(id string) {
		m, ok := e.meta[id]
		if !ok || m.date == nil {
			return
		}
		if c.From != nil && m.date.Before(*c.From) {
			return
		}
		if c.To != nil && m.date.After(*c.To) {
			return
		}
		matched[id] = true
	}
	if within != nil {
		for id := range within {
			check(id)
		}
		return matched
	}
	for id := range e.meta {
		check(id)
	}
	return matched
}

// sortIDs orders candidates exactly as the relational compiler does: the
// requested key with a NULLS LAST date rule and an id DESC tiebreak;
// relevance is score desc, then created_at desc, then id desc.
func (e *Engine) sortIDs(ids []string, s search.Sort, scores map[string]int) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := e.meta[ids[i]], e.meta[ids[j]]
		switch s.Key {
		case search.SortRelevance:
			if scores[ids[i]] != scores[ids[j]] {
				return scores[ids[i]] > scores[ids[j]]
			}
			if !a.createdAt.Equal(b.createdAt) {
				return a.createdAt.After(b.createdAt)
			}
		case search.SortTitle:
			if a.titleLower != b.titleLower {
				if s.Desc {
					return a.titleLower > b.titleLower
				}
				return a.titleLower < b.titleLower
			}
		case search.SortDate:
			switch {
			case a.date == nil && b.date == nil:
				// fall through to tiebreak
			case a.date == nil:
				return false
			case b.date == nil:
				return true
			case !a.date.Equal(*b.date):
				if s.Desc {
					return a.date.After(*b.date)
				}
				return a.date.Before(*b.date)
			}
		default:
			if !a.createdAt.Equal(b.createdAt) {
				if s.Desc {
					return a.createdAt.After(b.createdAt)
				}
				return a.createdAt.Before(b.createdAt)
			}
		}
		return ids[i] > ids[j]
	})
}

func addTerms(terms map[string]int, text string, weight int) {
	for _, tok := range search.Tokenize(text) {
		terms[tok] += weight
	}
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
