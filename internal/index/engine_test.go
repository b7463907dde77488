package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/search"
)

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func seedEngine() *Engine {
	e := NewEngine()
	e.Upsert(&Entry{
		ID:           "doc-1",
		Title:        "Invoice March",
		Reference:    "INV-2024-001",
		DepartmentID: "dept-1",
		FolderID:     "folder-1",
		FolderName:   "Invoices",
		TagIDs:       []string{"tag-urgent"},
		TagNames:     []string{"urgent"},
		Type:         "invoice",
		UploadedBy:   "alice",
		OCRProcessed: true,
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Date:         date("2024-03-01"),
	})
	e.Upsert(&Entry{
		ID:           "doc-2",
		Title:        "Contract draft",
		Content:      "invoice terms attached",
		DepartmentID: "dept-1",
		Type:         "contract",
		UploadedBy:   "bob",
		CreatedAt:    time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	e.Upsert(&Entry{
		ID:           "doc-3",
		Title:        "Shipping report",
		DepartmentID: "dept-2",
		Type:         "report",
		UploadedBy:   "alice",
		CreatedAt:    time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
		Date:         date("2024-01-15"),
	})
	return e
}

func run(t *testing.T, e *Engine, plan *search.Plan) *search.Result {
	t.Helper()
	if plan.Limit == 0 {
		plan.Limit = 20
	}
	res, err := e.Search(context.Background(), plan)
	require.NoError(t, err)
	return res
}

func TestEngineMatchAllDefaultOrder(t *testing.T) {
	e := seedEngine()
	res := run(t, e, &search.Plan{Sort: search.Sort{Key: search.SortCreatedAt, Desc: true}})
	assert.Equal(t, []string{"doc-3", "doc-2", "doc-1"}, res.IDs)
	assert.Equal(t, 3, res.Total)
}

func TestEngineTextMatchAcrossFields(t *testing.T) {
	e := seedEngine()
	plan := &search.Plan{
		Pred:   search.Predicate{Conds: []search.Cond{search.TextCond{Tokens: []string{"invoice"}}}},
		Sort:   search.Sort{Key: search.SortRelevance, Desc: true},
		Tokens: []string{"invoice"},
	}
	res := run(t, e, plan)
	// doc-1 matches in title (weight 4), doc-2 only in content (weight 3).
	assert.Equal(t, []string{"doc-1", "doc-2"}, res.IDs)
}

func TestEngineNonLatinQueryMatchesOnlyItsDocument(t *testing.T) {
	e := NewEngine()
	e.Upsert(&Entry{
		ID:        "doc-ar",
		Title:     "فاتورة مارس",
		Type:      "invoice",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	e.Upsert(&Entry{
		ID:        "doc-en",
		Title:     "Invoice March",
		Type:      "invoice",
		CreatedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	})

	tokens := search.Tokenize("فاتورة")
	require.NotEmpty(t, tokens)
	plan := &search.Plan{
		Pred:   search.Predicate{Conds: []search.Cond{search.TextCond{Tokens: tokens}}},
		Sort:   search.Sort{Key: search.SortRelevance, Desc: true},
		Tokens: tokens,
	}
	res := run(t, e, plan)
	assert.Equal(t, []string{"doc-ar"}, res.IDs)
	assert.Equal(t, 1, res.Total)
}

func TestEngineFolderNameMatchesWithoutRankWeight(t *testing.T) {
	e := seedEngine()
	plan := &search.Plan{
		Pred:   search.Predicate{Conds: []search.Cond{search.TextCond{Tokens: []string{"invoices"}}}},
		Sort:   search.Sort{Key: search.SortRelevance, Desc: true},
		Tokens: []string{"invoices"},
	}
	res := run(t, e, plan)
	require.Equal(t, []string{"doc-1"}, res.IDs)
}

func TestEngineFacetFilters(t *testing.T) {
	e := seedEngine()

	res := run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{search.DepartmentCond{ID: "dept-1"}}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	assert.Equal(t, []string{"doc-2", "doc-1"}, res.IDs)

	res = run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{search.TagCond{IDs: []string{"tag-urgent", "tag-none"}}}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	assert.Equal(t, []string{"doc-1"}, res.IDs)

	res = run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{
			search.UploaderCond{ID: "alice"},
			search.TypeCond{Type: "report"},
		}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	assert.Equal(t, []string{"doc-3"}, res.IDs)

	res = run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{search.OCRCond{Processed: true}}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	assert.Equal(t, []string{"doc-1"}, res.IDs)
}

func TestEngineDateFilterAndSort(t *testing.T) {
	e := seedEngine()

	res := run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{search.DateCond{From: date("2024-02-01")}}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	// doc-2 has no date and is excluded by a date filter.
	assert.Equal(t, []string{"doc-1"}, res.IDs)

	// Date sort keeps the no-date document last in both directions.
	res = run(t, e, &search.Plan{Sort: search.Sort{Key: search.SortDate, Desc: false}})
	assert.Equal(t, []string{"doc-3", "doc-1", "doc-2"}, res.IDs)

	res = run(t, e, &search.Plan{Sort: search.Sort{Key: search.SortDate, Desc: true}})
	assert.Equal(t, []string{"doc-1", "doc-3", "doc-2"}, res.IDs)
}

func TestEngineTitleSort(t *testing.T) {
	e := seedEngine()
	res := run(t, e, &search.Plan{Sort: search.Sort{Key: search.SortTitle, Desc: false}})
	assert.Equal(t, []string{"doc-2", "doc-1", "doc-3"}, res.IDs)
}

func TestEnginePaginationIsDeterministic(t *testing.T) {
	e := seedEngine()
	sort := search.Sort{Key: search.SortCreatedAt, Desc: true}

	var collected []string
	for offset := 0; offset < 3; offset++ {
		res := run(t, e, &search.Plan{Sort: sort, Offset: offset, Limit: 1})
		require.Len(t, res.IDs, 1)
		assert.Equal(t, 3, res.Total)
		collected = append(collected, res.IDs[0])
	}
	assert.Equal(t, []string{"doc-3", "doc-2", "doc-1"}, collected)

	// Walking past the end yields an empty page, not an error.
	res := run(t, e, &search.Plan{Sort: sort, Offset: 10, Limit: 5})
	assert.Empty(t, res.IDs)
	assert.Equal(t, 3, res.Total)
}

func TestEngineUpsertReplaces(t *testing.T) {
	e := seedEngine()
	e.Upsert(&Entry{
		ID:         "doc-1",
		Title:      "Renamed",
		Type:       "other",
		UploadedBy: "alice",
		CreatedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	res := run(t, e, &search.Plan{
		Pred:   search.Predicate{Conds: []search.Cond{search.TextCond{Tokens: []string{"invoice"}}}},
		Sort:   search.Sort{Key: search.SortCreatedAt, Desc: true},
		Tokens: []string{"invoice"},
	})
	assert.Equal(t, []string{"doc-2"}, res.IDs)

	res = run(t, e, &search.Plan{
		Pred: search.Predicate{Conds: []search.Cond{search.FolderCond{ID: "folder-1"}}},
		Sort: search.Sort{Key: search.SortCreatedAt, Desc: true},
	})
	assert.Empty(t, res.IDs)
}

func TestEngineRemoveAndSweep(t *testing.T) {
	e := seedEngine()
	e.Remove("doc-2")
	assert.Equal(t, 2, e.DocCount())

	e.Remove("unknown") // no-op

	e.Sweep(map[string]bool{"doc-1": true})
	assert.Equal(t, 1, e.DocCount())

	res := run(t, e, &search.Plan{Sort: search.Sort{Key: search.SortCreatedAt, Desc: true}})
	assert.Equal(t, []string{"doc-1"}, res.IDs)
}

func TestEngineCancelledContext(t *testing.T) {
	e := seedEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, &search.Plan{Sort: search.Sort{Key: search.SortCreatedAt, Desc: true}, Limit: 10})
	assert.Error(t, err)
}
