package index

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/apperr"
)

// fakeLoader serves entries from a mutable map, counting Entry calls and
// optionally failing the first n of them.
type fakeLoader struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	calls     int
	failFirst int
}

func (l *fakeLoader) Entry(ctx context.Context, id string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failFirst > 0 {
		l.failFirst--
		return nil, errors.New("transient store error")
	}
	e, ok := l.entries[id]
	if !ok {
		return nil, apperr.NotFound("document", id)
	}
	cp := *e
	return &cp, nil
}

func (l *fakeLoader) IDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testSync(engine *Engine, loader Loader) *Synchronizer {
	return NewSynchronizer(engine, loader, Config{
		QueueSize:   16,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
		RebuildPage: 2,
	}, quietLog(), nil)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSynchronizerAppliesUpserts(t *testing.T) {
	engine := NewEngine()
	loader := &fakeLoader{entries: map[string]*Entry{
		"doc-1": {ID: "doc-1", Title: "First", Type: "other", CreatedAt: time.Now()},
	}}
	s := testSync(engine, loader)
	s.Start()
	defer s.Close()

	s.EnqueueUpsert("doc-1")
	waitFor(t, func() bool { return engine.DocCount() == 1 })
}

func TestSynchronizerRemovesOnNotFound(t *testing.T) {
	engine := NewEngine()
	engine.Upsert(&Entry{ID: "ghost", Title: "Ghost", Type: "other", CreatedAt: time.Now()})
	s := testSync(engine, &fakeLoader{entries: map[string]*Entry{}})
	s.Start()
	defer s.Close()

	// The document vanished between enqueue and apply.
	s.EnqueueUpsert("ghost")
	waitFor(t, func() bool { return engine.DocCount() == 0 })
}

func TestSynchronizerRetriesTransientFailures(t *testing.T) {
	engine := NewEngine()
	loader := &fakeLoader{
		entries:   map[string]*Entry{"doc-1": {ID: "doc-1", Title: "First", Type: "other", CreatedAt: time.Now()}},
		failFirst: 2,
	}
	s := testSync(engine, loader)
	s.Start()
	defer s.Close()

	s.EnqueueUpsert("doc-1")
	waitFor(t, func() bool { return engine.DocCount() == 1 })
}

func TestSynchronizerEnqueueRemove(t *testing.T) {
	engine := NewEngine()
	engine.Upsert(&Entry{ID: "doc-1", Title: "First", Type: "other", CreatedAt: time.Now()})
	s := testSync(engine, &fakeLoader{entries: map[string]*Entry{}})
	s.Start()
	defer s.Close()

	s.EnqueueRemove("doc-1")
	waitFor(t, func() bool { return engine.DocCount() == 0 })
}

func TestRebuildIndexesEverythingAndSweepsStale(t *testing.T) {
	engine := NewEngine()
	// A stale entry whose document no longer exists in the store.
	engine.Upsert(&Entry{ID: "stale", Title: "Stale", Type: "other", CreatedAt: time.Now()})

	loader := &fakeLoader{entries: map[string]*Entry{
		"doc-1": {ID: "doc-1", Title: "One", Type: "other", CreatedAt: time.Now()},
		"doc-2": {ID: "doc-2", Title: "Two", Type: "other", CreatedAt: time.Now()},
		"doc-3": {ID: "doc-3", Title: "Three", Type: "other", CreatedAt: time.Now()},
	}}
	s := testSync(engine, loader)

	n, err := s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, engine.DocCount())
}

func TestRebuildIsIdempotent(t *testing.T) {
	engine := NewEngine()
	loader := &fakeLoader{entries: map[string]*Entry{
		"doc-1": {ID: "doc-1", Title: "One", Type: "other", CreatedAt: time.Now()},
	}}
	s := testSync(engine, loader)

	for i := 0; i < 3; i++ {
		n, err := s.Rebuild(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, 1, engine.DocCount())
}

func TestRebuildCancellable(t *testing.T) {
	engine := NewEngine()
	loader := &fakeLoader{entries: map[string]*Entry{
		"doc-1": {ID: "doc-1", Title: "One", Type: "other", CreatedAt: time.Now()},
	}}
	s := testSync(engine, loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Rebuild(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
