package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/apperr"
	"digiarchive/internal/event"
	"digiarchive/internal/index"
	"digiarchive/internal/model"
	"digiarchive/internal/repository/mocks"
)

func TestAuditSubscriberMapsEventsToActions(t *testing.T) {
	repo := new(mocks.MockAuditLogRepository)
	sub := NewAuditSubscriber(repo)

	var appended *model.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		appended = args.Get(1).(*model.AuditLog)
	}).Return(nil)

	ev := event.New(event.DocumentTagged, "doc-1", "alice", map[string]any{"tag_ids": []string{"t1"}})
	meta := event.Meta{RequestID: "req-1", IPAddress: "10.0.0.1", UserAgent: "curl"}
	require.NoError(t, sub.Handle(context.Background(), meta, ev))

	require.NotNil(t, appended)
	assert.Equal(t, model.AuditTag, appended.Action)
	assert.Equal(t, "doc-1", appended.EntityID)
	assert.Equal(t, "alice", appended.Actor)
	assert.Equal(t, "10.0.0.1", appended.IPAddress)
	assert.Equal(t, "curl", appended.UserAgent)
	assert.NotEmpty(t, appended.ID)
	repo.AssertExpectations(t)
}

func TestAuditSubscriberIgnoresUnknownKinds(t *testing.T) {
	repo := new(mocks.MockAuditLogRepository)
	sub := NewAuditSubscriber(repo)

	ev := event.Event{Kind: "document.previewed", EntityType: "document", EntityID: "doc-1"}
	require.NoError(t, sub.Handle(context.Background(), event.Meta{}, ev))
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

type recordingLoader struct {
	entries map[string]*index.Entry
}

func (l *recordingLoader) Entry(ctx context.Context, id string) (*index.Entry, error) {
	if e, ok := l.entries[id]; ok {
		return e, nil
	}
	return nil, apperr.NotFound("document", id)
}

func (l *recordingLoader) IDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return nil, nil
}

func TestIndexSubscriberEnqueuesByKind(t *testing.T) {
	engine := index.NewEngine()
	loader := &recordingLoader{entries: map[string]*index.Entry{
		"doc-1": {ID: "doc-1", Title: "One", Type: "other", CreatedAt: time.Now()},
	}}
	sync := index.NewSynchronizer(engine, loader, index.Config{QueueSize: 8, RetryDelay: time.Millisecond}, quietLog(), nil)
	sync.Start()

	sub := NewIndexSubscriber(sync)
	require.NoError(t, sub.Handle(context.Background(), event.Meta{},
		event.New(event.DocumentCreated, "doc-1", "alice", nil)))
	sync.Close()
	assert.Equal(t, 1, engine.DocCount())

	sync2 := index.NewSynchronizer(engine, loader, index.Config{QueueSize: 8, RetryDelay: time.Millisecond}, quietLog(), nil)
	sync2.Start()
	sub2 := NewIndexSubscriber(sync2)
	require.NoError(t, sub2.Handle(context.Background(), event.Meta{},
		event.New(event.DocumentDeleted, "doc-1", "alice", nil)))
	sync2.Close()
	assert.Zero(t, engine.DocCount())
}
