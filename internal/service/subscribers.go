package service

import (
	"context"

	"github.com/google/uuid"

	"digiarchive/internal/event"
	"digiarchive/internal/index"
	"digiarchive/internal/model"
	"digiarchive/internal/notify"
	"digiarchive/internal/repository"
)

// IndexSubscriber keeps the secondary index in step with document events.
type IndexSubscriber struct {
	sync *index.Synchronizer
}

func NewIndexSubscriber(sync *index.Synchronizer) *IndexSubscriber {
	return &IndexSubscriber{sync: sync}
}

func (s *IndexSubscriber) Name() string { return "index" }

func (s *IndexSubscriber) Handle(ctx context.Context, meta event.Meta, ev event.Event) error {
	if ev.EntityType != "document" {
		return nil
	}
	if ev.Kind == event.DocumentDeleted {
		s.sync.EnqueueRemove(ev.EntityID)
	} else {
		s.sync.EnqueueUpsert(ev.EntityID)
	}
	return nil
}

// AuditSubscriber appends one audit line per document event.
type AuditSubscriber struct {
	repo repository.AuditLogRepository
}

func NewAuditSubscriber(repo repository.AuditLogRepository) *AuditSubscriber {
	return &AuditSubscriber{repo: repo}
}

func (s *AuditSubscriber) Name() string { return "audit" }

var auditActionByKind = map[event.Kind]model.AuditAction{
	event.DocumentCreated:      model.AuditCreate,
	event.DocumentUpdated:      model.AuditUpdate,
	event.DocumentDeleted:      model.AuditDelete,
	event.DocumentMoved:        model.AuditMove,
	event.DocumentTagged:       model.AuditTag,
	event.DocumentUntagged:     model.AuditUntag,
	event.DocumentOCRCompleted: model.AuditOCR,
	event.DocumentReconciled:   model.AuditMove,
}

func (s *AuditSubscriber) Handle(ctx context.Context, meta event.Meta, ev event.Event) error {
	action, ok := auditActionByKind[ev.Kind]
	if !ok {
		return nil
	}
	return s.repo.Append(ctx, &model.AuditLog{
		ID:         uuid.New().String(),
		Actor:      ev.Actor,
		Action:     action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Changes:    ev.Payload,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  ev.OccurredAt,
	})
}

// NotifySubscriber forwards events to the external notifier.
type NotifySubscriber struct {
	notifier notify.Notifier
}

func NewNotifySubscriber(n notify.Notifier) *NotifySubscriber {
	return &NotifySubscriber{notifier: n}
}

func (s *NotifySubscriber) Name() string { return "notify" }

func (s *NotifySubscriber) Handle(ctx context.Context, meta event.Meta, ev event.Event) error {
	return s.notifier.Publish(ctx, ev)
}
