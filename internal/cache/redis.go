package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/config"
	"digiarchive/internal/model"
)

func documentKey(id string) string {
	return "document:" + id
}

// RedisDocumentCache is a DocumentCache backed by Redis. Failures degrade to
// cache misses and are logged, never propagated.
type RedisDocumentCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

var _ DocumentCache = (*RedisDocumentCache)(nil)

// NewRedis creates a Redis-backed document cache.
func NewRedis(cfg config.RedisConfig, log *logrus.Logger) *RedisDocumentCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisDocumentCache{client: client, ttl: cfg.TTL, log: log}
}

func (r *RedisDocumentCache) Get(ctx context.Context, id string) *model.Document {
	res := r.client.Get(ctx, documentKey(id))
	if res.Err() != nil {
		if !errors.Is(res.Err(), redis.Nil) {
			r.log.WithField("document_id", id).WithError(res.Err()).Warn("document cache read failed")
		}
		return nil
	}
	buf, err := res.Bytes()
	if err != nil {
		return nil
	}
	doc := &model.Document{}
	if err := json.Unmarshal(buf, doc); err != nil {
		r.log.WithField("document_id", id).WithError(err).Warn("document cache entry corrupt")
		return nil
	}
	return doc
}

func (r *RedisDocumentCache) Set(ctx context.Context, doc *model.Document) {
	buf, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, documentKey(doc.ID), buf, r.ttl).Err(); err != nil {
		r.log.WithField("document_id", doc.ID).WithError(err).Warn("document cache write failed")
	}
}

func (r *RedisDocumentCache) Invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, documentKey(id)).Err(); err != nil {
		r.log.WithField("document_id", id).WithError(err).Warn("document cache invalidation failed")
	}
}
