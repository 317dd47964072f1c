// Package cache keeps rendered public portfolio documents in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "portfolio:public:"
	DefaultTTL = 5 * time.Minute
)

// Documents caches encoded public documents keyed by slug.
type Documents struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocuments connects to redisURL and verifies the connection.
func NewDocuments(redisURL string, ttl time.Duration) (*Documents, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewDocumentsWithClient(client, ttl), nil
}

func NewDocumentsWithClient(client *redis.Client, ttl time.Duration) *Documents {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Documents{client: client, ttl: ttl}
}

func key(slug string) string {
	return keyPrefix + slug
}

// Get returns the cached document for slug; ok is false on a miss.
func (d *Documents) Get(ctx context.Context, slug string) ([]byte, bool, error) {
	data, err := d.client.Get(ctx, key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get public document: %w", err)
	}
	return data, true, nil
}

func (d *Documents) Set(ctx context.Context, slug string, doc []byte) error {
	if err := d.client.Set(ctx, key(slug), doc, d.ttl).Err(); err != nil {
		return fmt.Errorf("set public document: %w", err)
	}
	return nil
}

// Invalidate drops the documents of every given slug. Empty slugs are ignored.
func (d *Documents) Invalidate(ctx context.Context, slugs ...string) error {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, key(slug))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := d.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate public documents: %w", err)
	}
	return nil
}

func (d *Documents) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *Documents) Close() error {
	return d.client.Close()
}
