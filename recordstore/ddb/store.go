/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/recordstore"
)

var _ recordstore.RemoteStore = (*Store)(nil)

// Store implements recordstore.RemoteStore on a single DynamoDB table.
type Store struct {
	client     API
	tableName  string
	limiter    *rate.Limiter
	streamOpts []recordmodels.StreamOption
	indexes    map[string]IndexConfig
	now        func() time.Time
	newTag     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithRateLimit throttles requests to rps per second with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Store) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithStreamOptions sets the default paging and retry behavior for reads
// and the retry budget for batch writes.
func WithStreamOptions(opts ...recordmodels.StreamOption) Option {
	return func(s *Store) {
		s.streamOpts = append(s.streamOpts, opts...)
	}
}

// WithIndex registers a secondary index for QueryByIndex.
func WithIndex(cfg IndexConfig) Option {
	return func(s *Store) {
		s.indexes[cfg.IndexName] = cfg
	}
}

// WithClock replaces the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithChangeTags replaces the change tag generator.
func WithChangeTags(newTag func() string) Option {
	return func(s *Store) {
		s.newTag = newTag
	}
}

// New constructs a Store on an existing client.
func New(client API, tableName string, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tableName: tableName,
		indexes:   make(map[string]IndexConfig, len(DefaultIndexes)),
		now:       time.Now,
		newTag:    func() string { return uuid.NewString() },
	}
	for name, cfg := range DefaultIndexes {
		s.indexes[name] = cfg
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates the DynamoDB client and the Store in one step.
func NewFromConfig(ctx context.Context, cfg ClientConfig, tableName string, opts ...Option) (*Store, error) {
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return New(client, tableName, opts...), nil
}

// TableName returns the table the store reads and writes.
func (s *Store) TableName() string {
	return s.tableName
}

func (s *Store) streamOptions(opts ...recordmodels.StreamOption) recordmodels.StreamOptions {
	all := make([]recordmodels.StreamOption, 0, len(s.streamOpts)+len(opts))
	all = append(all, s.streamOpts...)
	all = append(all, opts...)
	return recordmodels.ApplyStreamOptions(all...)
}

// wait blocks until the rate limiter admits one request.
func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// stamped returns a copy of r carrying fresh server-assigned fields.
func (s *Store) stamped(r *recordmodels.Record) *recordmodels.Record {
	c := r.Clone()
	c.Stamp(s.newTag(), s.now())
	return c
}
