/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgate

import (
	"strings"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/notify"
	"github.com/suparena/recordgate/recordstore"
)

// SaveStrategy selects how SaveRecords reaches the store.
type SaveStrategy int

const (
	// SaveStrategyConcurrent issues one store Save per record, concurrently.
	SaveStrategyConcurrent SaveStrategy = iota
	// SaveStrategyBatch issues a single store SaveMany, which overwrites.
	SaveStrategyBatch
)

func (s SaveStrategy) String() string {
	if s == SaveStrategyBatch {
		return "batch"
	}
	return "concurrent"
}

// ParseSaveStrategy converts "concurrent" or "batch" into a SaveStrategy.
// The empty string selects the default.
func ParseSaveStrategy(name string) (SaveStrategy, error) {
	switch strings.ToLower(name) {
	case "", "concurrent":
		return SaveStrategyConcurrent, nil
	case "batch":
		return SaveStrategyBatch, nil
	}
	return SaveStrategyConcurrent, errors.NewValidationError("saveStrategy", "unknown save strategy "+name)
}

// Option configures a Client.
type Option func(*Client)

// WithNotifier sets the sink for diagnostic events. A nil notifier discards them.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithAccountCheck replaces the store's own account check as the gate.
func WithAccountCheck(check recordstore.AccountCheckFunc) Option {
	return func(c *Client) {
		if check != nil {
			c.check = check
		}
	}
}

// WithSaveStrategy selects how SaveRecords reaches the store.
func WithSaveStrategy(s SaveStrategy) Option {
	return func(c *Client) {
		c.saveStrategy = s
	}
}

// WithBatchSaveMany makes SaveRecords delegate to the store's SaveMany.
func WithBatchSaveMany() Option {
	return WithSaveStrategy(SaveStrategyBatch)
}
