/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgate

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/notify"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/recordstore"
)

// Operation names reported in errors and diagnostic events.
const (
	OpFetchRecords  = "fetchRecords"
	OpSaveRecord    = "saveRecord"
	OpSaveRecords   = "saveRecords"
	OpUpdateRecord  = "updateRecord"
	OpUpdateRecords = "updateRecords"
)

var errNoRecord = stderrors.New("store returned no record")

// Client gates every record operation behind a fresh account status check
// and then delegates to the remote store in a fixed scope.
//
// A Client is safe for concurrent use.
type Client struct {
	store        recordstore.RemoteStore
	scope        recordmodels.Scope
	check        recordstore.AccountCheckFunc
	notifier     notify.Notifier
	saveStrategy SaveStrategy
}

// New creates a client for store that targets scope.
func New(store recordstore.RemoteStore, scope recordmodels.Scope, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", "must not be nil")
	}
	if !scope.Valid() {
		return nil, errors.NewValidationError("scope", fmt.Sprintf("unknown scope %d", scope))
	}

	c := &Client{
		store:    store,
		scope:    scope,
		check:    store.CheckAccountAvailability,
		notifier: notify.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notifier = notify.Safe(c.notifier)
	return c, nil
}

// Scope returns the scope every store call targets.
func (c *Client) Scope() recordmodels.Scope {
	return c.scope
}

// FetchRecords returns the records matching q, exactly as the store returned them.
func (c *Client) FetchRecords(ctx context.Context, q *recordmodels.Query) ([]*recordmodels.Record, error) {
	start := time.Now()
	records, err := c.fetchRecords(ctx, q)
	ev := c.event(OpFetchRecords, nil, len(records), start, err)
	if q != nil {
		ev.RecordType = q.RecordType
	}
	c.notifier.Notify(ctx, ev)
	return records, err
}

func (c *Client) fetchRecords(ctx context.Context, q *recordmodels.Query) ([]*recordmodels.Record, error) {
	if q == nil {
		return nil, errors.NewValidationError("query", "must not be nil")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.gate(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.Query(ctx, q, c.scope)
	if err != nil {
		return nil, errors.NewStoreOperationError(OpFetchRecords, nil, err)
	}
	return records, nil
}

// SaveRecord saves one record under the store's default policy and returns
// the persisted copy with server-assigned fields.
func (c *Client) SaveRecord(ctx context.Context, record *recordmodels.Record) (*recordmodels.Record, error) {
	start := time.Now()
	saved, err := c.saveRecord(ctx, record)
	c.emit(ctx, OpSaveRecord, idsOf(record), count(saved), start, err)
	return saved, err
}

func (c *Client) saveRecord(ctx context.Context, record *recordmodels.Record) (*recordmodels.Record, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "must not be nil")
	}
	if err := record.ID.Validate(); err != nil {
		return nil, err
	}
	if err := c.gate(ctx); err != nil {
		return nil, err
	}

	saved, err := c.store.Save(ctx, record, c.scope)
	if err == nil && saved == nil {
		err = errNoRecord
	}
	if err != nil {
		return nil, errors.NewStoreOperationError(OpSaveRecord, []string{record.ID.String()}, err)
	}
	return saved, nil
}

// SaveRecords saves every record and returns the persisted copies in input
// order. The first failure fails the whole batch and no records are
// returned; saves already in flight still run to completion.
func (c *Client) SaveRecords(ctx context.Context, records []*recordmodels.Record) ([]*recordmodels.Record, error) {
	start := time.Now()
	saved, err := c.saveRecords(ctx, records)
	c.emit(ctx, OpSaveRecords, recordmodels.RecordIDs(records), len(saved), start, err)
	return saved, err
}

func (c *Client) saveRecords(ctx context.Context, records []*recordmodels.Record) ([]*recordmodels.Record, error) {
	if err := (&recordmodels.ModifyRequest{Save: records}).Validate(); err != nil {
		return nil, err
	}
	if err := c.gate(ctx); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*recordmodels.Record{}, nil
	}

	if c.saveStrategy == SaveStrategyBatch {
		saved, err := c.store.SaveMany(ctx, records, c.scope)
		if err == nil && len(saved) != len(records) {
			err = fmt.Errorf("store returned %d records for %d saves", len(saved), len(records))
		}
		if err != nil {
			return nil, errors.NewStoreOperationError(OpSaveRecords, idStrings(recordmodels.RecordIDs(records)), err)
		}
		return saved, nil
	}

	// Each goroutine owns one slot, so no lock is needed and results stay
	// aligned with their inputs whatever the completion order.
	results := make([]*recordmodels.Record, len(records))
	var g errgroup.Group
	for i, r := range records {
		g.Go(func() error {
			saved, err := c.store.Save(ctx, r, c.scope)
			if err == nil && saved == nil {
				err = errNoRecord
			}
			if err != nil {
				return errors.NewStoreOperationError(OpSaveRecords, []string{r.ID.String()}, err)
			}
			results[i] = saved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateRecord overwrites every field of the server copy of record.
func (c *Client) UpdateRecord(ctx context.Context, record *recordmodels.Record) (*recordmodels.Record, error) {
	start := time.Now()
	saved, err := c.updateRecord(ctx, record)
	c.emit(ctx, OpUpdateRecord, idsOf(record), count(saved), start, err)
	return saved, err
}

func (c *Client) updateRecord(ctx context.Context, record *recordmodels.Record) (*recordmodels.Record, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "must not be nil")
	}
	if err := record.ID.Validate(); err != nil {
		return nil, err
	}
	if err := c.gate(ctx); err != nil {
		return nil, err
	}

	saved, err := c.store.Modify(ctx, &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{record},
		Policy: recordmodels.SavePolicyAllKeys,
	}, c.scope)
	if err == nil && (len(saved) == 0 || saved[0] == nil) {
		err = errNoRecord
	}
	if err != nil {
		return nil, errors.NewStoreOperationError(OpUpdateRecord, []string{record.ID.String()}, err)
	}
	return saved[0], nil
}

// UpdateRecords overwrites the records in save and deletes the records in
// del in one store modify call. Either slice may be nil; deletions produce
// no entries in the result.
func (c *Client) UpdateRecords(ctx context.Context, save, del []*recordmodels.Record) ([]*recordmodels.Record, error) {
	start := time.Now()
	ids := append(recordmodels.RecordIDs(save), recordmodels.RecordIDs(del)...)
	saved, err := c.updateRecords(ctx, save, del)
	c.emit(ctx, OpUpdateRecords, ids, len(saved), start, err)
	return saved, err
}

func (c *Client) updateRecords(ctx context.Context, save, del []*recordmodels.Record) ([]*recordmodels.Record, error) {
	for _, r := range del {
		if r == nil {
			return nil, errors.NewValidationError("delete", "nil record")
		}
	}
	req := &recordmodels.ModifyRequest{
		Save:   save,
		Delete: recordmodels.RecordIDs(del),
		Policy: recordmodels.SavePolicyAllKeys,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := c.gate(ctx); err != nil {
		return nil, err
	}

	saved, err := c.store.Modify(ctx, req, c.scope)
	if err != nil {
		ids := append(recordmodels.RecordIDs(save), req.Delete...)
		return nil, errors.NewStoreOperationError(OpUpdateRecords, idStrings(ids), err)
	}
	if saved == nil {
		saved = []*recordmodels.Record{}
	}
	return saved, nil
}

// gate resolves the account status. It returns nil only for an available
// account.
func (c *Client) gate(ctx context.Context) error {
	status, err := c.check(ctx)
	if err != nil {
		return errors.NewStatusResolutionError(err)
	}
	if status != recordmodels.AccountStatusAvailable {
		return errors.NewAccountUnavailableError(status.String())
	}
	return nil
}

func (c *Client) emit(ctx context.Context, op string, ids []recordmodels.RecordID, n int, start time.Time, err error) {
	c.notifier.Notify(ctx, c.event(op, ids, n, start, err))
}

// event describes the terminal outcome of one operation.
func (c *Client) event(op string, ids []recordmodels.RecordID, n int, start time.Time, err error) notify.Event {
	ev := notify.Event{
		Operation: op,
		Outcome:   notify.OutcomeSuccess,
		Scope:     c.scope.String(),
		RecordIDs: idStrings(ids),
		Duration:  time.Since(start),
	}
	if err != nil {
		ev.Err = err
		ev.Outcome = notify.OutcomeFailure
		if status, ok := errors.AccountStatusOf(err); ok {
			ev.Outcome = notify.OutcomeUnavailable
			ev.Status = status
		}
	} else {
		ev.Count = n
	}
	return ev
}

func idsOf(r *recordmodels.Record) []recordmodels.RecordID {
	if r == nil {
		return nil
	}
	return []recordmodels.RecordID{r.ID}
}

func idStrings(ids []recordmodels.RecordID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func count(r *recordmodels.Record) int {
	if r == nil {
		return 0
	}
	return 1
}
