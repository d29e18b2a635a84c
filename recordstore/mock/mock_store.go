/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of recordstore.RemoteStore
// for tests and local use.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/recordstore"
)

var _ recordstore.RemoteStore = (*Store)(nil)

// Operation names recorded in Call.Op.
const (
	OpCheckAccount = "checkAccount"
	OpQuery        = "query"
	OpSave         = "save"
	OpSaveMany     = "saveMany"
	OpModify       = "modify"
)

// Call records one invocation of the store.
type Call struct {
	Op        string
	Scope     recordmodels.Scope
	RecordIDs []recordmodels.RecordID
	DeleteIDs []recordmodels.RecordID
	Policy    recordmodels.SavePolicy
	Query     *recordmodels.Query
}

type itemKey struct {
	scope recordmodels.Scope
	id    recordmodels.RecordID
}

// Store is an in-memory recordstore.RemoteStore. It applies the same save
// policies as the table-backed stores so client behavior can be tested
// without a network.
type Store struct {
	mu          sync.RWMutex
	data        map[itemKey]*recordmodels.Record
	calls       []Call
	status      recordmodels.AccountStatus
	statusError error
	queryError  error
	saveError   error
	saveErrors  map[recordmodels.RecordID]error
	manyError   error
	modifyError error
	latency     func(id recordmodels.RecordID) time.Duration
	now         func() time.Time
	newTag      func() string
}

// New creates a mock store that reports an available account
func New() *Store {
	return &Store{
		data:       make(map[itemKey]*recordmodels.Record),
		saveErrors: make(map[recordmodels.RecordID]error),
		status:     recordmodels.AccountStatusAvailable,
		now:        time.Now,
		newTag:     func() string { return uuid.NewString() },
	}
}

// WithStatus sets the account status reported by CheckAccountAvailability
func (m *Store) WithStatus(status recordmodels.AccountStatus) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	return m
}

// WithStatusError makes CheckAccountAvailability fail
func (m *Store) WithStatusError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusError = err
	return m
}

// WithQueryError makes Query operations return an error
func (m *Store) WithQueryError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
	return m
}

// WithSaveError makes every Save return an error
func (m *Store) WithSaveError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
	return m
}

// WithSaveErrorFor makes Save of one record return an error
func (m *Store) WithSaveErrorFor(id recordmodels.RecordID, err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErrors[id] = err
	return m
}

// WithSaveManyError makes SaveMany operations return an error
func (m *Store) WithSaveManyError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manyError = err
	return m
}

// WithModifyError makes Modify operations return an error
func (m *Store) WithModifyError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifyError = err
	return m
}

// WithLatency delays each Save by the duration returned for the record,
// which lets tests control completion order.
func (m *Store) WithLatency(f func(id recordmodels.RecordID) time.Duration) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = f
	return m
}

// WithClock replaces the time source used for timestamps
func (m *Store) WithClock(now func() time.Time) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// WithChangeTags replaces the change tag generator
func (m *Store) WithChangeTags(newTag func() string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newTag = newTag
	return m
}

// CheckAccountAvailability returns the configured status
func (m *Store) CheckAccountAvailability(ctx context.Context) (recordmodels.AccountStatus, error) {
	m.record(Call{Op: OpCheckAccount})

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.statusError != nil {
		return recordmodels.AccountStatusCouldNotDetermine, m.statusError
	}
	return m.status, nil
}

// Query returns copies of the matching records in scope
func (m *Store) Query(ctx context.Context, query *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if query == nil {
		return nil, errors.NewValidationError("query", "query is required")
	}
	m.record(Call{Op: OpQuery, Scope: scope, Query: query})

	if err := query.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queryError != nil {
		return nil, m.queryError
	}

	results := make([]*recordmodels.Record, 0)
	for k, r := range m.data {
		if k.scope == scope && query.Matches(r) {
			results = append(results, r.Clone())
		}
	}
	recordmodels.SortRecords(results, query.SortBy, query.Descending)
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// Save stores a record if the server copy is unchanged
func (m *Store) Save(ctx context.Context, record *recordmodels.Record, scope recordmodels.Scope) (*recordmodels.Record, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "record is required")
	}
	m.record(Call{Op: OpSave, Scope: scope, RecordIDs: []recordmodels.RecordID{record.ID}})

	if err := m.wait(ctx, record.ID); err != nil {
		return nil, err
	}
	if err := record.ID.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return nil, m.saveError
	}
	if err, ok := m.saveErrors[record.ID]; ok {
		return nil, err
	}
	if err := m.checkUnchanged("save", record, scope); err != nil {
		return nil, err
	}
	return m.put(record, scope), nil
}

// SaveMany overwrites every record and returns them in input order
func (m *Store) SaveMany(ctx context.Context, records []*recordmodels.Record, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	m.record(Call{Op: OpSaveMany, Scope: scope, RecordIDs: recordmodels.RecordIDs(records)})

	req := &recordmodels.ModifyRequest{Save: records}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manyError != nil {
		return nil, m.manyError
	}
	saved := make([]*recordmodels.Record, len(records))
	for i, r := range records {
		saved[i] = m.put(r, scope)
	}
	return saved, nil
}

// Modify applies saves and deletes atomically
func (m *Store) Modify(ctx context.Context, req *recordmodels.ModifyRequest, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if req == nil {
		return nil, errors.NewValidationError("request", "modify request is required")
	}
	m.record(Call{
		Op:        OpModify,
		Scope:     scope,
		RecordIDs: recordmodels.RecordIDs(req.Save),
		DeleteIDs: append([]recordmodels.RecordID(nil), req.Delete...),
		Policy:    req.Policy,
	})

	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modifyError != nil {
		return nil, m.modifyError
	}

	switch req.Policy {
	case recordmodels.SavePolicyIfServerRecordUnchanged:
		for _, r := range req.Save {
			if err := m.checkUnchanged("modify", r, scope); err != nil {
				return nil, err
			}
		}
	case recordmodels.SavePolicyChangedKeys:
		for _, r := range req.Save {
			if _, ok := m.data[itemKey{scope: scope, id: r.ID}]; !ok {
				return nil, errors.NewConditionFailedError("modify", r.ID.String())
			}
		}
	}

	saved := make([]*recordmodels.Record, 0, len(req.Save))
	for _, r := range req.Save {
		if req.Policy == recordmodels.SavePolicyChangedKeys {
			r = merged(m.data[itemKey{scope: scope, id: r.ID}], r)
		}
		saved = append(saved, m.put(r, scope))
	}
	for _, id := range req.Delete {
		delete(m.data, itemKey{scope: scope, id: id})
	}
	return saved, nil
}

// Helper methods for testing

// SetRecords seeds records directly, bypassing save policies
func (m *Store) SetRecords(scope recordmodels.Scope, records ...*recordmodels.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.data[itemKey{scope: scope, id: r.ID}] = r.Clone()
	}
}

// Records returns copies of every record in scope, ordered by name
func (m *Store) Records(scope recordmodels.Scope) []*recordmodels.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*recordmodels.Record, 0, len(m.data))
	for k, r := range m.data {
		if k.scope == scope {
			out = append(out, r.Clone())
		}
	}
	recordmodels.SortRecords(out, "", false)
	return out
}

// Count returns the number of stored records across all scopes
func (m *Store) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all records and recorded calls
func (m *Store) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[itemKey]*recordmodels.Record)
	m.calls = nil
}

// Calls returns a copy of the recorded calls
func (m *Store) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times op was invoked
func (m *Store) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (m *Store) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *Store) wait(ctx context.Context, id recordmodels.RecordID) error {
	m.mu.RLock()
	latency := m.latency
	m.mu.RUnlock()
	if latency == nil {
		return nil
	}

	d := latency(id)
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// checkUnchanged must be called with m.mu held.
func (m *Store) checkUnchanged(op string, r *recordmodels.Record, scope recordmodels.Scope) error {
	existing, exists := m.data[itemKey{scope: scope, id: r.ID}]
	switch {
	case r.IsNew() && exists:
		return errors.NewConditionFailedError(op, r.ID.String())
	case !r.IsNew() && (!exists || existing.ChangeTag != r.ChangeTag):
		return errors.NewConditionFailedError(op, r.ID.String())
	}
	return nil
}

// put must be called with m.mu held.
func (m *Store) put(r *recordmodels.Record, scope recordmodels.Scope) *recordmodels.Record {
	stored := r.Clone()
	if existing, ok := m.data[itemKey{scope: scope, id: r.ID}]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	stored.Stamp(m.newTag(), m.now())
	m.data[itemKey{scope: scope, id: r.ID}] = stored
	return stored.Clone()
}

// merged applies the fields of changes on top of a copy of existing. A nil
// value removes the field.
func merged(existing, changes *recordmodels.Record) *recordmodels.Record {
	out := existing.Clone()
	for k, v := range changes.Fields {
		if v == nil {
			delete(out.Fields, k)
			continue
		}
		out.Fields[k] = v
	}
	return out
}
