/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordmodels

import (
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordgate/errors"
)

// RecordID identifies a record within a scope.
type RecordID struct {
	RecordType string `json:"recordType"`
	RecordName string `json:"recordName"`
}

// NewRecordID returns the ID of the record named name of type recordType.
func NewRecordID(recordType, recordName string) RecordID {
	return RecordID{RecordType: recordType, RecordName: recordName}
}

// String renders the ID as "type/name".
func (id RecordID) String() string {
	return id.RecordType + "/" + id.RecordName
}

// Validate checks that both parts are present and the type can be used in keys.
func (id RecordID) Validate() error {
	if id.RecordType == "" {
		return errors.NewValidationError("recordType", "must not be empty")
	}
	if strings.ContainsAny(id.RecordType, "/#") {
		return errors.NewValidationError("recordType", "must not contain '/' or '#'")
	}
	if id.RecordName == "" {
		return errors.NewValidationError("recordName", "must not be empty")
	}
	return nil
}

// ParseRecordID parses the "type/name" form produced by String.
func ParseRecordID(s string) (RecordID, error) {
	recordType, recordName, ok := strings.Cut(s, "/")
	if !ok {
		return RecordID{}, errors.NewValidationError("recordID", "expected type/name, got "+s)
	}
	id := NewRecordID(recordType, recordName)
	if err := id.Validate(); err != nil {
		return RecordID{}, err
	}
	return id, nil
}

// Record is a key-value entity persisted in the remote store.
//
// ChangeTag, CreatedAt and ModifiedAt are assigned by the store on every
// successful write; callers should treat them as read-only.
type Record struct {
	ID         RecordID        `json:"id"`
	Fields     map[string]any  `json:"fields"`
	ChangeTag  string          `json:"changeTag,omitempty"`
	CreatedAt  strfmt.DateTime `json:"createdAt"`
	ModifiedAt strfmt.DateTime `json:"modifiedAt"`
}

// NewRecord creates an unsaved record with no fields.
func NewRecord(recordType, recordName string) *Record {
	return &Record{
		ID:     NewRecordID(recordType, recordName),
		Fields: make(map[string]any),
	}
}

// Set assigns a field value.
func (r *Record) Set(field string, value any) *Record {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[field] = value
	return r
}

// Get returns a field value.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// IsNew reports whether the record has never been written by a store.
func (r *Record) IsNew() bool {
	return r.ChangeTag == ""
}

// Clone returns a copy whose Fields map can be modified independently.
// Field values themselves are not deep-copied.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Stamp applies the server-assigned system fields for a write at now.
func (r *Record) Stamp(changeTag string, now time.Time) {
	if time.Time(r.CreatedAt).IsZero() {
		r.CreatedAt = strfmt.DateTime(now)
	}
	r.ModifiedAt = strfmt.DateTime(now)
	r.ChangeTag = changeTag
}

// RecordIDs collects the IDs of records, skipping nil entries.
func RecordIDs(records []*Record) []RecordID {
	ids := make([]RecordID, 0, len(records))
	for _, r := range records {
		if r != nil {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// SavePolicy controls how a write treats the record already on the server.
type SavePolicy int

const (
	// SavePolicyIfServerRecordUnchanged rejects the write unless the caller's
	// ChangeTag matches the server's (or the record is new and absent).
	SavePolicyIfServerRecordUnchanged SavePolicy = iota
	// SavePolicyChangedKeys merges the record's fields into the existing
	// server record without checking its ChangeTag. A nil field value removes
	// that field. The record must already exist.
	SavePolicyChangedKeys
	// SavePolicyAllKeys overwrites every field of the server record.
	SavePolicyAllKeys
)

func (p SavePolicy) String() string {
	switch p {
	case SavePolicyChangedKeys:
		return "changedKeys"
	case SavePolicyAllKeys:
		return "allKeys"
	default:
		return "ifServerRecordUnchanged"
	}
}

// ModifyRequest pairs records to upsert with record IDs to delete.
// Either list may be empty; a request with only deletions is a pure delete.
type ModifyRequest struct {
	Save   []*Record
	Delete []RecordID
	Policy SavePolicy
}

// IsEmpty reports whether the request neither saves nor deletes anything.
func (m *ModifyRequest) IsEmpty() bool {
	return len(m.Save) == 0 && len(m.Delete) == 0
}

// Validate checks every record and ID and rejects duplicates, which no store
// can apply atomically.
func (m *ModifyRequest) Validate() error {
	seen := make(map[RecordID]struct{}, len(m.Save)+len(m.Delete))
	for _, r := range m.Save {
		if r == nil {
			return errors.NewValidationError("save", "nil record")
		}
		if err := r.ID.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return errors.NewValidationError("save", "duplicate record "+r.ID.String())
		}
		seen[r.ID] = struct{}{}
	}
	for _, id := range m.Delete {
		if err := id.Validate(); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return errors.NewValidationError("delete", "duplicate record "+id.String())
		}
		seen[id] = struct{}{}
	}
	return nil
}
