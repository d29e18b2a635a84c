/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordmodels

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordgate/errors"
)

// Operator is a comparison applied by a Filter.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "<>"
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpBeginsWith     Operator = "begins_with"
)

var validOperators = map[Operator]struct{}{
	OpEqual: {}, OpNotEqual: {}, OpLessThan: {}, OpLessOrEqual: {},
	OpGreaterThan: {}, OpGreaterOrEqual: {}, OpBeginsWith: {},
}

// ParseOperator accepts the operator spellings used on the command line.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "=", "==":
		return OpEqual, nil
	case "!=", "<>":
		return OpNotEqual, nil
	case "^=", "begins_with":
		return OpBeginsWith, nil
	}
	op := Operator(s)
	if _, ok := validOperators[op]; !ok {
		return "", errors.NewValidationError("operator", fmt.Sprintf("unsupported operator %q", s))
	}
	return op, nil
}

// Filter compares a record field against a value.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Query selects records of one type, optionally filtered, sorted and limited.
type Query struct {
	RecordType string
	Filters    []Filter
	SortBy     string
	Descending bool
	Limit      int
}

// NewQuery returns a query matching every record of recordType.
func NewQuery(recordType string) *Query {
	return &Query{RecordType: recordType}
}

// Where adds a filter; all filters must match.
func (q *Query) Where(field string, op Operator, value any) *Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sorts results on a field.
func (q *Query) OrderBy(field string, descending bool) *Query {
	q.SortBy = field
	q.Descending = descending
	return q
}

// WithLimit caps the number of results; zero means unlimited.
func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// Validate checks the query can be executed by a store.
func (q *Query) Validate() error {
	if q.RecordType == "" {
		return errors.NewValidationError("recordType", "must not be empty")
	}
	if strings.ContainsAny(q.RecordType, "/#") {
		return errors.NewValidationError("recordType", "must not contain '/' or '#'")
	}
	if q.Limit < 0 {
		return errors.NewValidationError("limit", "must not be negative")
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return errors.NewValidationError("filter", "field must not be empty")
		}
		if _, ok := validOperators[f.Op]; !ok {
			return errors.NewValidationError("filter", fmt.Sprintf("unsupported operator %q", f.Op))
		}
		if f.Op == OpBeginsWith {
			if _, ok := f.Value.(string); !ok {
				return errors.NewValidationError("filter", "begins_with needs a string value")
			}
		}
	}
	return nil
}

// Matches evaluates the query against a record in memory.
func (q *Query) Matches(r *Record) bool {
	if r == nil || r.ID.RecordType != q.RecordType {
		return false
	}
	for _, f := range q.Filters {
		v, ok := r.Fields[f.Field]
		if !ok {
			return false
		}
		if !f.matches(v) {
			return false
		}
	}
	return true
}

func (f Filter) matches(v any) bool {
	if f.Op == OpBeginsWith {
		s, ok := v.(string)
		prefix, _ := f.Value.(string)
		return ok && strings.HasPrefix(s, prefix)
	}
	cmp, ok := CompareValues(v, f.Value)
	if !ok {
		// Values of different kinds are only ever "not equal".
		return f.Op == OpNotEqual
	}
	switch f.Op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpLessThan:
		return cmp < 0
	case OpLessOrEqual:
		return cmp <= 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterOrEqual:
		return cmp >= 0
	}
	return false
}

// CompareValues orders two field values of the same kind. Numbers of any Go
// numeric type compare with each other; strings, bools and timestamps compare
// with their own kind. ok is false when the kinds differ.
func CompareValues(a, b any) (cmp int, ok bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		return compareOrdered(af, bf), true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}
	if at, aok := toTime(a); aok {
		bt, bok := toTime(b)
		if !bok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	return 0, false
}

func compareOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case strfmt.DateTime:
		return time.Time(t), true
	case *strfmt.DateTime:
		if t == nil {
			return time.Time{}, false
		}
		return time.Time(*t), true
	}
	return time.Time{}, false
}

// SortRecords orders records by field, falling back to record name so the
// order is deterministic. Records missing the field sort first in ascending
// order and last in descending order.
func SortRecords(records []*Record, field string, descending bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if field != "" {
			av, aok := a.Fields[field]
			bv, bok := b.Fields[field]
			switch {
			case !aok && bok:
				return !descending
			case aok && !bok:
				return descending
			case aok && bok:
				if cmp, ok := CompareValues(av, bv); ok && cmp != 0 {
					if descending {
						return cmp > 0
					}
					return cmp < 0
				}
			}
		}
		if descending {
			return a.ID.RecordName > b.ID.RecordName
		}
		return a.ID.RecordName < b.ID.RecordName
	})
}
