/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/recordgate/recordmodels"
)

// Longer operators first so ">=" is not read as ">".
var filterOperators = []string{">=", "<=", "<>", "!=", "==", "^=", "=", "<", ">"}

// parseFields turns key=value arguments into record fields.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", p)
		}
		fields[key] = parseValue(raw)
	}
	return fields, nil
}

// parseValue reads integers, floats and booleans; anything else, or any
// double-quoted text, is a string.
func parseValue(raw string) any {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if !strings.ContainsAny(raw, "0123456789") {
		return raw
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// parseFilter reads "field<op>value", e.g. "rank>=3" or "title^=Re".
func parseFilter(expr string) (recordmodels.Filter, error) {
	at, opText := -1, ""
	for _, op := range filterOperators {
		if i := strings.Index(expr, op); i > 0 && (at == -1 || i < at) {
			at, opText = i, op
		}
	}
	if at == -1 {
		return recordmodels.Filter{}, fmt.Errorf("invalid filter %q, expected field<op>value", expr)
	}

	op, err := recordmodels.ParseOperator(opText)
	if err != nil {
		return recordmodels.Filter{}, err
	}
	field := strings.TrimSpace(expr[:at])
	raw := strings.TrimSpace(expr[at+len(opText):])

	var value any = raw
	if op != recordmodels.OpBeginsWith {
		value = parseValue(raw)
	}
	return recordmodels.Filter{Field: field, Op: op, Value: value}, nil
}
