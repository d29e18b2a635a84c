/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"regexp"
	"strings"
	"sync"

	"github.com/suparena/recordgate/errors"
)

// System macros available to every key template. Any other macro names a record field.
const (
	MacroScope      = "Scope"
	MacroRecordType = "RecordType"
	MacroRecordName = "RecordName"
)

// Attribute names of the primary key.
const (
	PartitionKey = "PK"
	SortKey      = "SK"
)

// MacroPattern matches a {macro} inside a key template.
var MacroPattern = regexp.MustCompile(`{([^}]+)}`)

// DefaultKeyLayout partitions records by scope and type and sorts them by name.
var DefaultKeyLayout = map[string]string{
	PartitionKey: "{Scope}#{RecordType}",
	SortKey:      "{RecordName}",
}

var (
	layouts = make(map[string]map[string]string)
	mu      sync.RWMutex
)

// RegisterKeyLayout associates a record type with a key layout. The layout
// must define PK and SK using only system macros, so a record's key can be
// derived from its scope and ID alone. Additional keys, such as GSI1PK, may
// reference record fields.
func RegisterKeyLayout(recordType string, layout map[string]string) error {
	if recordType == "" {
		return errors.NewValidationError("recordType", "must not be empty")
	}
	if err := validateLayout(layout); err != nil {
		return err
	}

	cp := make(map[string]string, len(layout))
	for k, v := range layout {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	layouts[recordType] = cp
	return nil
}

// KeyLayout returns a copy of the layout for recordType, or of DefaultKeyLayout.
func KeyLayout(recordType string) map[string]string {
	mu.RLock()
	layout, ok := layouts[recordType]
	mu.RUnlock()
	if !ok {
		layout = DefaultKeyLayout
	}

	cp := make(map[string]string, len(layout))
	for k, v := range layout {
		cp[k] = v
	}
	return cp
}

// ResetKeyLayouts forgets every registered layout.
func ResetKeyLayouts() {
	mu.Lock()
	defer mu.Unlock()
	layouts = make(map[string]map[string]string)
}

// Macros lists the macro names referenced by template, in order of appearance.
func Macros(template string) []string {
	matches := MacroPattern.FindAllStringSubmatch(template, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func validateLayout(layout map[string]string) error {
	for _, key := range []string{PartitionKey, SortKey} {
		tmpl, ok := layout[key]
		if !ok || tmpl == "" {
			return errors.NewValidationError(key, "key layout must define "+key)
		}
		for _, m := range Macros(tmpl) {
			if !isSystemMacro(m) {
				return errors.NewValidationError(key, "primary key may only use system macros, found {"+m+"}")
			}
		}
	}
	if strings.Contains(layout[PartitionKey], "{"+MacroRecordName+"}") {
		return errors.NewValidationError(PartitionKey, "partition key must not depend on the record name")
	}
	if !strings.Contains(layout[SortKey], "{"+MacroRecordName+"}") {
		return errors.NewValidationError(SortKey, "sort key must contain {RecordName}")
	}
	return nil
}

func isSystemMacro(name string) bool {
	return name == MacroScope || name == MacroRecordType || name == MacroRecordName
}
