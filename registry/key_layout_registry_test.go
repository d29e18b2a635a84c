/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordgate/errors"
)

func TestKeyLayoutDefaults(t *testing.T) {
	ResetKeyLayouts()
	defer ResetKeyLayouts()

	layout := KeyLayout("Note")
	assert.Equal(t, DefaultKeyLayout, layout)

	layout[PartitionKey] = "mutated"
	assert.Equal(t, "{Scope}#{RecordType}", DefaultKeyLayout[PartitionKey], "callers get a copy")
}

func TestRegisterKeyLayout(t *testing.T) {
	ResetKeyLayouts()
	defer ResetKeyLayouts()

	custom := map[string]string{
		PartitionKey: "{Scope}#NOTE",
		SortKey:      "{RecordType}#{RecordName}",
		"GSI1PK":     "OWNER#{owner}",
	}
	require.NoError(t, RegisterKeyLayout("Note", custom))
	assert.Equal(t, custom, KeyLayout("Note"))
	assert.Equal(t, DefaultKeyLayout, KeyLayout("Task"))
}

func TestRegisterKeyLayoutRejectsInvalidLayouts(t *testing.T) {
	ResetKeyLayouts()
	defer ResetKeyLayouts()

	tests := []struct {
		name   string
		layout map[string]string
	}{
		{"missing SK", map[string]string{PartitionKey: "{Scope}"}},
		{"field in PK", map[string]string{PartitionKey: "{owner}", SortKey: "{RecordName}"}},
		{"name in PK", map[string]string{PartitionKey: "{RecordName}", SortKey: "{RecordName}"}},
		{"SK without name", map[string]string{PartitionKey: "{Scope}", SortKey: "{RecordType}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterKeyLayout("Note", tt.layout)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
	assert.Error(t, RegisterKeyLayout("", DefaultKeyLayout))
}

func TestMacros(t *testing.T) {
	assert.Equal(t, []string{"Scope", "owner"}, Macros("{Scope}#OWNER#{owner}"))
	assert.Empty(t, Macros("STATIC"))
}
