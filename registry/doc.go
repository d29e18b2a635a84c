/*
Package registry manages per-record-type key layouts for table-backed stores.

A key layout maps item attribute names to templates. Templates use {macro}
placeholders that expand to the record's scope, type, name or field values:

	registry.RegisterKeyLayout("Note", map[string]string{
	    "PK":     "{Scope}#NOTE",
	    "SK":     "{RecordType}#{RecordName}",
	    "GSI1PK": "OWNER#{owner}",
	    "GSI1SK": "{RecordName}",
	})

Record types without a registered layout use DefaultKeyLayout:

	PK = "{Scope}#{RecordType}"
	SK = "{RecordName}"

The primary key may only use system macros so deletes by ID work without
the record body. The registry is thread-safe and is normally populated during
initialization.
*/
package registry
