/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

// Attributes written next to the key attributes of every item.
const (
	attrScope      = "Scope"
	attrRecordType = "RecordType"
	attrRecordName = "RecordName"
	attrChangeTag  = "ChangeTag"
	attrCreatedAt  = "CreatedAt"
	attrModifiedAt = "ModifiedAt"
	attrFields     = "Fields"
)

// macroValues returns the strings a key template can expand to for a record.
// Fields that are not scalars are left out, so templates referencing them
// cannot be expanded.
func macroValues(id recordmodels.RecordID, fields map[string]any, scope recordmodels.Scope) map[string]string {
	values := make(map[string]string, len(fields)+3)
	for k, v := range fields {
		switch tv := v.(type) {
		case string:
			values[k] = tv
		case bool:
			values[k] = fmt.Sprintf("%v", tv)
		case strfmt.DateTime:
			values[k] = time.Time(tv).UTC().Format(time.RFC3339Nano)
		case time.Time:
			values[k] = tv.UTC().Format(time.RFC3339Nano)
		default:
			if isNumber(v) {
				values[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	values[registry.MacroScope] = scope.KeyPrefix()
	values[registry.MacroRecordType] = id.RecordType
	values[registry.MacroRecordName] = id.RecordName
	return values
}

// expandTemplate substitutes every {macro} in tmpl. ok is false if any macro
// has no value.
func expandTemplate(tmpl string, values map[string]string) (string, bool) {
	ok := true
	expanded := registry.MacroPattern.ReplaceAllStringFunc(tmpl, func(macro string) string {
		v, found := values[strings.Trim(macro, "{}")]
		if !found {
			ok = false
		}
		return v
	})
	return expanded, ok
}

// primaryKey returns the PK/SK attributes of id in scope.
func primaryKey(id recordmodels.RecordID, scope recordmodels.Scope) (map[string]types.AttributeValue, error) {
	layout := registry.KeyLayout(id.RecordType)
	values := macroValues(id, nil, scope)

	key := make(map[string]types.AttributeValue, 2)
	for _, name := range []string{registry.PartitionKey, registry.SortKey} {
		v, ok := expandTemplate(layout[name], values)
		if !ok {
			return nil, fmt.Errorf("cannot expand %s template %q for %s", name, layout[name], id)
		}
		key[name] = &types.AttributeValueMemberS{Value: v}
	}
	return key, nil
}

// partitionValue returns the partition key shared by every record of
// recordType in scope.
func partitionValue(recordType string, scope recordmodels.Scope) (string, error) {
	layout := registry.KeyLayout(recordType)
	values := macroValues(recordmodels.RecordID{RecordType: recordType}, nil, scope)
	delete(values, registry.MacroRecordName)

	v, ok := expandTemplate(layout[registry.PartitionKey], values)
	if !ok {
		return "", fmt.Errorf("cannot expand %s template %q for type %s", registry.PartitionKey, layout[registry.PartitionKey], recordType)
	}
	return v, nil
}

// encodeRecord converts a stamped record into a DynamoDB item. Secondary key
// attributes are written only when every macro of their template resolves.
func encodeRecord(r *recordmodels.Record, scope recordmodels.Scope) (map[string]types.AttributeValue, error) {
	fields, err := attributevalue.MarshalMap(normalizeFields(r.Fields))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields of %s: %w", r.ID, err)
	}

	layout := registry.KeyLayout(r.ID.RecordType)
	values := macroValues(r.ID, r.Fields, scope)

	item := make(map[string]types.AttributeValue, len(layout)+7)
	for name, tmpl := range layout {
		v, ok := expandTemplate(tmpl, values)
		if !ok {
			if name == registry.PartitionKey || name == registry.SortKey {
				return nil, fmt.Errorf("cannot expand %s template %q for %s", name, tmpl, r.ID)
			}
			continue
		}
		item[name] = &types.AttributeValueMemberS{Value: v}
	}

	item[attrScope] = &types.AttributeValueMemberS{Value: scope.String()}
	item[attrRecordType] = &types.AttributeValueMemberS{Value: r.ID.RecordType}
	item[attrRecordName] = &types.AttributeValueMemberS{Value: r.ID.RecordName}
	item[attrChangeTag] = &types.AttributeValueMemberS{Value: r.ChangeTag}
	item[attrCreatedAt] = &types.AttributeValueMemberS{Value: formatTime(r.CreatedAt)}
	item[attrModifiedAt] = &types.AttributeValueMemberS{Value: formatTime(r.ModifiedAt)}
	item[attrFields] = &types.AttributeValueMemberM{Value: fields}
	return item, nil
}

// decodeRecord converts an item written by encodeRecord back into a record.
// Numbers in Fields decode as float64 and timestamps as strings.
func decodeRecord(item map[string]types.AttributeValue) (*recordmodels.Record, error) {
	var r recordmodels.Record
	var err error

	if r.ID.RecordType, err = stringAttr(item, attrRecordType); err != nil {
		return nil, err
	}
	if r.ID.RecordName, err = stringAttr(item, attrRecordName); err != nil {
		return nil, err
	}
	if r.ChangeTag, err = stringAttr(item, attrChangeTag); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = timeAttr(item, attrCreatedAt); err != nil {
		return nil, err
	}
	if r.ModifiedAt, err = timeAttr(item, attrModifiedAt); err != nil {
		return nil, err
	}

	r.Fields = make(map[string]any)
	if av, ok := item[attrFields]; ok {
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			return nil, fmt.Errorf("attribute %s of %s is not a map", attrFields, r.ID)
		}
		if err := attributevalue.UnmarshalMap(m.Value, &r.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// normalizeFields replaces timestamp values, which attributevalue would
// encode as empty maps, with their RFC 3339 form.
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch tv := v.(type) {
	case strfmt.DateTime:
		return formatTime(tv)
	case *strfmt.DateTime:
		if tv == nil {
			return nil
		}
		return formatTime(*tv)
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func formatTime(t strfmt.DateTime) string {
	return time.Time(t).UTC().Format(time.RFC3339Nano)
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	av, ok := item[name]
	if !ok {
		return "", fmt.Errorf("item has no %s attribute", name)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %s is not a string", name)
	}
	return s.Value, nil
}

func timeAttr(item map[string]types.AttributeValue, name string) (strfmt.DateTime, error) {
	s, err := stringAttr(item, name)
	if err != nil {
		return strfmt.DateTime{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return strfmt.DateTime{}, fmt.Errorf("attribute %s: %w", name, err)
	}
	return strfmt.DateTime(t), nil
}

// isNumber reports whether v is of a Go numeric type.
func isNumber(v any) bool {
	_, ok := recordmodels.CompareValues(v, 0)
	return ok
}
