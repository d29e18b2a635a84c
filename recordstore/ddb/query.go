/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

// Query returns every record of q.RecordType in scope that matches q's
// filters. Filters run server side; sorting and the limit are applied once
// all pages are read.
func (s *Store) Query(ctx context.Context, q *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if q == nil {
		return nil, errors.NewValidationError("query", "must not be nil")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	pk, err := partitionValue(q.RecordType, scope)
	if err != nil {
		return nil, err
	}
	input, err := s.buildQueryInput(q, scope, registry.PartitionKey, pk)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, q, input)
}

// QueryByIndex runs q against a registered secondary index, reading the
// partition whose key equals partition.
func (s *Store) QueryByIndex(ctx context.Context, indexName, partition string, q *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if q == nil {
		return nil, errors.NewValidationError("query", "must not be nil")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	cfg, ok := s.Index(indexName)
	if !ok {
		return nil, errors.NewValidationError("index", fmt.Sprintf("unknown index %q", indexName))
	}
	if partition == "" {
		return nil, errors.NewValidationError("partition", "must not be empty")
	}
	input, err := s.buildQueryInput(q, scope, cfg.PartitionKeyName, partition)
	if err != nil {
		return nil, err
	}
	input.IndexName = aws.String(cfg.IndexName)
	return s.collect(ctx, q, input)
}

// collect drains a stream over input into a sorted, limited slice.
func (s *Store) collect(ctx context.Context, q *recordmodels.Query, input *sdk.QueryInput) ([]*recordmodels.Record, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make([]*recordmodels.Record, 0)
	for res := range s.stream(streamCtx, input, s.streamOptions()) {
		if res.Error != nil {
			return nil, res.Error
		}
		records = append(records, res.Record)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if q.SortBy != "" {
		recordmodels.SortRecords(records, q.SortBy, q.Descending)
	}
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

// buildQueryInput translates q into a key condition on keyAttr plus a filter
// expression over the record type, scope and field filters.
func (s *Store) buildQueryInput(q *recordmodels.Query, scope recordmodels.Scope, keyAttr, keyValue string) (*sdk.QueryInput, error) {
	names := map[string]string{
		"#pk": keyAttr,
		"#rt": attrRecordType,
		"#sc": attrScope,
	}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: keyValue},
		":rt": &types.AttributeValueMemberS{Value: q.RecordType},
		":sc": &types.AttributeValueMemberS{Value: scope.String()},
	}
	conditions := []string{"#rt = :rt", "#sc = :sc"}

	if len(q.Filters) > 0 {
		names["#fld"] = attrFields
	}
	for i, f := range q.Filters {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(normalizeValue(f.Value))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter value for %s: %w", f.Field, err)
		}
		names[nameKey] = f.Field
		values[valueKey] = av

		path := "#fld." + nameKey
		if f.Op == recordmodels.OpBeginsWith {
			conditions = append(conditions, fmt.Sprintf("begins_with(%s, %s)", path, valueKey))
		} else {
			conditions = append(conditions, fmt.Sprintf("%s %s %s", path, f.Op, valueKey))
		}
	}

	return &sdk.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		FilterExpression:          aws.String(strings.Join(conditions, " AND ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		// Without SortBy, results keep sort key order.
		ScanIndexForward: aws.Bool(q.SortBy != "" || !q.Descending),
	}, nil
}
