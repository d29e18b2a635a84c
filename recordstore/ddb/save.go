/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

// maxBatchWrite is the BatchWriteItem request limit.
const maxBatchWrite = 25

// Save writes one record unless the server copy changed since the caller
// read it. A new record may only be created, never overwrite.
func (s *Store) Save(ctx context.Context, record *recordmodels.Record, scope recordmodels.Scope) (*recordmodels.Record, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "must not be nil")
	}
	if err := record.ID.Validate(); err != nil {
		return nil, err
	}

	saved := s.stamped(record)
	item, err := encodeRecord(saved, scope)
	if err != nil {
		return nil, err
	}

	cond, names, values := unchangedCondition(record)
	input := &sdk.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return nil, errors.NewConditionFailedError("save", record.ID.String())
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return saved, nil
}

// SaveMany overwrites records with BatchWriteItem, 25 at a time. Batches are
// not atomic: an error may leave earlier batches written. BatchWriteItem only
// puts whole items, so the stored CreatedAt of existing records is read first
// and carried over.
func (s *Store) SaveMany(ctx context.Context, records []*recordmodels.Record, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if err := (&recordmodels.ModifyRequest{Save: records}).Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*recordmodels.Record{}, nil
	}

	existing, err := s.getMany(ctx, recordmodels.RecordIDs(records), scope)
	if err != nil {
		return nil, err
	}

	saved := make([]*recordmodels.Record, len(records))
	requests := make([]types.WriteRequest, len(records))
	for i, r := range records {
		if stored, ok := existing[r.ID]; ok {
			r = r.Clone()
			r.CreatedAt = stored.CreatedAt
		}
		saved[i] = s.stamped(r)
		item, err := encodeRecord(saved[i], scope)
		if err != nil {
			return nil, err
		}
		requests[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
	}

	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		if err := s.batchWrite(ctx, requests[start:end]); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

// batchWrite sends one batch, resubmitting unprocessed items with the
// stream retry budget.
func (s *Store) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	options := s.streamOptions()
	pending := requests

	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx); err != nil {
			return err
		}
		out, err := s.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.tableName: pending},
		})
		if err != nil {
			return fmt.Errorf("BatchWriteItem failed: %w", err)
		}

		pending = out.UnprocessedItems[s.tableName]
		if len(pending) == 0 {
			return nil
		}
		if attempt >= options.MaxRetries {
			return fmt.Errorf("BatchWriteItem left %d unprocessed items after %d retries", len(pending), options.MaxRetries)
		}
		if err := sleep(ctx, time.Duration(attempt+1)*options.RetryBackoff); err != nil {
			return err
		}
	}
}

// unchangedCondition builds the IfServerRecordUnchanged condition for r.
func unchangedCondition(r *recordmodels.Record) (*string, map[string]string, map[string]types.AttributeValue) {
	if r.IsNew() {
		return aws.String("attribute_not_exists(#pk)"), map[string]string{"#pk": registry.PartitionKey}, nil
	}
	return aws.String("#tag = :prev"),
		map[string]string{"#tag": attrChangeTag},
		map[string]types.AttributeValue{":prev": &types.AttributeValueMemberS{Value: r.ChangeTag}}
}
