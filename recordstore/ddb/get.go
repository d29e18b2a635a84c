/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordgate/recordmodels"
)

// maxBatchGet is the BatchGetItem key limit.
const maxBatchGet = 100

// getMany reads the stored copies of ids with strongly consistent reads.
// Records that do not exist are absent from the result.
func (s *Store) getMany(ctx context.Context, ids []recordmodels.RecordID, scope recordmodels.Scope) (map[recordmodels.RecordID]*recordmodels.Record, error) {
	found := make(map[recordmodels.RecordID]*recordmodels.Record, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		key, err := primaryKey(id, scope)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	for start := 0; start < len(keys); start += maxBatchGet {
		end := min(start+maxBatchGet, len(keys))
		if err := s.batchGet(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// batchGet fetches one batch of keys into found, retrying unprocessed keys
// with the stream retry budget.
func (s *Store) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, found map[recordmodels.RecordID]*recordmodels.Record) error {
	options := s.streamOptions()
	pending := &types.KeysAndAttributes{Keys: keys, ConsistentRead: aws.Bool(true)}

	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx); err != nil {
			return err
		}
		out, err := s.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{s.tableName: *pending},
		})
		if err != nil {
			return fmt.Errorf("BatchGetItem failed: %w", err)
		}

		for _, item := range out.Responses[s.tableName] {
			r, err := decodeRecord(item)
			if err != nil {
				return err
			}
			found[r.ID] = r
		}

		unprocessed, ok := out.UnprocessedKeys[s.tableName]
		if !ok || len(unprocessed.Keys) == 0 {
			return nil
		}
		if attempt >= options.MaxRetries {
			return fmt.Errorf("BatchGetItem left %d unprocessed keys after %d retries", len(unprocessed.Keys), options.MaxRetries)
		}
		pending = &unprocessed
		if err := sleep(ctx, time.Duration(attempt+1)*options.RetryBackoff); err != nil {
			return err
		}
	}
}
