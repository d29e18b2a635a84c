/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

// Stream reads the records matching q page by page. Sorting and the limit
// are not applied; the channel is closed when the last page is read, an
// error is sent, or ctx is done.
func (s *Store) Stream(ctx context.Context, q *recordmodels.Query, scope recordmodels.Scope, opts ...recordmodels.StreamOption) <-chan recordmodels.StreamResult {
	if q == nil {
		return errorStream(fmt.Errorf("query must not be nil"))
	}
	if err := q.Validate(); err != nil {
		return errorStream(err)
	}
	pk, err := partitionValue(q.RecordType, scope)
	if err != nil {
		return errorStream(err)
	}
	input, err := s.buildQueryInput(q, scope, registry.PartitionKey, pk)
	if err != nil {
		return errorStream(err)
	}
	return s.stream(ctx, input, s.streamOptions(opts...))
}

func errorStream(err error) <-chan recordmodels.StreamResult {
	ch := make(chan recordmodels.StreamResult, 1)
	ch <- recordmodels.StreamResult{Error: err, Meta: recordmodels.StreamMeta{Timestamp: time.Now()}}
	close(ch)
	return ch
}

func (s *Store) stream(ctx context.Context, input *sdk.QueryInput, options recordmodels.StreamOptions) <-chan recordmodels.StreamResult {
	resultCh := make(chan recordmodels.StreamResult, options.BufferSize)
	go s.streamWorker(ctx, input, options, resultCh)
	return resultCh
}

// streamWorker handles the actual paging
func (s *Store) streamWorker(
	ctx context.Context,
	input *sdk.QueryInput,
	options recordmodels.StreamOptions,
	resultCh chan<- recordmodels.StreamResult,
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	var itemErrors []error
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := recordmodels.StreamProgress{
			ItemsProcessed: atomic.LoadInt64(&itemIndex),
			PagesProcessed: pageNumber,
			Errors:         itemErrors,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	pageInput := *input
	if options.PageSize > 0 {
		pageInput.Limit = aws.Int32(options.PageSize)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := s.queryWithRetry(ctx, &pageInput, options)
		if err != nil {
			select {
			case <-ctx.Done():
			case resultCh <- recordmodels.StreamResult{
				Error: err,
				Meta: recordmodels.StreamMeta{
					Index:      atomic.LoadInt64(&itemIndex),
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}:
			}
			return
		}

		pageNumber++

		for _, item := range out.Items {
			meta := recordmodels.StreamMeta{
				Index:      atomic.LoadInt64(&itemIndex),
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			}
			record, err := decodeRecord(item)
			atomic.AddInt64(&itemIndex, 1)

			select {
			case <-ctx.Done():
				return
			case resultCh <- recordmodels.StreamResult{Record: record, Error: err, Meta: meta}:
			}

			if err != nil {
				itemErrors = append(itemErrors, err)
			}
		}

		reportProgress()

		if len(out.LastEvaluatedKey) == 0 {
			return
		}
		pageInput.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryWithRetry executes one page query, retrying throttling and server errors
func (s *Store) queryWithRetry(ctx context.Context, input *sdk.QueryInput, options recordmodels.StreamOptions) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		out, err := s.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		if attempt < options.MaxRetries {
			if err := sleep(ctx, time.Duration(attempt+1)*options.RetryBackoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ RetryableError() bool }
	if errors.As(err, &retryable) {
		return retryable.RetryableError()
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
