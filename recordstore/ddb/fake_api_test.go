/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is a scripted DynamoDB client. Each *Fn field, when set, decides
// the response; every input is recorded.
type fakeAPI struct {
	mu sync.Mutex

	describeFn func(*sdk.DescribeTableInput) (*sdk.DescribeTableOutput, error)
	queryFn    func(call int, in *sdk.QueryInput) (*sdk.QueryOutput, error)
	putFn      func(*sdk.PutItemInput) (*sdk.PutItemOutput, error)
	getFn      func(call int, in *sdk.BatchGetItemInput) (*sdk.BatchGetItemOutput, error)
	batchFn    func(call int, in *sdk.BatchWriteItemInput) (*sdk.BatchWriteItemOutput, error)
	transactFn func(*sdk.TransactWriteItemsInput) (*sdk.TransactWriteItemsOutput, error)

	queries   []*sdk.QueryInput
	puts      []*sdk.PutItemInput
	gets      []*sdk.BatchGetItemInput
	batches   []*sdk.BatchWriteItemInput
	transacts []*sdk.TransactWriteItemsInput
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	if f.describeFn == nil {
		return &sdk.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusActive}}, nil
	}
	return f.describeFn(in)
}

func (f *fakeAPI) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	// Copy, since the stream worker reuses its input between pages.
	cp := *in
	f.queries = append(f.queries, &cp)
	call := len(f.queries) - 1
	f.mu.Unlock()

	if f.queryFn == nil {
		return &sdk.QueryOutput{}, nil
	}
	return f.queryFn(call, in)
}

func (f *fakeAPI) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	f.puts = append(f.puts, in)
	f.mu.Unlock()

	if f.putFn == nil {
		return &sdk.PutItemOutput{}, nil
	}
	return f.putFn(in)
}

func (f *fakeAPI) BatchGetItem(_ context.Context, in *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	f.mu.Lock()
	f.gets = append(f.gets, in)
	call := len(f.gets) - 1
	f.mu.Unlock()

	if f.getFn == nil {
		return &sdk.BatchGetItemOutput{}, nil
	}
	return f.getFn(call, in)
}

func (f *fakeAPI) BatchWriteItem(_ context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	f.batches = append(f.batches, in)
	call := len(f.batches) - 1
	f.mu.Unlock()

	if f.batchFn == nil {
		return &sdk.BatchWriteItemOutput{}, nil
	}
	return f.batchFn(call, in)
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	f.transacts = append(f.transacts, in)
	f.mu.Unlock()

	if f.transactFn == nil {
		return &sdk.TransactWriteItemsOutput{}, nil
	}
	return f.transactFn(in)
}

// pagesOf returns a queryFn serving pages in order, chaining them with a
// dummy LastEvaluatedKey.
func pagesOf(pages ...[]map[string]types.AttributeValue) func(int, *sdk.QueryInput) (*sdk.QueryOutput, error) {
	return func(call int, _ *sdk.QueryInput) (*sdk.QueryOutput, error) {
		if call >= len(pages) {
			return &sdk.QueryOutput{}, nil
		}
		out := &sdk.QueryOutput{Items: pages[call]}
		if call < len(pages)-1 {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: "page"},
			}
		}
		return out, nil
	}
}
