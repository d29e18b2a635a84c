/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(api API, opts ...Option) *Store {
	n := 0
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithChangeTags(func() string { n++; return fmt.Sprintf("tag-%d", n) }),
		fastRetries(),
	}, opts...)
	return New(api, "records", opts...)
}

func TestSaveNewRecordMustNotExist(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	in := recordmodels.NewRecord("Note", "n1").Set("title", "hello")
	saved, err := store.Save(context.Background(), in, recordmodels.ScopePrivate)
	require.NoError(t, err)

	assert.Equal(t, "tag-1", saved.ChangeTag)
	assert.True(t, time.Time(saved.CreatedAt).Equal(fixedNow))
	assert.True(t, in.IsNew(), "input record must not be modified")

	require.Len(t, api.puts, 1)
	put := api.puts[0]
	assert.Equal(t, "attribute_not_exists(#pk)", *put.ConditionExpression)
	assert.Equal(t, "PK", put.ExpressionAttributeNames["#pk"])
	assert.Equal(t, "tag-1", sAttr(t, put.Item, attrChangeTag))
}

func TestSaveExistingRecordChecksChangeTag(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	in := recordmodels.NewRecord("Note", "n1")
	in.ChangeTag = "server-tag"
	in.CreatedAt = strfmtTime(fixedNow.Add(-time.Hour))

	saved, err := store.Save(context.Background(), in, recordmodels.ScopePrivate)
	require.NoError(t, err)
	assert.True(t, time.Time(saved.CreatedAt).Equal(fixedNow.Add(-time.Hour)))

	put := api.puts[0]
	assert.Equal(t, "#tag = :prev", *put.ConditionExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "server-tag"}, put.ExpressionAttributeValues[":prev"])
}

func TestSaveConditionFailure(t *testing.T) {
	api := &fakeAPI{putFn: func(*sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}}
	store := newTestStore(api)

	_, err := store.Save(context.Background(), recordmodels.NewRecord("Note", "n1"), recordmodels.ScopePrivate)
	require.Error(t, err)
	assert.True(t, rgerrors.IsConditionFailed(err))
	assert.Contains(t, err.Error(), "Note/n1")
}

func TestSaveOtherFailure(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{putFn: func(*sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return nil, boom
	}}
	store := newTestStore(api)

	_, err := store.Save(context.Background(), recordmodels.NewRecord("Note", "n1"), recordmodels.ScopePrivate)
	assert.ErrorIs(t, err, boom)
	assert.False(t, rgerrors.IsConditionFailed(err))
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	_, err := store.Save(context.Background(), nil, recordmodels.ScopePrivate)
	assert.True(t, rgerrors.IsValidationError(err))
	_, err = store.Save(context.Background(), recordmodels.NewRecord("Note", ""), recordmodels.ScopePrivate)
	assert.True(t, rgerrors.IsValidationError(err))
	assert.Empty(t, api.puts)
}

func TestSaveManyChunksBatches(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	records := make([]*recordmodels.Record, 30)
	for i := range records {
		records[i] = recordmodels.NewRecord("Note", fmt.Sprintf("n%02d", i))
	}

	saved, err := store.SaveMany(context.Background(), records, recordmodels.ScopePublic)
	require.NoError(t, err)
	require.Len(t, saved, 30)
	for i, r := range saved {
		assert.Equal(t, records[i].ID, r.ID)
		assert.NotEmpty(t, r.ChangeTag)
	}

	require.Len(t, api.batches, 2)
	assert.Len(t, api.batches[0].RequestItems["records"], 25)
	assert.Len(t, api.batches[1].RequestItems["records"], 5)
}

func TestSaveManyResubmitsUnprocessedItems(t *testing.T) {
	api := &fakeAPI{batchFn: func(call int, in *sdk.BatchWriteItemInput) (*sdk.BatchWriteItemOutput, error) {
		if call == 0 {
			return &sdk.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{
				"records": in.RequestItems["records"][1:],
			}}, nil
		}
		return &sdk.BatchWriteItemOutput{}, nil
	}}
	store := newTestStore(api)

	records := []*recordmodels.Record{
		recordmodels.NewRecord("Note", "a"),
		recordmodels.NewRecord("Note", "b"),
		recordmodels.NewRecord("Note", "c"),
	}
	_, err := store.SaveMany(context.Background(), records, recordmodels.ScopePublic)
	require.NoError(t, err)

	require.Len(t, api.batches, 2)
	assert.Len(t, api.batches[1].RequestItems["records"], 2)
}

func TestSaveManyGivesUpOnUnprocessedItems(t *testing.T) {
	api := &fakeAPI{batchFn: func(_ int, in *sdk.BatchWriteItemInput) (*sdk.BatchWriteItemOutput, error) {
		return &sdk.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
	}}
	store := newTestStore(api, WithStreamOptions(recordmodels.WithMaxRetries(1)))

	_, err := store.SaveMany(context.Background(), []*recordmodels.Record{recordmodels.NewRecord("Note", "a")}, recordmodels.ScopePublic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessed")
	assert.Len(t, api.batches, 2)
}

func TestSaveManyRejectsDuplicates(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	_, err := store.SaveMany(context.Background(), []*recordmodels.Record{
		recordmodels.NewRecord("Note", "a"),
		recordmodels.NewRecord("Note", "a"),
	}, recordmodels.ScopePublic)
	assert.True(t, rgerrors.IsValidationError(err))
	assert.Empty(t, api.batches)
}

func TestModifyBuildsOneTransaction(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	existing := recordmodels.NewRecord("Note", "keep")
	existing.ChangeTag = "old"
	req := &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{recordmodels.NewRecord("Note", "new"), existing},
		Delete: []recordmodels.RecordID{recordmodels.NewRecordID("Note", "gone")},
		Policy: recordmodels.SavePolicyIfServerRecordUnchanged,
	}

	saved, err := store.Modify(context.Background(), req, recordmodels.ScopePrivate)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "new", saved[0].ID.RecordName)
	assert.Equal(t, "keep", saved[1].ID.RecordName)

	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 3)
	assert.Equal(t, "attribute_not_exists(#pk)", *items[0].Update.ConditionExpression)
	assert.Equal(t, "#tag = :prev", *items[1].Update.ConditionExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "old"}, items[1].Update.ExpressionAttributeValues[":prev"])
	assert.Equal(t, "PRIVATE#Note", sAttr(t, items[0].Update.Key, "PK"))
	assert.Equal(t, "new", sAttr(t, items[0].Update.Key, "SK"))
	require.NotNil(t, items[2].Delete)
	assert.Equal(t, "PRIVATE#Note", sAttr(t, items[2].Delete.Key, "PK"))
	assert.Equal(t, "gone", sAttr(t, items[2].Delete.Key, "SK"))
}

func TestModifyAllKeysIsUnconditional(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	existing := recordmodels.NewRecord("Note", "a")
	existing.ChangeTag = "stale"
	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{existing},
		Policy: recordmodels.SavePolicyAllKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)

	update := api.transacts[0].TransactItems[0].Update
	require.NotNil(t, update)
	assert.Nil(t, update.ConditionExpression)
	assert.NotContains(t, update.ExpressionAttributeNames, "#tag")
}

func TestModifyAllKeysKeepsStoredCreatedAt(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := recordmodels.NewRecord("Note", "a").Set("title", "old")
	stored.ChangeTag = "server"
	stored.CreatedAt = strfmtTime(created)
	stored.ModifiedAt = strfmtTime(created)

	api := &fakeAPI{getFn: func(_ int, in *sdk.BatchGetItemInput) (*sdk.BatchGetItemOutput, error) {
		keys := in.RequestItems["records"]
		assert.True(t, aws.ToBool(keys.ConsistentRead))
		require.Len(t, keys.Keys, 1)

		after := stored.Clone().Set("title", "new")
		after.ChangeTag = "tag-1"
		after.ModifiedAt = strfmtTime(fixedNow)
		item, err := encodeRecord(after, recordmodels.ScopePrivate)
		require.NoError(t, err)
		return &sdk.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{"records": {item}}}, nil
	}}
	store := newTestStore(api)

	saved, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{recordmodels.NewRecord("Note", "a").Set("title", "new")},
		Policy: recordmodels.SavePolicyAllKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, time.Time(saved[0].CreatedAt).Equal(created), "creation time comes from the stored item")
	assert.Equal(t, "new", saved[0].Fields["title"])

	update := api.transacts[0].TransactItems[0].Update
	createdAt := placeholder(t, update.ExpressionAttributeNames, attrCreatedAt)
	fields := placeholder(t, update.ExpressionAttributeNames, attrFields)
	expr := aws.ToString(update.UpdateExpression)
	assert.Contains(t, expr, fmt.Sprintf("%s = if_not_exists(%s, ", createdAt, createdAt))
	assert.Contains(t, expr, fields+" = :")
	for _, name := range update.ExpressionAttributeNames {
		assert.NotEqual(t, registry.PartitionKey, name, "key attributes are not updated")
		assert.NotEqual(t, registry.SortKey, name, "key attributes are not updated")
	}
}

func TestModifyReturnsStampedRecordsWhenReadBackFails(t *testing.T) {
	api := &fakeAPI{getFn: func(int, *sdk.BatchGetItemInput) (*sdk.BatchGetItemOutput, error) {
		return nil, errors.New("throttled")
	}}
	store := newTestStore(api)

	saved, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{recordmodels.NewRecord("Note", "a")},
		Policy: recordmodels.SavePolicyAllKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "tag-1", saved[0].ChangeTag)
}

func TestModifyAllKeysRemovesUnresolvedSecondaryKeys(t *testing.T) {
	t.Cleanup(registry.ResetKeyLayouts)
	require.NoError(t, registry.RegisterKeyLayout("Task", map[string]string{
		registry.PartitionKey: "{Scope}#{RecordType}",
		registry.SortKey:      "{RecordName}",
		"GSI1PK":              "PROJECT#{project}",
		"GSI1SK":              "{RecordName}",
	}))

	api := &fakeAPI{}
	store := newTestStore(api)
	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{recordmodels.NewRecord("Task", "t1")},
		Policy: recordmodels.SavePolicyAllKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)

	update := api.transacts[0].TransactItems[0].Update
	gsiPK := placeholder(t, update.ExpressionAttributeNames, "GSI1PK")
	gsiSK := placeholder(t, update.ExpressionAttributeNames, "GSI1SK")
	expr := aws.ToString(update.UpdateExpression)
	assert.Contains(t, expr, "REMOVE "+gsiPK)
	assert.Contains(t, expr, gsiSK+" = :")
}

func TestModifyChangedKeysWritesOnlySuppliedFields(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	change := recordmodels.NewRecord("Note", "a").Set("rank", 2).Set("draft", nil)
	change.ChangeTag = "ignored"
	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{change},
		Policy: recordmodels.SavePolicyChangedKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)

	update := api.transacts[0].TransactItems[0].Update
	assert.Equal(t, "attribute_exists(#pk)", aws.ToString(update.ConditionExpression))
	assert.Equal(t, registry.PartitionKey, update.ExpressionAttributeNames["#pk"])

	fields := placeholder(t, update.ExpressionAttributeNames, attrFields)
	rank := placeholder(t, update.ExpressionAttributeNames, "rank")
	draft := placeholder(t, update.ExpressionAttributeNames, "draft")
	expr := aws.ToString(update.UpdateExpression)
	assert.Contains(t, expr, fields+"."+rank+" = :")
	assert.Contains(t, expr, "REMOVE "+fields+"."+draft)
	assert.NotContains(t, expr, fields+" = :", "the field map is not replaced")
}

func TestModifyChangedKeysMissingRecord(t *testing.T) {
	api := &fakeAPI{transactFn: func(*sdk.TransactWriteItemsInput) (*sdk.TransactWriteItemsOutput, error) {
		return nil, &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
		}}
	}}
	store := newTestStore(api)

	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save:   []*recordmodels.Record{recordmodels.NewRecord("Note", "missing").Set("rank", 1)},
		Policy: recordmodels.SavePolicyChangedKeys,
	}, recordmodels.ScopePrivate)
	assert.True(t, rgerrors.IsConditionFailed(err))
	assert.Empty(t, api.gets, "no read-back after a failed transaction")
}

func TestSaveManyCarriesStoredCreatedAt(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{getFn: func(int, *sdk.BatchGetItemInput) (*sdk.BatchGetItemOutput, error) {
		stored := recordmodels.NewRecord("Note", "a")
		stored.ChangeTag = "server"
		stored.CreatedAt = strfmtTime(created)
		stored.ModifiedAt = strfmtTime(created)
		item, err := encodeRecord(stored, recordmodels.ScopePublic)
		require.NoError(t, err)
		return &sdk.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{"records": {item}}}, nil
	}}
	store := newTestStore(api)

	saved, err := store.SaveMany(context.Background(), []*recordmodels.Record{
		recordmodels.NewRecord("Note", "a"),
		recordmodels.NewRecord("Note", "b"),
	}, recordmodels.ScopePublic)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.True(t, time.Time(saved[0].CreatedAt).Equal(created))
	assert.True(t, time.Time(saved[1].CreatedAt).Equal(fixedNow))

	written := api.batches[0].RequestItems["records"]
	assert.Equal(t, created.Format(time.RFC3339Nano), sAttr(t, written[0].PutRequest.Item, attrCreatedAt))
}

// placeholder returns the expression name standing for attr.
func placeholder(t *testing.T, names map[string]string, attr string) string {
	t.Helper()
	for p, name := range names {
		if name == attr {
			return p
		}
	}
	t.Fatalf("no placeholder for %s in %v", attr, names)
	return ""
}

func TestModifyPureDelete(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	saved, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Delete: []recordmodels.RecordID{
			recordmodels.NewRecordID("Note", "a"),
			recordmodels.NewRecordID("Note", "b"),
		},
		Policy: recordmodels.SavePolicyAllKeys,
	}, recordmodels.ScopePrivate)
	require.NoError(t, err)
	assert.Empty(t, saved)

	items := api.transacts[0].TransactItems
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Put)
	assert.Equal(t, "a", sAttr(t, items[0].Delete.Key, "SK"))
	assert.Equal(t, "b", sAttr(t, items[1].Delete.Key, "SK"))
}

func TestModifyEmptyRequestSkipsTheTable(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	saved, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{}, recordmodels.ScopePrivate)
	require.NoError(t, err)
	assert.NotNil(t, saved)
	assert.Empty(t, saved)
	assert.Empty(t, api.transacts)
}

func TestModifyMapsCancellationReasons(t *testing.T) {
	api := &fakeAPI{transactFn: func(*sdk.TransactWriteItemsInput) (*sdk.TransactWriteItemsOutput, error) {
		return nil, &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		}}
	}}
	store := newTestStore(api)

	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{
		Save: []*recordmodels.Record{
			recordmodels.NewRecord("Note", "a"),
			recordmodels.NewRecord("Note", "b"),
		},
	}, recordmodels.ScopePrivate)
	require.Error(t, err)
	assert.True(t, rgerrors.IsConditionFailed(err))
	assert.Contains(t, err.Error(), "Note/b")
}

func TestModifyRejectsOversizedTransaction(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	ids := make([]recordmodels.RecordID, maxTransactItems+1)
	for i := range ids {
		ids[i] = recordmodels.NewRecordID("Note", fmt.Sprintf("n%d", i))
	}
	_, err := store.Modify(context.Background(), &recordmodels.ModifyRequest{Delete: ids}, recordmodels.ScopePrivate)
	assert.True(t, rgerrors.IsValidationError(err))
	assert.Empty(t, api.transacts)
}

func TestRateLimitOption(t *testing.T) {
	store := New(&fakeAPI{}, "records", WithRateLimit(5, 0))
	require.NotNil(t, store.limiter)
	assert.Equal(t, 1, store.limiter.Burst())

	store = New(&fakeAPI{}, "records", WithRateLimit(0, 10))
	assert.Nil(t, store.limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	limited := New(&fakeAPI{}, "records", WithRateLimit(1, 1))
	_, err := limited.Save(ctx, recordmodels.NewRecord("Note", "a"), recordmodels.ScopePrivate)
	assert.Error(t, err)
}

func strfmtTime(t time.Time) strfmt.DateTime {
	return strfmt.DateTime(t)
}
