/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/registry"
)

// maxTransactItems is the TransactWriteItems action limit.
const maxTransactItems = 100

// Modify applies every save and delete of req in one transaction. Saves are
// Update actions, so the stored CreatedAt of an existing record is kept.
// Under SavePolicyIfServerRecordUnchanged each save carries the same condition
// as Save; under SavePolicyChangedKeys only the supplied fields are written
// and the record must exist. Deletes are unconditional.
func (s *Store) Modify(ctx context.Context, req *recordmodels.ModifyRequest, scope recordmodels.Scope) ([]*recordmodels.Record, error) {
	if req == nil {
		return nil, errors.NewValidationError("request", "must not be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return []*recordmodels.Record{}, nil
	}
	if n := len(req.Save) + len(req.Delete); n > maxTransactItems {
		return nil, errors.NewValidationError("request", fmt.Sprintf("%d actions exceed the transaction limit of %d", n, maxTransactItems))
	}

	// ids[i] names the record of TransactItems[i], for cancellation reasons.
	ids := make([]string, 0, len(req.Save)+len(req.Delete))
	items := make([]types.TransactWriteItem, 0, len(req.Save)+len(req.Delete))
	saved := make([]*recordmodels.Record, 0, len(req.Save))

	for _, r := range req.Save {
		update, sv, err := s.saveUpdate(r, req.Policy, scope)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{Update: update})
		ids = append(ids, r.ID.String())
		saved = append(saved, sv)
	}

	for _, id := range req.Delete {
		key, err := primaryKey(id, scope)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{TableName: aws.String(s.tableName), Key: key},
		})
		ids = append(ids, id.String())
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items}); err != nil {
		var canceled *types.TransactionCanceledException
		if stderrors.As(err, &canceled) {
			for i, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" && i < len(ids) {
					return nil, errors.NewConditionFailedError("modify", ids[i])
				}
			}
		}
		return nil, fmt.Errorf("TransactWriteItems failed: %w", err)
	}

	if len(saved) == 0 {
		return saved, nil
	}
	// The transaction has committed; if the read-back fails the locally
	// stamped records are returned instead.
	if stored, err := s.getMany(ctx, recordmodels.RecordIDs(saved), scope); err == nil {
		for i, r := range saved {
			if fresh, ok := stored[r.ID]; ok {
				saved[i] = fresh
			}
		}
	}
	return saved, nil
}

// saveUpdate builds the transaction action writing r under policy, and the
// stamped record it writes.
func (s *Store) saveUpdate(r *recordmodels.Record, policy recordmodels.SavePolicy, scope recordmodels.Scope) (*types.Update, *recordmodels.Record, error) {
	sv := s.stamped(r)
	item, err := encodeRecord(sv, scope)
	if err != nil {
		return nil, nil, err
	}

	u := newUpdateExpr()
	for _, name := range sortedKeys(item) {
		switch name {
		case registry.PartitionKey, registry.SortKey, attrFields:
		case attrCreatedAt:
			u.setIfAbsent(name, item[name])
		default:
			u.set(name, item[name])
		}
	}

	update := &types.Update{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			registry.PartitionKey: item[registry.PartitionKey],
			registry.SortKey:      item[registry.SortKey],
		},
	}

	switch policy {
	case recordmodels.SavePolicyChangedKeys:
		fields := item[attrFields].(*types.AttributeValueMemberM).Value
		for _, k := range sortedKeys(sv.Fields) {
			if sv.Fields[k] == nil {
				u.removeNested(attrFields, k)
				continue
			}
			u.setNested(attrFields, k, fields[k])
		}
		update.ConditionExpression = aws.String("attribute_exists(#pk)")
		u.withCondition(map[string]string{"#pk": registry.PartitionKey}, nil)
	default:
		u.set(attrFields, item[attrFields])
		// Secondary keys that no longer resolve would point at stale values.
		for _, name := range sortedKeys(registry.KeyLayout(r.ID.RecordType)) {
			if _, ok := item[name]; !ok && name != registry.PartitionKey && name != registry.SortKey {
				u.remove(name)
			}
		}
		if policy == recordmodels.SavePolicyIfServerRecordUnchanged {
			cond, names, values := unchangedCondition(r)
			update.ConditionExpression = cond
			u.withCondition(names, values)
		}
	}

	update.UpdateExpression = aws.String(u.String())
	update.ExpressionAttributeNames = u.names
	if len(u.values) > 0 {
		update.ExpressionAttributeValues = u.values
	}
	return update, sv, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
