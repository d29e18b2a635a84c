/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/suparena/recordgate/recordmodels"
)

// Error codes meaning the credentials are known but not allowed in.
var restrictedCodes = map[string]struct{}{
	"AccessDeniedException":               {},
	"UnrecognizedClientException":         {},
	"InvalidSignatureException":           {},
	"MissingAuthenticationTokenException": {},
	"ExpiredTokenException":               {},
}

// CheckAccountAvailability describes the table and maps the outcome onto an
// account status. Errors that say nothing about the account are returned.
func (s *Store) CheckAccountAvailability(ctx context.Context) (recordmodels.AccountStatus, error) {
	if err := s.wait(ctx); err != nil {
		return recordmodels.AccountStatusCouldNotDetermine, err
	}

	out, err := s.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &s.tableName})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return recordmodels.AccountStatusNoAccount, nil
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if _, ok := restrictedCodes[apiErr.ErrorCode()]; ok {
				return recordmodels.AccountStatusRestricted, nil
			}
		}
		return recordmodels.AccountStatusCouldNotDetermine, fmt.Errorf("DescribeTable failed: %w", err)
	}
	if out == nil || out.Table == nil {
		return recordmodels.AccountStatusCouldNotDetermine, nil
	}
	return statusFromTable(out.Table.TableStatus), nil
}

func statusFromTable(status types.TableStatus) recordmodels.AccountStatus {
	switch status {
	case types.TableStatusActive:
		return recordmodels.AccountStatusAvailable
	case types.TableStatusCreating, types.TableStatusUpdating:
		return recordmodels.AccountStatusTemporarilyUnavailable
	case types.TableStatusDeleting, types.TableStatusArchiving, types.TableStatusArchived:
		return recordmodels.AccountStatusNoAccount
	case types.TableStatusInaccessibleEncryptionCredentials:
		return recordmodels.AccountStatusRestricted
	}
	return recordmodels.AccountStatusCouldNotDetermine
}
