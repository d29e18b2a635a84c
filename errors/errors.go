/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrAccountUnavailable is matched by every AccountUnavailableError
	ErrAccountUnavailable = errors.New("account not available")

	// ErrNoAccount is matched when no account is signed in or provisioned
	ErrNoAccount = errors.New("no account")

	// ErrRestricted is matched when the account exists but access is denied
	ErrRestricted = errors.New("account restricted")

	// ErrCouldNotDetermine is matched when the store could not report a status
	ErrCouldNotDetermine = errors.New("account status could not be determined")

	// ErrTemporarilyUnavailable is matched when the account will be usable later
	ErrTemporarilyUnavailable = errors.New("account temporarily unavailable")

	// ErrStatusResolution is returned when the account status check itself fails
	ErrStatusResolution = errors.New("account status resolution failed")

	// ErrStoreOperation is returned when a delegated store call fails
	ErrStoreOperation = errors.New("store operation failed")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write is rejected
	ErrConditionFailed = errors.New("condition check failed")
)

// Account status names as reported by recordmodels.AccountStatus.String.
const (
	StatusNoAccount              = "noAccount"
	StatusRestricted             = "restricted"
	StatusCouldNotDetermine      = "couldNotDetermine"
	StatusTemporarilyUnavailable = "temporarilyUnavailable"
)

var statusSentinels = map[string]error{
	StatusNoAccount:              ErrNoAccount,
	StatusRestricted:             ErrRestricted,
	StatusCouldNotDetermine:      ErrCouldNotDetermine,
	StatusTemporarilyUnavailable: ErrTemporarilyUnavailable,
}

// AccountUnavailableError is returned when the gate resolved a status other than available.
type AccountUnavailableError struct {
	Status string
}

func (e *AccountUnavailableError) Error() string {
	return fmt.Sprintf("account not available: %s", e.Status)
}

func (e *AccountUnavailableError) Is(target error) bool {
	if target == ErrAccountUnavailable {
		return true
	}
	sentinel, ok := statusSentinels[e.Status]
	return ok && target == sentinel
}

// StatusResolutionError wraps a failure of the account status check.
type StatusResolutionError struct {
	Err error
}

func (e *StatusResolutionError) Error() string {
	return fmt.Sprintf("account status resolution failed: %v", e.Err)
}

func (e *StatusResolutionError) Is(target error) bool {
	return target == ErrStatusResolution
}

func (e *StatusResolutionError) Unwrap() error {
	return e.Err
}

// StoreOperationError wraps an error returned by the remote record store.
type StoreOperationError struct {
	Operation string
	RecordIDs []string
	Err       error
}

func (e *StoreOperationError) Error() string {
	if len(e.RecordIDs) == 0 {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s failed for [%s]: %v", e.Operation, strings.Join(e.RecordIDs, ", "), e.Err)
}

func (e *StoreOperationError) Is(target error) bool {
	return target == ErrStoreOperation
}

func (e *StoreOperationError) Unwrap() error {
	return e.Err
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a write rejected because the server record changed
type ConditionFailedError struct {
	Operation string
	RecordID  string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s of %s: server record changed", e.Operation, e.RecordID)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// Helper functions for creating errors

// NewAccountUnavailableError creates a new AccountUnavailableError
func NewAccountUnavailableError(status string) error {
	return &AccountUnavailableError{Status: status}
}

// NewStatusResolutionError creates a new StatusResolutionError
func NewStatusResolutionError(err error) error {
	return &StatusResolutionError{Err: err}
}

// NewStoreOperationError creates a new StoreOperationError
func NewStoreOperationError(operation string, recordIDs []string, err error) error {
	return &StoreOperationError{Operation: operation, RecordIDs: recordIDs, Err: err}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, recordID string) error {
	return &ConditionFailedError{Operation: operation, RecordID: recordID}
}

// IsAccountUnavailable checks if an error is an account unavailable error
func IsAccountUnavailable(err error) bool {
	return errors.Is(err, ErrAccountUnavailable)
}

// IsStatusResolution checks if an error is a status resolution error
func IsStatusResolution(err error) bool {
	return errors.Is(err, ErrStatusResolution)
}

// IsStoreOperation checks if an error is a store operation error
func IsStoreOperation(err error) bool {
	return errors.Is(err, ErrStoreOperation)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// AccountStatusOf returns the status carried by an AccountUnavailableError in err's chain.
func AccountStatusOf(err error) (string, bool) {
	var ae *AccountUnavailableError
	if errors.As(err, &ae) {
		return ae.Status, true
	}
	return "", false
}
