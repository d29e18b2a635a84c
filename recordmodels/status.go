/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordmodels

import (
	"strings"

	"github.com/suparena/recordgate/errors"
)

// AccountStatus is the availability of the signed-in identity as reported by the store.
type AccountStatus int

const (
	AccountStatusCouldNotDetermine AccountStatus = iota
	AccountStatusAvailable
	AccountStatusRestricted
	AccountStatusNoAccount
	AccountStatusTemporarilyUnavailable
)

var accountStatusNames = map[AccountStatus]string{
	AccountStatusCouldNotDetermine:      errors.StatusCouldNotDetermine,
	AccountStatusAvailable:              "available",
	AccountStatusRestricted:             errors.StatusRestricted,
	AccountStatusNoAccount:              errors.StatusNoAccount,
	AccountStatusTemporarilyUnavailable: errors.StatusTemporarilyUnavailable,
}

func (s AccountStatus) String() string {
	if name, ok := accountStatusNames[s]; ok {
		return name
	}
	return errors.StatusCouldNotDetermine
}

// ParseAccountStatus converts a status name, case-insensitively, back into an AccountStatus.
func ParseAccountStatus(name string) (AccountStatus, error) {
	for status, n := range accountStatusNames {
		if strings.EqualFold(n, name) {
			return status, nil
		}
	}
	return AccountStatusCouldNotDetermine, errors.NewValidationError("accountStatus", "unknown account status "+name)
}

// Scope selects the logical partition of the remote store a client targets.
type Scope int

const (
	ScopePublic Scope = iota
	ScopePrivate
	ScopeShared
)

var scopeNames = map[Scope]string{
	ScopePublic:  "public",
	ScopePrivate: "private",
	ScopeShared:  "shared",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return "unknown"
}

// KeyPrefix is the form of the scope used inside storage keys, e.g. "PRIVATE".
func (s Scope) KeyPrefix() string {
	return strings.ToUpper(s.String())
}

// Valid reports whether s is one of the defined scopes.
func (s Scope) Valid() bool {
	_, ok := scopeNames[s]
	return ok
}

// ParseScope converts a scope name, case-insensitively, into a Scope.
func ParseScope(name string) (Scope, error) {
	for scope, n := range scopeNames {
		if strings.EqualFold(n, name) {
			return scope, nil
		}
	}
	return ScopePublic, errors.NewValidationError("scope", "unknown scope "+name)
}
