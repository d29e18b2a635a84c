/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"

	"github.com/suparena/recordgate/recordmodels"
)

// RemoteStore is the remote record store the client delegates to.
type RemoteStore interface {
	CheckAccountAvailability(ctx context.Context) (recordmodels.AccountStatus, error)

	Query(ctx context.Context, query *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error)

	Save(ctx context.Context, record *recordmodels.Record, scope recordmodels.Scope) (*recordmodels.Record, error)

	SaveMany(ctx context.Context, records []*recordmodels.Record, scope recordmodels.Scope) ([]*recordmodels.Record, error)

	Modify(ctx context.Context, req *recordmodels.ModifyRequest, scope recordmodels.Scope) ([]*recordmodels.Record, error)
}

// AccountCheckFunc resolves the current account status. Stores expose one as
// CheckAccountAvailability; clients may be given a different one.
type AccountCheckFunc func(ctx context.Context) (recordmodels.AccountStatus, error)
