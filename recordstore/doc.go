/*
Package recordstore defines the contract between the gated client and a
remote record store.

	type RemoteStore interface {
	    CheckAccountAvailability(ctx context.Context) (recordmodels.AccountStatus, error)
	    Query(ctx context.Context, query *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error)
	    Save(ctx context.Context, record *recordmodels.Record, scope recordmodels.Scope) (*recordmodels.Record, error)
	    SaveMany(ctx context.Context, records []*recordmodels.Record, scope recordmodels.Scope) ([]*recordmodels.Record, error)
	    Modify(ctx context.Context, req *recordmodels.ModifyRequest, scope recordmodels.Scope) ([]*recordmodels.Record, error)
	}

Save uses the if-server-record-unchanged policy. SaveMany overwrites and
returns records in input order. Modify applies its saves and deletes as one
unit and returns the saved records in input order; a request with only
deletions returns an empty slice.

Implementations:
  - ddb: DynamoDB single-table implementation
  - mock: In-memory implementation for tests and local use
*/
package recordstore
