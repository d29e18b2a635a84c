/*
Package recordgate provides an account-gated client over a remote record store.

Every operation first asks the store whether the signed-in account is
available. Only an available account lets the call through to the store; any
other status fails fast with an AccountUnavailableError that names the status,
so an application can tell "sign in first" apart from "the store call failed".

Key Features:
  - One context-aware API: FetchRecords, SaveRecord, SaveRecords,
    UpdateRecord and UpdateRecords
  - Concurrent batch saves that keep results aligned with their inputs
  - Full-overwrite updates and pure deletes through a single modify call
  - Typed errors (package errors) and structured diagnostics (package notify)
  - DynamoDB and in-memory stores (packages recordstore/ddb and recordstore/mock)

Basic Usage:

	store, _ := ddb.NewFromConfig(ctx, ddb.ClientConfig{Region: "us-east-1"}, "records")
	client, _ := recordgate.New(store, recordmodels.ScopePrivate,
		recordgate.WithNotifier(notify.NewZerolog(logger)),
	)

	note := recordmodels.NewRecord("Note", "groceries").Set("title", "Milk")
	saved, err := client.SaveRecord(ctx, note)
	if errors.IsAccountUnavailable(err) {
		// prompt for sign-in
	}

	open, _ := client.FetchRecords(ctx, recordmodels.NewQuery("Note").
		Where("done", recordmodels.OpEqual, false).
		OrderBy("title", false))

	_, err = client.UpdateRecords(ctx, nil, open) // delete them all
*/
package recordgate
