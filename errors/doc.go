/*
Package errors provides semantic error types for the recordgate library.

Callers distinguish three failure classes so that an application can, for
example, prompt for sign-in rather than offer a retry:

	var (
	    ErrAccountUnavailable = errors.New("account not available")
	    ErrStatusResolution   = errors.New("account status resolution failed")
	    ErrStoreOperation     = errors.New("store operation failed")
	)

AccountUnavailableError additionally matches one of ErrNoAccount,
ErrRestricted, ErrCouldNotDetermine or ErrTemporarilyUnavailable depending on
the status the gate observed.

Usage:

	records, err := client.FetchRecords(ctx, query)
	if err != nil {
	    switch {
	    case errors.IsAccountUnavailable(err):
	        // ask the user to sign in
	    case errors.IsConditionFailed(err):
	        // refetch and retry the edit
	    case errors.IsStoreOperation(err):
	        // show a retry affordance
	    }
	}

StoreOperationError and StatusResolutionError unwrap to the underlying store
error, so errors.Is and errors.As see through them.
*/
package errors
