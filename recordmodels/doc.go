/*
Package recordmodels defines the data structures shared by the client and
every record store implementation.

Key Types:

Record and RecordID:
A record is a set of named fields identified by a type and a name. The store
assigns ChangeTag, CreatedAt and ModifiedAt on every successful write:

	note := recordmodels.NewRecord("Note", "groceries").
	    Set("title", "Groceries").
	    Set("priority", 2)

Query:
Selects records of one type with optional filters, ordering and a limit:

	q := recordmodels.NewQuery("Note").
	    Where("priority", recordmodels.OpGreaterOrEqual, 2).
	    OrderBy("title", false).
	    WithLimit(50)

ModifyRequest:
Pairs records to upsert with IDs to delete. SavePolicyAllKeys overwrites the
server record; the default policy rejects writes when the server copy changed.

AccountStatus and Scope:
The gate only lets operations through when the store reports
AccountStatusAvailable. Scope selects the public, private or shared partition.

StreamOptions:
Paging behavior for stores that read in pages:

	opts := []StreamOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package recordmodels
