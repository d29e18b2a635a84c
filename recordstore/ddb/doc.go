/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ddb implements recordstore.RemoteStore on a single DynamoDB table.
//
// Every record is one item. The primary key is built from the key layout
// registered for the record type (see package registry), by default
//
//	PK = {Scope}#{RecordType}    e.g. PRIVATE#Note
//	SK = {RecordName}            e.g. note-1
//
// so a query for one type in one scope reads a single partition. Record
// fields are stored under the Fields map attribute next to Scope,
// RecordType, RecordName, ChangeTag, CreatedAt and ModifiedAt.
//
// Account availability is derived from DescribeTable: an ACTIVE table is
// available, a missing table means no account, and access-denied errors
// mean the account is restricted.
//
// Conditional writes use the ChangeTag attribute. Save and Modify under
// SavePolicyIfServerRecordUnchanged fail with errors.ConditionFailedError when
// the server copy changed; SaveMany always overwrites.
package ddb
