// Package cli implements the recordgate command line: account status, record
// queries, saves, updates and deletes, each printed as JSON.
package cli
