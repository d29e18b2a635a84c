/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// IndexConfig holds the key attribute names of a global secondary index
type IndexConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName is the partition key attribute of the GSI (e.g., "GSI1PK")
	PartitionKeyName string
	// SortKeyName is the sort key attribute of the GSI (e.g., "GSI1SK")
	SortKeyName string
}

// DefaultIndexes holds the index configurations every Store starts with
var DefaultIndexes = map[string]IndexConfig{
	"GSI1": {
		IndexName:        "GSI1",
		PartitionKeyName: "GSI1PK",
		SortKeyName:      "GSI1SK",
	},
}

// Index returns the configuration registered for indexName
func (s *Store) Index(indexName string) (IndexConfig, bool) {
	cfg, ok := s.indexes[indexName]
	return cfg, ok
}
