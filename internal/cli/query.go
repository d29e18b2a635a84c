/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/recordgate/recordmodels"
)

// indexQuerier is implemented by stores that can read a secondary index.
type indexQuerier interface {
	QueryByIndex(ctx context.Context, indexName, partition string, q *recordmodels.Query, scope recordmodels.Scope) ([]*recordmodels.Record, error)
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		filters   []string
		sortBy    string
		desc      bool
		limit     int
		index     string
		partition string
	)

	cmd := &cobra.Command{
		Use:   "query <type>",
		Short: "Fetch records of a type",
		Long: `Fetch records of a type and print them as JSON.

Filters take the form field<op>value where op is one of
=, ==, !=, <>, <, <=, >, >= or ^= (begins with).`,
		Example: `  recordgate query Note --filter rank>=3 --sort rank --desc --limit 10
  recordgate query Task --index GSI1 --partition PROJECT#alpha`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := recordmodels.NewQuery(args[0]).WithLimit(limit)
			for _, expr := range filters {
				f, err := parseFilter(expr)
				if err != nil {
					return err
				}
				q.Where(f.Field, f.Op, f.Value)
			}
			if sortBy != "" || desc {
				q.OrderBy(sortBy, desc)
			}
			if index != "" && partition == "" {
				return fmt.Errorf("--partition is required with --index")
			}

			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var records []*recordmodels.Record
			if index != "" {
				records, err = s.queryIndex(cmd.Context(), index, partition, q)
			} else {
				records, err = s.fetch(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			if records == nil {
				records = []*recordmodels.Record{}
			}
			return printJSON(cmd, records)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as field<op>value (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 for all)")
	cmd.Flags().StringVar(&index, "index", "", "secondary index to query (dynamodb backend only)")
	cmd.Flags().StringVar(&partition, "partition", "", "index partition key value")
	return cmd
}

func (s *session) queryIndex(ctx context.Context, index, partition string, q *recordmodels.Query) ([]*recordmodels.Record, error) {
	iq, ok := s.store.(indexQuerier)
	if !ok {
		return nil, fmt.Errorf("backend %s does not support index queries", s.cfg.Backend)
	}
	if err := s.requireAvailable(ctx); err != nil {
		return nil, err
	}
	return iq.QueryByIndex(ctx, index, partition, q, s.cfg.StoreScope())
}

func (s *session) fetch(ctx context.Context, q *recordmodels.Query) ([]*recordmodels.Record, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	return c.FetchRecords(ctx, q)
}
