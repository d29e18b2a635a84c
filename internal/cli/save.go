/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/suparena/recordgate/recordmodels"
)

func newSaveCmd(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "save <type> [name]",
		Short: "Create a record",
		Long: `Create a record of the given type. When no name is given a random
UUID is used. Saving fails if a record with the same name already exists;
use update to overwrite it.`,
		Example: `  recordgate save Note --field title=Hello --field rank=3`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := uuid.NewString()
			if len(args) == 2 {
				name = args[1]
			}
			record, err := buildRecord(args[0], name, fields)
			if err != nil {
				return err
			}

			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.client()
			if err != nil {
				return err
			}
			saved, err := c.SaveRecord(cmd.Context(), record)
			if err != nil {
				return err
			}
			return printJSON(cmd, saved)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "field as key=value (repeatable)")
	return cmd
}

func buildRecord(recordType, recordName string, pairs []string) (*recordmodels.Record, error) {
	values, err := parseFields(pairs)
	if err != nil {
		return nil, err
	}
	record := recordmodels.NewRecord(recordType, recordName)
	if err := record.ID.Validate(); err != nil {
		return nil, err
	}
	for k, v := range values {
		record.Set(k, v)
	}
	return record, nil
}
