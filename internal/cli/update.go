/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "update <type> <name>",
		Short: "Overwrite a record with the given fields",
		Long: `Overwrite a record. Every field of the stored record is replaced by the
fields given here; fields not passed are removed.`,
		Example: `  recordgate update Note n1 --field title=Edited --field rank=4`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := buildRecord(args[0], args[1], fields)
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
			updated, err := c.UpdateRecord(cmd.Context(), record)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "field as key=value (repeatable)")
	return cmd
}
