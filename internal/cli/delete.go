/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/recordgate/recordmodels"
)

type deleteOutput struct {
	Deleted []string `json:"deleted"`
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <type/name>...",
		Short:   "Delete records",
		Example: `  recordgate delete Note/n1 Note/n2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			del := make([]*recordmodels.Record, 0, len(args))
			for _, arg := range args {
				id, err := recordmodels.ParseRecordID(arg)
				if err != nil {
					return err
				}
				del = append(del, recordmodels.NewRecord(id.RecordType, id.RecordName))
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
			if _, err := c.UpdateRecords(cmd.Context(), nil, del); err != nil {
				return err
			}

			out := deleteOutput{Deleted: make([]string, 0, len(del))}
			for _, r := range del {
				out.Deleted = append(out.Deleted, r.ID.String())
			}
			return printJSON(cmd, out)
		},
	}
}
