/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/recordgate/errors"
)

type statusOutput struct {
	Backend string `json:"backend"`
	Scope   string `json:"scope"`
	Status  string `json:"status"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the account status reported by the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := s.store.CheckAccountAvailability(cmd.Context())
			if err != nil {
				return errors.NewStatusResolutionError(err)
			}
			return printJSON(cmd, statusOutput{
				Backend: s.cfg.Backend,
				Scope:   s.cfg.Scope,
				Status:  status.String(),
			})
		},
	}
}
