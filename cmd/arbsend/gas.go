package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gas",
		Short: "Show the current gas price and the cost of a plain transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			q, err := a.svc.Quote(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Gas on %s (chain id %d)\n", a.cfg.Chain, a.cfg.ChainID)
			field(w, "Node price", "%s (%s wei)", gwei(q.BasePrice), q.BasePrice)
			field(w, "With premium", "%s (%s wei)", gwei(q.Price), q.Price)
			field(w, "Transfer gas", "%d", q.BaseGasLimit)
			field(w, "Transfer fee", "%s (%s wei)", eth(q.EstimatedFee), q.EstimatedFee)
			return nil
		},
	}
}
