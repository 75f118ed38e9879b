package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"arbsend/internal/txbuilder"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tx-hash>",
		Short: "Look up the receipt of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := txbuilder.ParseHash(args[0])
			if err != nil {
				return err
			}
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			receipt, err := a.svc.Status(cmd.Context(), hash)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			field(w, "Tx hash", "%s", hash.Hex())
			if url := a.cfg.TxURL(hash.Hex()); url != "" {
				field(w, "Explorer", "%s", url)
			}
			if receipt == nil {
				field(w, "Status", "%s", warnColor.Sprint("pending or unknown"))
				return nil
			}
			if receipt.Success() {
				field(w, "Status", "%s", okColor.Sprint("confirmed"))
			} else {
				field(w, "Status", "%s", errColor.Sprint("reverted"))
			}
			printReceipt(w, receipt)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transfers recorded in the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.journal.Entries()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No transfers recorded.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, e := range entries {
				value := "?"
				if v, err := txbuilder.ParseWei(e.ValueWei); err == nil {
					value = eth(v)
				}
				fmt.Fprintf(w, "%s  %-11s nonce %-5d %s -> %s  %s\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.State, e.Nonce, e.From, e.To, value)
				labelColor.Fprintf(w, "  %s\n", e.TxHash)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show only the most recent entries (0 for all)")
	return cmd
}
