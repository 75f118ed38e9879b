package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"arbsend/internal/transfer"
	"arbsend/internal/txbuilder"
)

const balanceFetchLimit = 4

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address...]",
		Short: "Show the ETH balance of one or more addresses",
		Long: `Show the latest ETH balance of each address. Without arguments the
configured signer's address is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := make([]common.Address, 0, len(args))
			for _, arg := range args {
				addr, err := txbuilder.ParseAddress(arg)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}
			if len(addrs) == 0 {
				signer, err := loadSigner(a.cfg, true, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				addrs = append(addrs, signer.Address())
			}
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			balances, err := fetchBalances(cmd.Context(), a.svc, addrs)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, addr := range addrs {
				fmt.Fprintf(w, "%s  %s\n", addr.Hex(), eth(balances[i]))
			}
			return nil
		},
	}
}

// fetchBalances queries all addresses concurrently; results keep input order.
func fetchBalances(ctx context.Context, svc *transfer.Service, addrs []common.Address) ([]*big.Int, error) {
	out := make([]*big.Int, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceFetchLimit)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			bal, err := svc.Balance(gctx, addr)
			if err != nil {
				return err
			}
			out[i] = bal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
