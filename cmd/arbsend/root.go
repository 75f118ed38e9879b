package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/cobra"

	"arbsend/internal/chain"
	"arbsend/internal/config"
	"arbsend/internal/journal"
	"arbsend/internal/transfer"
	"arbsend/internal/txbuilder"
	"arbsend/internal/util"
)

var version = "0.3.1"

// app carries what every subcommand shares. connect fills in the network
// half lazily so offline commands never dial.
type app struct {
	cfgPath string
	debug   bool

	cfg     *config.Config
	logger  *slog.Logger
	journal *journal.Store

	rpc    *rpc.Client
	client txbuilder.ChainClient
	svc    *transfer.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "arbsend",
		Short: "Send native ETH transfers on Arbitrum Sepolia and other EVM chains",
		Long: `arbsend builds, prices, signs and broadcasts plain ETH transfers.

Gas price is the node suggestion plus 10%, the gas limit is the estimate plus
20% (21000 when estimation fails), and the sender balance is checked against
value + gas price * gas limit before anything is signed.

Examples:
  arbsend balance 0x6FC3...33E9
  arbsend gas
  arbsend send 0x6FC3...33E9 0.00001
  arbsend status 0x8c3a...c2d1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "arbsend.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logs")

	root.AddCommand(
		newBalanceCmd(a),
		newGasCmd(a),
		newSendCmd(a),
		newStatusCmd(a),
		newHistoryCmd(a),
		newAccountCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	level := slog.LevelWarn
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a.journal = journal.New(cfg.Journal.Path)
	return nil
}

// connect dials the endpoint, checks it serves the configured chain and
// builds the transfer service on top of it.
func (a *app) connect(ctx context.Context) error {
	if a.svc != nil {
		return nil
	}
	rpcClient, ethClient, err := chain.Dial(a.cfg.RPC.HTTP, a.cfg.RPC.RequestTimeout.Duration, a.logger)
	if err != nil {
		return err
	}
	client := chain.NewRetryClient(ethClient, util.Policy{
		Max:     a.cfg.Retry.Max,
		Backoff: a.cfg.Retry.Backoff.Duration,
	}, a.cfg.RPC.RequestTimeout.Duration)
	if err := chain.VerifyChainID(ctx, client, a.cfg.ChainID); err != nil {
		rpcClient.Close()
		return err
	}

	var nonces txbuilder.NonceProvider
	if a.cfg.Tx.SequenceNonces {
		nonces = txbuilder.NewNonceManager(client)
	}
	a.rpc = rpcClient
	a.client = client
	a.svc = transfer.NewService(client, transfer.Options{
		ChainID:      new(big.Int).SetUint64(a.cfg.ChainID),
		Nonces:       nonces,
		PollInterval: a.cfg.Confirm.PollInterval.Duration,
		Logger:       a.logger,
		Recorder:     a.journal,
	})
	a.logger.Debug("connected", "chain", a.cfg.Chain, "chain_id", a.cfg.ChainID)
	return nil
}

func (a *app) close() {
	if a.rpc != nil {
		a.rpc.Close()
		a.rpc = nil
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arbsend v%s (%s, chain id %d)\n", version, a.cfg.Chain, a.cfg.ChainID)
		},
	}
}
