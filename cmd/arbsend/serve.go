package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arbsend/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve balance, gas, status, history and transfer endpoints over HTTP.

POST /transfer needs a signer from the environment (private key or keystore
passphrase); without one the API is read-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.debug {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			if listen != "" {
				a.cfg.API.Listen = listen
			}
			if a.cfg.API.AuthToken == "" {
				a.logger.Warn("api auth token is empty, endpoints are unauthenticated")
			}

			signer, err := loadSigner(a.cfg, false, cmd.ErrOrStderr())
			if err != nil {
				if !errors.Is(err, errNoSigner) {
					return err
				}
				a.logger.Warn("serving read-only", "reason", err.Error())
				signer = nil
			}
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			opts := api.Options{
				Listen:         a.cfg.API.Listen,
				AuthToken:      a.cfg.API.AuthToken,
				History:        a.journal,
				ConfirmTimeout: a.cfg.Confirm.Timeout.Duration,
				Logger:         a.logger,
			}
			if signer != nil {
				opts.Signer = signer
				a.logger.Info("transfers enabled", "from", signer.Address().Hex())
			}
			return api.NewServer(a.svc, opts).Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default api.listen)")
	return cmd
}
