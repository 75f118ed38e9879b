package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage keystore accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Create an encrypted keystore account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newKeysManager(a.cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				addr, err := m.CreateAccount()
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Created %s\n", addr.Hex())
				field(cmd.OutOrStdout(), "Keystore", "%s", m.KeystoreDir())
				return nil
			},
		},
		&cobra.Command{
			Use:   "import",
			Short: "Encrypt the key from the private key env var into the keystore",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				hexKey := lookupEnv(a.cfg.Signer.PrivateKeyEnv)
				if hexKey == "" {
					return fmt.Errorf("%s is not set", a.cfg.Signer.PrivateKeyEnv)
				}
				m, err := newKeysManager(a.cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				addr, err := m.ImportPrivateKey(hexKey)
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Imported %s\n", addr.Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List keystore accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				// listing reads only the plaintext address field
				m, err := keysManagerForListing(a.cfg)
				if err != nil {
					return err
				}
				addrs := m.Accounts()
				if len(addrs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No accounts in %s\n", m.KeystoreDir())
					return nil
				}
				for _, addr := range addrs {
					fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
				}
				return nil
			},
		},
	)
	return cmd
}
