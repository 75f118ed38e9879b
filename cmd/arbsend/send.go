package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"arbsend/internal/transfer"
)

type sendFlags struct {
	wei     bool
	yes     bool
	noWait  bool
	timeout time.Duration
}

func newSendCmd(a *app) *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send <to> <amount>",
		Short: "Send ETH to an address",
		Long: `Send amount ETH (or wei with --wei) from the configured signer to <to>.

The priced plan is shown and must be confirmed unless --yes is given. The
command waits for the receipt unless --no-wait is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSend(cmd, args[0], args[1], f)
		},
	}
	cmd.Flags().BoolVar(&f.wei, "wei", false, "amount is an integer number of wei")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "return after broadcast without waiting for a receipt")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "receipt wait bound (default confirm.timeout)")
	return cmd
}

func (a *app) runSend(cmd *cobra.Command, to, amount string, f sendFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	req := transfer.Request{To: to, NoWait: f.noWait, ConfirmTimeout: a.cfg.Confirm.Timeout.Duration}
	if f.wei {
		req.AmountWei = amount
	} else {
		req.Amount = amount
	}
	if f.timeout > 0 {
		req.ConfirmTimeout = f.timeout
	}

	signer, err := loadSigner(a.cfg, true, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.connect(ctx); err != nil {
		return err
	}

	spin := newSpinner(cmd.ErrOrStderr())
	defer spin.stop()

	var accounts []common.Address
	req.Approve = func(p transfer.Plan) bool {
		accounts = []common.Address{p.From, p.To}
		printPlan(out, p)
		a.printBalances(ctx, out, "before", accounts)
		if !f.yes && !confirm(cmd.InOrStdin(), out, "Send this transfer?") {
			return false
		}
		if !f.noWait {
			spin.start("waiting for confirmation")
		}
		return true
	}

	res, err := a.svc.Transfer(ctx, signer, req)
	spin.stop()
	printResult(out, res, a.cfg.TxURL(hashHex(res)))
	if err != nil {
		return err
	}
	if res.State == transfer.StateConfirmed || res.State == transfer.StateFailed {
		a.printBalances(ctx, out, "after", accounts)
	}
	return nil
}

func (a *app) printBalances(ctx context.Context, w io.Writer, when string, addrs []common.Address) {
	if len(addrs) == 0 {
		return
	}
	balances, err := fetchBalances(ctx, a.svc, addrs)
	if err != nil {
		a.logger.Warn("balance lookup failed", "when", when, "error", err)
		return
	}
	fmt.Fprintf(w, "Balances %s\n", when)
	field(w, "Sender", "%s", eth(balances[0]))
	field(w, "Recipient", "%s", eth(balances[1]))
}

func hashHex(res *transfer.Result) string {
	if res == nil || res.TxHash == (common.Hash{}) {
		return ""
	}
	return res.TxHash.Hex()
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// spinner animates an indeterminate progressbar while the receipt wait runs.
// It stays silent when w is not a terminal.
type spinner struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	done chan struct{}
}

func newSpinner(w io.Writer) *spinner {
	return &spinner{w: w}
}

func (s *spinner) start(description string) {
	if s.bar != nil || !isTerminal(s.w) {
		return
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)
	s.done = make(chan struct{})
	go func(bar *progressbar.ProgressBar, done chan struct{}) {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(s.bar, s.done)
}

func (s *spinner) stop() {
	if s.bar == nil {
		return
	}
	close(s.done)
	_ = s.bar.Finish()
	s.bar = nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
