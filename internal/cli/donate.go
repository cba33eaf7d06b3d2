package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/intentd/internal/donation"
	"github.com/soyeahso/intentd/internal/hooks"
	"github.com/spf13/cobra"
)

func newDonateCmd() *cobra.Command {
	var (
		token   string
		account string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "donate",
		Short: "Donate a stored conversation to the suggestion index",
		Long: "Resolves the conversation identified by --token and --account and donates it. " +
			"With --dry-run the descriptor is printed instead of submitted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, closeRepo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer closeRepo()

			out := cmd.OutOrStdout()

			if dryRun {
				conv, err := repo.FindConversation(ctx, token, account)
				if err != nil {
					return err
				}
				if err := donation.Validate(*conv); err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(newBuilder(cfg).Build(*conv))
			}

			idx, closeIndex, err := openIndex(ctx, cfg, nil, log)
			if err != nil {
				return err
			}
			defer closeIndex()

			// The service reports through hooks; a single donation
			// emits exactly one outcome.
			var result map[string]any
			hookMgr := hooks.NewManager(log)
			hookMgr.OnAll("cli", func(_ context.Context, p hooks.Payload) error {
				if _, ok := p.Data["outcome"]; ok {
					result = p.Data
				}
				return nil
			})

			svc := donation.New(repo, idx, log,
				donation.WithBuilder(newBuilder(cfg)),
				donation.WithHooks(hookMgr),
			)
			svc.DonateRoom(ctx, token, account)
			svc.Close()

			if result == nil {
				return fmt.Errorf("donation did not report an outcome")
			}
			fmt.Fprintf(out, "%v", result["outcome"])
			if g, ok := result["groupId"]; ok && g != "" {
				fmt.Fprintf(out, " %v", g)
			}
			if e, ok := result["error"]; ok && e != "" {
				fmt.Fprintf(out, " (%v)", e)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "conversation token")
	cmd.Flags().StringVar(&account, "account", "", "account ID")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the descriptor without submitting")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("account")

	return cmd
}
