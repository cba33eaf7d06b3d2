package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/domain"
	"github.com/soyeahso/intentd/internal/index"
	"github.com/soyeahso/intentd/internal/intent"
	"github.com/soyeahso/intentd/internal/store"
	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts in the conversation store",
	}
	cmd.AddCommand(newAccountPutCmd())
	cmd.AddCommand(newAccountListCmd())
	return cmd
}

func newAccountPutCmd() *cobra.Command {
	var acct domain.Account

	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct.ID = args[0]
			if acct.UserID == "" {
				acct.UserID = acct.ID
			}
			return withRepository(func(repo store.Repository) error {
				if err := repo.SaveAccount(cmd.Context(), acct); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved account %s\n", acct.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&acct.UserID, "user", "", "participant ID of the account's user (default: the account ID)")
	cmd.Flags().StringVar(&acct.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&acct.Server, "server", "", "server the account belongs to")
	return cmd
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(repo store.Repository) error {
				accts, err := repo.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSER\tNAME\tSERVER")
				for _, a := range accts {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.UserID, a.DisplayName, a.Server)
				}
				return tw.Flush()
			})
		},
	}
}

func newConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Manage conversations in the conversation store",
	}
	cmd.AddCommand(newConversationPutCmd())
	cmd.AddCommand(newConversationListCmd())
	cmd.AddCommand(newConversationDeleteCmd())
	return cmd
}

func newConversationPutCmd() *cobra.Command {
	var (
		conv         domain.Conversation
		kind         string
		participants []string
	)

	cmd := &cobra.Command{
		Use:   "put <token>",
		Short: "Create or replace a conversation",
		Example: `  intentd conversation put abc123 --account alice --participant alice --participant "bob=Bob"
  intentd conversation put team1 --account alice --kind group --name "Project Team" \
      --participant alice --participant bob --participant carol`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv.Token = args[0]
			conv.Kind = domain.ConversationKind(kind)
			conv.Participants = parseParticipants(participants)

			return withRepository(func(repo store.Repository) error {
				if err := repo.SaveConversation(cmd.Context(), conv); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved conversation %s for %s (%d participants)\n",
					conv.Token, conv.AccountID, len(conv.Participants))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&conv.AccountID, "account", "", "account the conversation belongs to")
	cmd.Flags().StringVar(&conv.DisplayName, "name", "", "conversation display name")
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindOneToOne), "one-to-one, group, public or changelog")
	cmd.Flags().StringArrayVar(&participants, "participant", nil, "participant as id or id=Display Name (repeatable)")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newConversationListCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an account's conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(repo store.Repository) error {
				convs, err := repo.ListConversations(cmd.Context(), accountID)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TOKEN\tKIND\tNAME\tPARTICIPANTS")
				for _, c := range convs {
					ids := make([]string, len(c.Participants))
					for i, p := range c.Participants {
						ids[i] = p.ID
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Token, c.Kind, c.DisplayName, strings.Join(ids, ","))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account ID")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newConversationDeleteCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "delete <token>",
		Short: "Delete a conversation and forget its donations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			var cfg config.Config
			err := withRepositoryConfig(func(c config.Config, repo store.Repository) error {
				cfg = c
				return repo.DeleteConversation(cmd.Context(), token, accountID)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation %s for %s\n", token, accountID)

			if err := forgetDonations(cmd.Context(), cfg, intent.GroupID(accountID, token)); err != nil {
				log.Warn().Err(err).Str("token", token).Msg("conversation deleted but donations not forgotten")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account ID")
	cmd.MarkFlagRequired("account")
	return cmd
}

// forgetDonations drops a group from an index that outlives this process.
func forgetDonations(ctx context.Context, cfg config.Config, groupID string) error {
	if cfg.Index.Kind != "redis" {
		return nil
	}
	idx, closeIndex, err := openIndex(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer closeIndex()

	if f, ok := idx.(index.Forgetter); ok {
		return f.Forget(ctx, groupID)
	}
	return nil
}

// parseParticipants turns "id" and "id=Display Name" flags into participants.
func parseParticipants(specs []string) []domain.Participant {
	out := make([]domain.Participant, 0, len(specs))
	for _, s := range specs {
		id, name, _ := strings.Cut(s, "=")
		out = append(out, domain.Participant{
			ID:          strings.TrimSpace(id),
			DisplayName: strings.TrimSpace(name),
		})
	}
	return out
}
