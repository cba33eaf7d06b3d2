package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show paths and a configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (commit %s)\n\n", version.Name, version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config file not found, showing defaults")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config error: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:  port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled)

			switch cfg.Store.Kind {
			case "memory":
				fmt.Fprintln(out, "Store:    memory")
			default:
				fmt.Fprintf(out, "Store:    sqlite %s\n", paths.StorePath(cfg.Store))
			}

			switch cfg.Index.Kind {
			case "redis":
				fmt.Fprintf(out, "Index:    redis %s db=%d ttl=%s\n",
					cfg.Index.Redis.Addr, cfg.Index.Redis.DB, cfg.Index.Redis.TTL)
			default:
				fmt.Fprintf(out, "Index:    %s\n", cfg.Index.Kind)
			}

			throttle := "off"
			if cfg.Donation.Throttle > 0 {
				throttle = cfg.Donation.Throttle.String()
			}
			fmt.Fprintf(out, "Donation: throttle=%s maxSpokenNames=%d\n", throttle, cfg.Donation.MaxSpokenNames)

			if k := cfg.Notify.Kafka; k.Enabled {
				fmt.Fprintf(out, "Kafka:    brokers=%s topic=%s group=%s\n",
					strings.Join(k.Brokers, ","), k.Topic, k.GroupID)
			} else {
				fmt.Fprintln(out, "Kafka:    (disabled)")
			}
			fmt.Fprintf(out, "Metrics:  %v\n", cfg.Metrics.Enabled)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}
}
