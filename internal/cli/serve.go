package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/donation"
	"github.com/soyeahso/intentd/internal/gateway"
	"github.com/soyeahso/intentd/internal/hooks"
	"github.com/soyeahso/intentd/internal/metrics"
	"github.com/soyeahso/intentd/internal/notify"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway and donation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			logger, logCloser, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			// Raw config backs the config.get/config.set RPCs.
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				raw = make(map[string]any)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(logger)
			opts := []gateway.ServerOption{
				gateway.WithConfigRaw(raw),
				gateway.WithHooks(hookMgr),
			}

			var donationMetrics *metrics.DonationMetrics
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				donationMetrics = metrics.NewDonationMetrics(reg)
				opts = append(opts, gateway.WithMetrics(reg))
			}

			repo, closeRepo, err := openRepository(cfg, logger)
			if err != nil {
				return err
			}
			defer closeRepo()

			srv := gateway.New(cfg, logger, opts...)

			idx, closeIndex, err := openIndex(ctx, cfg, srv.HostIndex(), logger)
			if err != nil {
				return err
			}
			defer closeIndex()

			svc := donation.New(repo, idx, logger,
				donation.WithBuilder(newBuilder(cfg)),
				donation.WithThrottle(cfg.Donation.Throttle),
				donation.WithMetrics(donationMetrics),
				donation.WithHooks(hookMgr),
			)
			defer svc.Close()
			srv.SetDonor(svc)

			if cfg.Notify.Kafka.Enabled {
				consumer, err := notify.NewConsumer(cfg.Notify.Kafka, notify.NewDonationHandler(svc, logger), logger)
				if err != nil {
					return err
				}
				defer consumer.Close()

				go func() {
					if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error().Err(err).Msg("notification consumer stopped")
					}
				}()
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
