package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gosuda/crewhub/internal/allocation"
	v1 "github.com/gosuda/crewhub/internal/api/v1"
	"github.com/gosuda/crewhub/internal/config"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/messenger/slack"
	"github.com/gosuda/crewhub/internal/notify"
	"github.com/gosuda/crewhub/internal/server"
	"github.com/gosuda/crewhub/internal/store/memory"
	redisstore "github.com/gosuda/crewhub/internal/store/redis"
)

func serveCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API and, when CREWHUB_REDIS_ADDR is set, the WebSocket event
streams. --memory swaps PostgreSQL for an empty in-process store, which is
useful for trying the API; nothing survives a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, inMemory)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "use an in-memory store instead of PostgreSQL")
	_ = viper.BindPFlag("CREWHUB_SERVER_ADDR", cmd.Flags().Lookup("addr"))
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, inMemory bool) error {
	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		runner domain.TxRunner
		deps   server.Deps
	)
	if inMemory {
		log.Warn().Msg("serve: using in-memory store")
		runner = memory.New()
	} else {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		runner = store
		deps.Store = store
	}

	var publisher notify.EventPublisher
	if cfg.Redis.Enabled() {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ChannelPrefix)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		publisher = pubsub
		deps.PubSub = pubsub
	} else {
		log.Info().Msg("serve: redis disabled, WebSocket streams are off")
	}

	registry := notify.NewRegistry()
	var routes []notify.Route
	if cfg.Slack.BotToken != "" {
		sm := slack.NewFromToken(cfg.Slack.BotToken)
		registry.Register(sm.Platform(), sm)
		routes = append(routes, notify.Route{Platform: sm.Platform(), ChannelID: cfg.Slack.Channel})
		log.Info().Str("channel", cfg.Slack.Channel).Msg("serve: Slack notifications enabled")
	}

	notifier := notify.New(publisher, registry, routes...)
	engine := allocation.New(runner,
		allocation.WithMaxPool(cfg.Allocation.AutoMatchMaxBatch),
		allocation.WithNotifier(notifier),
	)
	deps.Services = v1.NewServices(engine)

	srv := server.New(ctx, cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("serve: pending notifications not delivered")
	}

	log.Info().Msg("stopped")
	return nil
}
