package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/config"
	"github.com/gosuda/crewhub/internal/store/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "crewhub",
	Short: "Worker allocation and project lifecycle service",
	Long: `crewhub tracks construction projects through their lifecycle and allocates
workers to them without double-booking anyone.

Every setting can be given as a CREWHUB_* environment variable; flags override
the environment.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("crewhub")
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json or text)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON instead of tables")
	_ = viper.BindPFlag("CREWHUB_DATABASE_URL", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag("CREWHUB_LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("CREWHUB_LOG_FORMAT", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(tokenCmd())
}

// loadConfig reads configuration through viper so flags bound to CREWHUB_*
// keys win over the environment, then sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(viper.GetString)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(lc config.LogConfig) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	return postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
}

// withEngine opens the database and hands an engine without notifications to
// fn. Operator commands read state; they never fan out events.
func withEngine(ctx context.Context, fn func(ctx context.Context, e *allocation.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	e := allocation.New(store, allocation.WithMaxPool(cfg.Allocation.AutoMatchMaxBatch))
	return fn(ctx, e)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
