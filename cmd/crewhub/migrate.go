package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gosuda/crewhub/internal/store/postgres"
)

func migrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				migrations, err := postgres.Migrations()
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(migrations)
				}
				for _, m := range migrations {
					fmt.Printf("%04d %s\n", m.Version, m.Name)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("migrate: done")
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list embedded migrations without connecting")
	return cmd
}
