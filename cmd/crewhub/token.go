package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gosuda/crewhub/internal/auth"
	"github.com/gosuda/crewhub/internal/domain"
)

func tokenCmd() *cobra.Command {
	var (
		actorID string
		name    string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for an actor",
		Long: `Mint a signed API token. Identity is managed outside crewhub; this command
lets an operator hand a coordinator or viewer a token for a known actor ID.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			id := uuid.New()
			if actorID != "" {
				if id, err = uuid.Parse(actorID); err != nil {
					return fmt.Errorf("--actor-id: %w", err)
				}
			}

			tok, err := auth.IssueToken(cfg.JWT.Secret, cfg.JWT.Issuer, domain.Actor{
				ID:   id,
				Name: name,
				Role: domain.Role(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor-id", "", "actor UUID (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCoordinator), "admin, coordinator or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
