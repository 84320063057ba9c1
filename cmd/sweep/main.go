// cmd/sweep/main.go
//
// Maintenance CLI for the invitation and membership collections: expire
// stale pending invitations, purge old terminal ones, collect orphans left
// by partial cascade deletes and recompute denormalized member counts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sponsorgrid/sponsorgrid/internal/config"
	"github.com/sponsorgrid/sponsorgrid/internal/repository"
	"github.com/sponsorgrid/sponsorgrid/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	root := &cobra.Command{
		Use:          "sweep",
		Short:        "Invitation and membership maintenance sweeps",
		SilenceUsage: true,
	}

	var timeout time.Duration
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time to run")

	root.AddCommand(
		&cobra.Command{
			Use:   "expire",
			Short: "Transition pending invitations past their expiry to expired",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(timeout, func(ctx context.Context, svc *sweepServices) error {
					count, err := svc.invitations.SweepExpired(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("expired %d invitations\n", count)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Hard-delete terminal invitations past the retention window",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(timeout, func(ctx context.Context, svc *sweepServices) error {
					count, err := svc.invitations.PurgeOld(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("purged %d invitations\n", count)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "orphans",
			Short: "Delete memberships and invitations whose workspace is gone",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(timeout, func(ctx context.Context, svc *sweepServices) error {
					memberships, invitations, err := svc.invitations.SweepOrphans(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("removed %d orphaned memberships, %d orphaned invitations\n", memberships, invitations)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "refresh-counts",
			Short: "Recompute the denormalized member count of every workspace",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(timeout, func(ctx context.Context, svc *sweepServices) error {
					count, err := svc.workspaces.RefreshAllMemberCounts(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("refreshed %d workspace member counts\n", count)
					return nil
				})
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type sweepServices struct {
	invitations *service.InvitationService
	workspaces  *service.WorkspaceService
}

// withServices wires the repositories and services against the configured
// database and runs fn under the timeout.
func withServices(timeout time.Duration, fn func(context.Context, *sweepServices) error) error {
	cfg := config.Load()

	db, err := setupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}

	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// No mailer and no subscribers in the CLI; sweeps never send email.
	bus := service.NewEventBus()
	svc := &sweepServices{
		invitations: service.NewInvitationService(
			invitationRepo,
			membershipRepo,
			workspaceRepo,
			nil,
			bus,
			cfg.Invitations.Validity,
			cfg.Invitations.Retention,
		),
		workspaces: service.NewWorkspaceService(workspaceRepo, membershipRepo, invitationRepo, bus),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, svc)
}

func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}
