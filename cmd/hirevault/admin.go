package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/hirevault/internal/assets"
	"github.com/dharsanguruparan/hirevault/internal/config"
	"github.com/dharsanguruparan/hirevault/internal/database"
	"github.com/dharsanguruparan/hirevault/internal/logging"
	"github.com/dharsanguruparan/hirevault/internal/repository"
	"github.com/dharsanguruparan/hirevault/internal/s3storage"
)

// backends holds the connections the admin commands share.
type backends struct {
	cfg   *config.Config
	log   *log.Logger
	pool  *pgxpool.Pool
	store *s3storage.Storage
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// connect opens Postgres and, when withStore is set, the asset bucket.
func connect(ctx context.Context, withStore bool) (*backends, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	b := &backends{cfg: cfg, log: logging.New(os.Stderr, cfg.LogLevel)}
	b.pool, err = database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if withStore {
		if b.store, err = s3storage.New(cfg); err != nil {
			b.Close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
		if err := b.store.EnsureBucket(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}
	return b, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connect(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer b.Close()
			if err := database.EnsureSchema(cmd.Context(), b.pool); err != nil {
				return err
			}
			b.log.Info("schema up to date")
			return nil
		},
	}
}

func newProvisionCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "provision [userID...]",
		Short: "Create the asset folders for users that lack them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass user IDs or --all")
			}
			ctx := cmd.Context()
			b, err := connect(ctx, true)
			if err != nil {
				return err
			}
			defer b.Close()

			users := repository.NewUserRepository(b.pool)
			manager := assets.New(b.store, users, repository.NewCollaboratorRepository(b.pool), assets.Options{
				UsersRoot: b.cfg.UsersRoot,
				ChatsRoot: b.cfg.ChatsRoot,
				Logger:    b.log,
			})
			ids := args
			if all {
				list, err := users.ListUsers(ctx)
				if err != nil {
					return err
				}
				ids = nil
				for _, u := range list {
					ids = append(ids, u.ID)
				}
			}
			var failed int
			for _, id := range ids {
				dirs, err := manager.ProvisionUserFolders(ctx, id)
				if err != nil {
					failed++
					b.log.Error("provision failed", "user", id, "err", err)
					continue
				}
				b.log.Info("provisioned", "user", id, "root", dirs.Root)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d users failed", failed, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Provision every user")
	return cmd
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with their stored assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connect(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer b.Close()
			list, err := repository.NewUserRepository(b.pool).ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tRESUME\tPORTFOLIO\tJOINED")
			for _, u := range list {
				resume := "-"
				if u.Resume != nil {
					resume = u.Resume.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", u.ID, u.FullName, u.Email, resume, len(u.Portfolio), humanize.Time(u.CreatedAt))
			}
			return tw.Flush()
		},
	}
}

func newResetStorageCmd() *cobra.Command {
	var prefix string
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-storage",
		Short: "Delete every object under a prefix of the asset bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete objects without --yes")
			}
			ctx := cmd.Context()
			b, err := connect(ctx, true)
			if err != nil {
				return err
			}
			defer b.Close()
			if prefix = strings.Trim(prefix, "/"); prefix != "" {
				prefix += "/"
			}
			removed, err := b.store.PurgeAll(ctx, prefix)
			b.log.Info("storage reset", "bucket", b.cfg.Bucket, "prefix", prefix, "removed", humanize.Comma(int64(removed)))
			return err
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only delete objects under this folder (default: whole bucket)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
