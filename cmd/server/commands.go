package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/export"
	"github.com/anonto42/three-good-things/backend/internal/logging"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create relational tables and entry indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *config.DB, _ *config.Config, _ *zap.Logger) error {
				return db.Migrate(ctx)
			})
		},
	}
}

type exportOptions struct {
	userID uint
	format string
	from   string
	to     string
	out    string
}

func newExportCommand() *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's entries as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *config.DB, cfg *config.Config, logger *zap.Logger) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
				defer cancel()
				file, err := writeExport(ctx, repositories.NewMongoEntryRepository(db.Journal), *opts, time.Now(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				logger.Info("export written", zap.String("file", file.Name), zap.Int("bytes", len(file.Data)))
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&opts.userID, "user-id", 0, "Profile ID whose entries are exported")
	cmd.Flags().StringVar(&opts.format, "format", string(export.FormatJSON), "Export format (json, csv)")
	cmd.Flags().StringVar(&opts.from, "from", "", "First entry date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last entry date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output path (defaults to stdout)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

// writeExport renders the export into opts.out, or into stdout when no
// path is given. A failed close of the output file fails the export.
func writeExport(ctx context.Context, entries repositories.EntryRepository, opts exportOptions, now time.Time, stdout io.Writer) (file export.File, err error) {
	if opts.out == "" {
		return runExport(ctx, entries, opts, now, stdout)
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return export.File{}, fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", opts.out, closeErr)
		}
	}()
	return runExport(ctx, entries, opts, now, f)
}

func runExport(ctx context.Context, entries repositories.EntryRepository, opts exportOptions, now time.Time, w io.Writer) (export.File, error) {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return export.File{}, err
	}
	if err := models.CheckDateRange(opts.from, opts.to); err != nil {
		return export.File{}, err
	}
	list, err := entries.ListEntries(ctx, repositories.EntryQuery{OwnerID: opts.userID, DateFrom: opts.from, DateTo: opts.to})
	if err != nil {
		return export.File{}, fmt.Errorf("failed to list entries: %w", err)
	}
	file, err := export.Render(list, format, now)
	if err != nil {
		return export.File{}, err
	}
	if _, err := w.Write(file.Data); err != nil {
		return export.File{}, fmt.Errorf("failed to write export: %w", err)
	}
	return file, nil
}

func withDatabase(ctx context.Context, fn func(context.Context, *config.DB, *config.Config, *zap.Logger) error) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.Env)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := config.InitDB(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer db.CloseDB()
	return fn(ctx, db, appConfig, logger)
}
