package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/app"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/config"
	"github.com/cleared-dev/accrual/internal/logger"
)

// withApp loads the config next to opts.configPath, builds the services,
// runs fn and saves any changes. Saved changes are committed when the
// project is a git repository.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath, err := filepath.Abs(opts.configPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := config.LoadEnvFile(filepath.Join(filepath.Dir(cfgPath), ".env")); err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s not found; run 'accrual init' first", opts.configPath)
	}
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, log)

	a, err := app.Build(ctx, cfg, clock.System{}, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		// Keep whatever succeeded before the failure.
		if ferr := a.Flush(ctx); ferr != nil {
			log.Error().Err(ferr).Msg("saving ledger")
		}
		return err
	}
	if err := a.Flush(ctx); err != nil {
		return err
	}
	hash, err := a.Commit(ctx, filepath.Dir(cfgPath))
	if err != nil {
		return err
	}
	if hash != "" {
		log.Info().Str("commit", hash).Msg("ledger committed")
	}
	return nil
}

// projectRoot returns the directory holding the config file.
func projectRoot(opts *globalOptions) (string, error) {
	abs, err := filepath.Abs(opts.configPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return filepath.Dir(abs), nil
}
