package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/config"
	"github.com/cleared-dev/accrual/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var backend string
	var postgresURL string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, backend, postgresURL, useGit)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", config.BackendCSV, "storage backend (csv, postgres, memory)")
	cmd.Flags().StringVar(&postgresURL, "postgres-url", "", "connection URL for the postgres backend")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit ledger changes")

	return cmd
}

func runInit(cmd *cobra.Command, dir, backend, postgresURL string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Storage.PostgresURL = postgresURL
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		cfg.Storage.Dir,
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "*.tmp\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if useGit {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if !gitops.IsRepo(dir) {
			if err := gitops.Init(ctx, dir); err != nil {
				return err
			}
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		if _, err := gitops.Commit(ctx, dir, "init: ledger", author); err != nil && !errors.Is(err, gitops.ErrNothingToCommit) {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s (%s backend)\n", dir, backend)
	return nil
}
