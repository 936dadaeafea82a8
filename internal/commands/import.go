package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/app"
	"github.com/cleared-dev/accrual/internal/auditlog"
	"github.com/cleared-dev/accrual/internal/importer"
	"github.com/cleared-dev/accrual/internal/logger"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Record transactions from files",
		Long: "Record transactions from files. Without arguments every .csv and .txt\n" +
			"file in the import/ directory is imported and then moved to\n" +
			"import/processed/. Rejected rows are reported and skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(opts)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if len(args) > 0 {
					for _, path := range args {
						if err := importOne(ctx, cmd, a, format, path); err != nil {
							return err
						}
					}
					return nil
				}

				files, err := importer.Scan(root)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No files to import.")
					return nil
				}
				for _, f := range files {
					if err := importOne(ctx, cmd, a, format, f.Path); err != nil {
						return err
					}
					if err := importer.MarkProcessed(root, f.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "file format (ledger, lines); default picks by extension")

	return cmd
}

func importOne(ctx context.Context, cmd *cobra.Command, a *app.App, format, path string) error {
	p := a.Importers.ForFile(path)
	if format != "" {
		p = a.Importers.Get(format)
		if p == nil {
			return fmt.Errorf("unknown import format %q", format)
		}
	}

	res, err := importer.ImportFile(ctx, a.Processor, p, path, logger.FromContext(ctx))
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	for _, f := range res.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: line %d: %v\n", name, f.Line, f.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d recorded, %d rejected\n", name, len(res.Recorded), len(res.Failures))

	if len(res.Recorded) == 0 {
		return nil
	}
	details := fmt.Sprintf("%d recorded, %d rejected", len(res.Recorded), len(res.Failures))
	return a.Record(auditlog.ActionImport, "", details, name)
}
