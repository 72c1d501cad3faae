package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specgraph/pkg/nserror"
	"specgraph/pkg/registry"
	"specgraph/pkg/store"
)

func newValidateCommand(ctx context.Context, opts *rootOptions, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [spec directory]",
		Short: "Validate every spec of a directory",
		Long: `Load every document of the spec directory and walk it completely.
The first failure of each document is printed with the breadcrumb of the node
that failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Specs.Dir = args[0]
			}

			reg, docs, err := openRegistry(ctx, cfg.Specs.Dir, cfg.Specs.Include, cfg.Specs.Exclude, logger)
			if err != nil {
				return err
			}

			reports := reg.ValidateAll()
			failed := printReports(cmd.OutOrStdout(), reports, docs)

			logger.Info("Validation finished",
				zap.String("dir", cfg.Specs.Dir),
				zap.Int("documents", len(reports)),
				zap.Int("invalid", failed),
			)
			if failed > 0 {
				return fmt.Errorf("%d of %d specs are invalid", failed, len(reports))
			}
			return nil
		},
	}

	return cmd
}

// openRegistry loads dir into a fresh store. Documents are not validated.
func openRegistry(ctx context.Context, dir string, include, exclude []string, logger *zap.Logger) (*registry.Registry, *store.Store, error) {
	docs := store.New(store.Options{Include: include, Exclude: exclude}, logger)
	reg := registry.New(docs, registry.Options{Dir: dir}, logger)
	if err := reg.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load specs: %w", err)
	}
	return reg, docs, nil
}

// printReports writes one line per document, naming the file it was loaded
// from, and returns the number of invalid documents
func printReports(w io.Writer, reports []registry.Report, docs *store.Store) int {
	failed := 0
	for _, report := range reports {
		source := report.ID
		if doc, ok := docs.Document(report.ID); ok {
			source = fmt.Sprintf("%s (%s)", report.ID, doc.Path)
		}
		if report.Err == nil {
			fmt.Fprintf(w, "ok    %s\n", source)
			continue
		}
		failed++
		fmt.Fprintf(w, "FAIL  %s\n      %s\n", source, describe(report.Err))
	}
	return failed
}

// describe renders an error with the namespace it is attributed to
func describe(err error) string {
	var nsErr *nserror.Error
	if errors.As(err, &nsErr) {
		return fmt.Sprintf("[%s] %s", nsErr.Namespace, nsErr.Message)
	}
	return err.Error()
}
