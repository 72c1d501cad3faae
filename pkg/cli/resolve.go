package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specgraph/pkg/nserror"
)

func newResolveCommand(ctx context.Context, opts *rootOptions, logger *zap.Logger) *cobra.Command {
	var (
		specDir string
		crumbs  []string
	)

	cmd := &cobra.Command{
		Use:   "resolve <spec id> <ref>",
		Short: "Follow a $ref and print its target",
		Long: `Follow a $ref relative to the given spec and print the target as JSON.
References into other documents of the directory are followed too.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if specDir != "" {
				cfg.Specs.Dir = specDir
			}

			reg, _, err := openRegistry(ctx, cfg.Specs.Dir, cfg.Specs.Include, cfg.Specs.Exclude, logger)
			if err != nil {
				return err
			}

			ns := nserror.Namespace{args[0]}.Append(crumbs...)
			value, err := reg.ResolveRef(ns, args[1])
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, []byte(value.JSON()), "", "  "); err != nil {
				return fmt.Errorf("failed to format result: %w", err)
			}
			out.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	}

	cmd.Flags().StringVarP(&specDir, "specs", "s", "", "Spec directory, overrides specs.dir")
	cmd.Flags().StringSliceVarP(&crumbs, "namespace", "n", nil, "Breadcrumbs of the node holding the ref, reported on failure")

	return cmd
}
