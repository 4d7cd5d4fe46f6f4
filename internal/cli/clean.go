package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"poetry-migrate/internal/app"
)

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <dir>",
		Short: "Remove setup.py, requirements files and egg-info directories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), cmd, args[0])
		},
	}
}

func runClean(ctx context.Context, cmd *cobra.Command, dir string) error {
	service := newAppService()
	result, err := service.Clean(ctx, app.CleanRequest{ProjectDir: dir})
	for _, path := range result.Removed {
		fmt.Fprintf(cmd.OutOrStdout(), "removed: %s\n", path)
	}
	return err
}
