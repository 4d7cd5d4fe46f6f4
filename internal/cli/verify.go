package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"poetry-migrate/internal/app"
)

func newVerifyCommand() *cobra.Command {
	opts := verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify <dir>",
		Short: "Run poetry lock and a trial install in a migrated project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd, args[0], opts)
		},
	}
	bindVerifyFlags(cmd, &opts)
	return cmd
}

func runVerify(ctx context.Context, cmd *cobra.Command, dir string, opts verifyOptions) error {
	service := newAppService()
	result, err := service.Verify(ctx, app.VerifyRequest{
		ProjectDir: dir,
		Verify:     resolveVerifyOptions(cmd, opts),
	})
	for _, step := range result.Steps {
		fmt.Fprintf(cmd.OutOrStdout(), "verified: poetry %s\n", step)
	}
	return err
}
