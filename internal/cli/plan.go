package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"poetry-migrate/internal/app"
)

func newPlanCommand() *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "plan <dir>",
		Short: "Show the pyproject.toml changes a migration would make",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd, args[0], opts)
		},
	}
	bindTranslateFlags(cmd, &opts)
	return cmd
}

func runPlan(ctx context.Context, cmd *cobra.Command, dir string, opts translateOptions) error {
	translate, err := resolveTranslateRequest(cmd, dir, opts)
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Plan(ctx, app.PlanRequest{
		TranslateRequest: translate,
		ReportPath:       resolveString(cmd, opts.Report, "report", "report"),
	})
	out := cmd.OutOrStdout()
	if err == nil {
		if result.Changed {
			fmt.Fprint(out, result.Diff)
		} else {
			fmt.Fprintln(out, "pyproject.toml is up to date")
		}
	}
	printSummary(out, result.Summary)
	return err
}
