package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"poetry-migrate/internal/app"
)

type migrateOptions struct {
	translateOptions
	verifyOptions
	Delete   bool
	NoVerify bool
}

func newMigrateCommand() *cobra.Command {
	opts := migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate <dir>",
		Short: "Convert a legacy project to Poetry, lock it and trial-install it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cmd, args[0], opts)
		},
	}
	bindTranslateFlags(cmd, &opts.translateOptions)
	bindVerifyFlags(cmd, &opts.verifyOptions)
	cmd.Flags().BoolVarP(&opts.Delete, "delete", "D", false, "Remove setup.py and requirements files after a successful run")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "Skip poetry lock and install")
	_ = viper.BindPFlag("delete", cmd.Flags().Lookup("delete"))
	_ = viper.BindPFlag("no_verify", cmd.Flags().Lookup("no-verify"))
	return cmd
}

func runMigrate(ctx context.Context, cmd *cobra.Command, dir string, opts migrateOptions) error {
	translate, err := resolveTranslateRequest(cmd, dir, opts.translateOptions)
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Migrate(ctx, app.MigrateRequest{
		TranslateRequest: translate,
		Verify:           resolveVerifyOptions(cmd, opts.verifyOptions),
		NoVerify:         resolveBool(cmd, opts.NoVerify, "no_verify", "no-verify"),
		Delete:           resolveBool(cmd, opts.Delete, "delete", "delete"),
		ReportPath:       resolveString(cmd, opts.Report, "report", "report"),
	})
	printSummary(cmd.OutOrStdout(), result.Summary)
	return err
}
