package cli

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"poetry-migrate/internal/app"
	"poetry-migrate/internal/core"
	"poetry-migrate/internal/types"
)

type translateOptions struct {
	PrivateRepos  []string
	Namespace     string
	PythonDefault string
	CaretPins     bool
	Report        string
}

type verifyOptions struct {
	PoetryBin   string
	LockArgs    []string
	InstallArgs []string
	EnvFile     string
}

func bindTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	cmd.Flags().StringArrayVar(&opts.PrivateRepos, "private-repo", nil, "Private repository as alias:url (repeatable)")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "Namespace package whose subpackages are included")
	cmd.Flags().StringVar(&opts.PythonDefault, "python-default", "", "Python constraint used when setup.py declares none")
	cmd.Flags().BoolVar(&opts.CaretPins, "caret-pins", false, "Rewrite exact pins as caret constraints")
	cmd.Flags().StringVar(&opts.Report, "report", "", "Write the run summary as YAML to this path")
	_ = viper.BindPFlag("namespace", cmd.Flags().Lookup("namespace"))
	_ = viper.BindPFlag("python_default", cmd.Flags().Lookup("python-default"))
	_ = viper.BindPFlag("caret_pins", cmd.Flags().Lookup("caret-pins"))
	_ = viper.BindPFlag("report", cmd.Flags().Lookup("report"))
}

func bindVerifyFlags(cmd *cobra.Command, opts *verifyOptions) {
	cmd.Flags().StringVar(&opts.PoetryBin, "poetry-bin", "poetry", "Poetry executable")
	cmd.Flags().StringSliceVar(&opts.LockArgs, "lock-args", nil, "Arguments of the lock step (default lock)")
	cmd.Flags().StringSliceVar(&opts.InstallArgs, "install-args", nil, "Arguments of the install step (default install,--sync)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Env file with extra variables for poetry (default .env)")
	_ = viper.BindPFlag("poetry_bin", cmd.Flags().Lookup("poetry-bin"))
	_ = viper.BindPFlag("lock_args", cmd.Flags().Lookup("lock-args"))
	_ = viper.BindPFlag("install_args", cmd.Flags().Lookup("install-args"))
	_ = viper.BindPFlag("env_file", cmd.Flags().Lookup("env-file"))
}

func resolveTranslateRequest(cmd *cobra.Command, dir string, opts translateOptions) (app.TranslateRequest, error) {
	repos, err := resolvePrivateRepos(cmd, opts.PrivateRepos)
	if err != nil {
		return app.TranslateRequest{}, err
	}
	return app.TranslateRequest{
		ProjectDir:    dir,
		PrivateRepos:  repos,
		Namespace:     resolveString(cmd, opts.Namespace, "namespace", "namespace"),
		PythonDefault: resolveString(cmd, opts.PythonDefault, "python_default", "python-default"),
		CaretPins:     resolveBool(cmd, opts.CaretPins, "caret_pins", "caret-pins"),
	}, nil
}

func resolveVerifyOptions(cmd *cobra.Command, opts verifyOptions) app.VerifyOptions {
	return app.VerifyOptions{
		PoetryBin:   resolveString(cmd, opts.PoetryBin, "poetry_bin", "poetry-bin"),
		LockArgs:    resolveStrings(cmd, opts.LockArgs, "lock_args", "lock-args"),
		InstallArgs: resolveStrings(cmd, opts.InstallArgs, "install_args", "install-args"),
		EnvFile:     resolveString(cmd, opts.EnvFile, "env_file", "env-file"),
	}
}

// resolvePrivateRepos reads repositories from the flag, or from the
// private_repos config key as either alias:url strings or alias/url maps.
func resolvePrivateRepos(cmd *cobra.Command, values []string) ([]types.PrivateRepo, error) {
	if !flagChanged(cmd, "private-repo") && len(values) == 0 {
		if entries, ok := viper.Get("private_repos").([]any); ok && len(entries) > 0 {
			if _, isMap := entries[0].(map[string]any); isMap {
				var repos []types.PrivateRepo
				if err := viper.UnmarshalKey("private_repos", &repos); err != nil {
					return nil, errbuilder.New().
						WithCode(errbuilder.CodeInvalidArgument).
						WithMsg("invalid private_repos config").
						WithCause(err)
				}
				return repos, nil
			}
		}
	}
	raw := resolveStrings(cmd, values, "private_repos", "private-repo")
	repos := make([]types.PrivateRepo, 0, len(raw))
	for _, value := range raw {
		repo, err := core.ParsePrivateRepo(value)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
