package app

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"poetry-migrate/internal/types"
)

const defaultPoetryBin = "poetry"

var (
	defaultLockArgs    = []string{"lock"}
	defaultInstallArgs = []string{"install", "--sync"}

	// strippedEnv would make poetry reuse the caller's environment
	// instead of its own project venv.
	strippedEnv = map[string]struct{}{
		"VIRTUAL_ENV": {},
		"POETRY":      {},
	}
)

var osEnviron = os.Environ

// Verify locks and trial-installs the project with the package manager.
func (s Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	dir, err := projectDir(req.ProjectDir)
	if err != nil {
		return VerifyResult{}, err
	}
	steps, err := s.verify(ctx, dir, req.Verify)
	return VerifyResult{Steps: steps}, err
}

// verify runs the lock step then the install step and returns the steps
// that completed. The first non-zero exit aborts without retry.
func (s Service) verify(ctx context.Context, dir string, opts VerifyOptions) ([]string, error) {
	env, err := s.commandEnv(dir, opts.EnvFile)
	if err != nil {
		return nil, err
	}
	bin := strings.TrimSpace(opts.PoetryBin)
	if bin == "" {
		bin = defaultPoetryBin
	}
	steps := []struct {
		name string
		args []string
	}{
		{name: "lock", args: argsOrDefault(opts.LockArgs, defaultLockArgs)},
		{name: "install", args: argsOrDefault(opts.InstallArgs, defaultInstallArgs)},
	}

	var completed []string
	for _, step := range steps {
		log.Ctx(ctx).Info().Str("step", step.name).Strs("args", step.args).Msg("running package manager")
		result, err := s.Runner.Run(ctx, dir, env, bin, step.args...)
		if err != nil {
			return completed, err
		}
		if result.ExitCode != 0 {
			return completed, &types.ExternalCommandError{
				Step:     step.name,
				Command:  append([]string{bin}, step.args...),
				ExitCode: result.ExitCode,
				Output:   result.Output,
			}
		}
		completed = append(completed, step.name)
	}
	return completed, nil
}

// commandEnv is the caller's environment without virtualenv markers, plus
// the variables of the project env file. Env file values win.
func (s Service) commandEnv(dir string, envFile string) ([]string, error) {
	environ := s.Environ
	if environ == nil {
		environ = osEnviron
	}
	var env []string
	for _, entry := range environ() {
		key, _, _ := strings.Cut(entry, "=")
		if _, ok := strippedEnv[key]; ok {
			continue
		}
		env = append(env, entry)
	}
	if s.Env == nil {
		return env, nil
	}
	extra, err := s.Env.Load(dir, envFile)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		if _, ok := strippedEnv[key]; ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+extra[key])
	}
	return env, nil
}

func argsOrDefault(args []string, fallback []string) []string {
	var out []string
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
