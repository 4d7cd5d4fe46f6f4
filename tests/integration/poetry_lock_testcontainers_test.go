//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"poetry-migrate/internal/app"
	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

const (
	poetryImage   = "python:3.12-slim"
	poetryVersion = "poetry==1.8.5"
	containerEnv  = "PATH=/usr/local/bin:/usr/bin:/bin"
)

// containerRunner runs the package manager inside a container. Every Run
// mirrors the project directory into the container first and copies the
// lock file back afterwards.
type containerRunner struct {
	container testcontainers.Container
	root      string
}

func (r containerRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (types.CommandResult, error) {
	workdir := path.Join(r.root, filepath.Base(dir))
	if err := r.upload(ctx, dir, workdir); err != nil {
		return types.CommandResult{}, err
	}
	code, reader, err := r.container.Exec(ctx, append([]string{name}, args...),
		tcexec.Multiplexed(),
		tcexec.WithWorkingDir(workdir),
		tcexec.WithEnv(env),
	)
	if err != nil {
		return types.CommandResult{}, err
	}
	output, err := io.ReadAll(reader)
	if err != nil {
		return types.CommandResult{}, err
	}
	if err := r.download(ctx, path.Join(workdir, "poetry.lock"), filepath.Join(dir, "poetry.lock")); err != nil {
		return types.CommandResult{}, err
	}
	return types.CommandResult{ExitCode: code, Output: string(output)}, nil
}

func (r containerRunner) upload(ctx context.Context, dir string, workdir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return r.container.CopyFileToContainer(ctx, p, path.Join(workdir, filepath.ToSlash(rel)), 0o644)
	})
}

func (r containerRunner) download(ctx context.Context, from string, to string) error {
	reader, err := r.container.CopyFileFromContainer(ctx, from)
	if err != nil {
		// No lock file is written when resolution fails.
		return nil
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, 0o644)
}

var _ ports.CommandRunner = containerRunner{}

func startPoetryContainer(ctx context.Context, t *testing.T) containerRunner {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: poetryImage,
			Cmd:   []string{"sleep", "infinity"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	code, reader, err := container.Exec(ctx, []string{"pip", "install", "--quiet", poetryVersion}, tcexec.Multiplexed())
	require.NoError(t, err)
	output, _ := io.ReadAll(reader)
	require.Equal(t, 0, code, "installing poetry failed: %s", output)
	return containerRunner{container: container, root: "/work"}
}

func writeProject(t *testing.T, name string, requirements string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	files := map[string]string{
		"setup.py": `from setuptools import setup

setup(
    name="` + name + `",
    version="0.3.0",
    author="Jane Doe",
    author_email="jane@example.com",
    python_requires=">=3.9",
)
`,
		"requirements.txt":                 requirements,
		filepath.Join(name, "__init__.py"): "",
	}
	for rel, content := range files {
		target := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
	return dir
}

func TestPoetryLockWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	runner := startPoetryContainer(ctx, t)

	svc := app.NewService()
	svc.Runner = runner
	svc.Environ = func() []string { return []string{containerEnv} }

	t.Run("lock and install succeed", func(t *testing.T) {
		dir := writeProject(t, "tiny_pkg", "six==1.16.0\n")
		result, err := svc.Migrate(ctx, app.MigrateRequest{
			TranslateRequest: app.TranslateRequest{ProjectDir: dir},
			Delete:           true,
		})
		require.NoError(t, err, "summary: %+v", result.Summary)

		assert.Equal(t, []string{"lock", "install"}, result.Summary.Steps)
		lock, err := os.ReadFile(filepath.Join(dir, "poetry.lock"))
		require.NoError(t, err)
		assert.Contains(t, string(lock), `name = "six"`)
		assert.NoFileExists(t, filepath.Join(dir, "setup.py"))
	})

	t.Run("unresolvable dependency propagates exit code", func(t *testing.T) {
		dir := writeProject(t, "broken_pkg", "package-that-does-not-exist-8f3a==0.0.1\n")
		result, err := svc.Migrate(ctx, app.MigrateRequest{
			TranslateRequest: app.TranslateRequest{ProjectDir: dir},
			Delete:           true,
		})
		require.Error(t, err)

		var cmdErr *types.ExternalCommandError
		require.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, "lock", cmdErr.Step)
		assert.NotZero(t, cmdErr.ExitCode)
		assert.True(t, strings.Contains(result.Summary.Failure, "lock failed"))
		assert.FileExists(t, filepath.Join(dir, "pyproject.toml"))
		assert.FileExists(t, filepath.Join(dir, "setup.py"))
	})
}
