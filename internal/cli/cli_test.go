package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-migrate/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"migrate", "plan", "verify", "clean"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestMigrateCommandFlags(t *testing.T) {
	cmd := newMigrateCommand()
	flags := []string{
		"private-repo", "namespace", "python-default", "caret-pins", "report",
		"delete", "no-verify", "poetry-bin", "lock-args", "install-args", "env-file",
	}
	for _, name := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
	assert.NotNil(t, cmd.Flags().ShorthandLookup("D"))
}

func TestPlanCommandFlags(t *testing.T) {
	cmd := newPlanCommand()
	assert.NotNil(t, cmd.Flags().Lookup("private-repo"))
	assert.Nil(t, cmd.Flags().Lookup("delete"))
}

func TestCommandsRequireDirectory(t *testing.T) {
	for _, name := range []string{"migrate", "plan", "verify", "clean"} {
		root := newRootCommand()
		root.SetArgs([]string{name})
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		assert.Error(t, root.Execute(), name)
	}
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	assert.Equal(t, "explicit", resolveString(nil, "explicit", "test_key", "test-flag"))
	assert.Equal(t, "", resolveString(nil, "", "test_key", "test-flag"))
}

func TestResolveStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, resolveStrings(nil, []string{"a", "b"}, "test_key", "test-flag"))
	assert.Empty(t, resolveStrings(nil, nil, "test_key", "test-flag"))
}

func TestResolveBool(t *testing.T) {
	assert.True(t, resolveBool(nil, true, "test_key", "test-flag"))
	assert.False(t, resolveBool(nil, false, "test_key", "test-flag"))
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

func TestResolvePrivateRepos(t *testing.T) {
	cmd := newMigrateCommand()
	require.NoError(t, cmd.Flags().Set("private-repo", "internal:https://pkg.example.com/simple"))
	require.NoError(t, cmd.Flags().Set("private-repo", "mirror:https://mirror.example/simple"))

	repos, err := resolvePrivateRepos(cmd, []string{
		"internal:https://pkg.example.com/simple",
		"mirror:https://mirror.example/simple",
	})
	require.NoError(t, err)
	assert.Equal(t, []types.PrivateRepo{
		{Alias: "internal", URL: "https://pkg.example.com/simple"},
		{Alias: "mirror", URL: "https://mirror.example/simple"},
	}, repos)

	_, err = resolvePrivateRepos(cmd, []string{"missing-url"})
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid argument",
			err:      errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("bad input"),
			expected: 2,
		},
		{
			name:     "not found",
			err:      errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("project directory not found"),
			expected: 5,
		},
		{
			name:     "internal error",
			err:      errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("boom"),
			expected: 5,
		},
		{
			name:     "write error",
			err:      &types.WriteError{Path: "pyproject.toml", Err: assert.AnError},
			expected: 3,
		},
		{
			name:     "wrapped write error",
			err:      fmt.Errorf("migrate: %w", &types.WriteError{Path: "pyproject.toml", Err: assert.AnError}),
			expected: 3,
		},
		{
			name:     "external command exit code",
			err:      &types.ExternalCommandError{Step: "lock", ExitCode: 7},
			expected: 7,
		},
		{
			name:     "external command without exit code",
			err:      &types.ExternalCommandError{Step: "install"},
			expected: 1,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeForError(tt.err))
		})
	}
}

// ---------- Output tests ----------

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, types.Summary{
		RunID:       "run-1",
		Warnings:    []types.Warning{{Kind: types.WarningKindDuplicate, Package: "zeta", File: "requirements.txt", Line: 3, Message: "zeta declared twice"}},
		ParseErrors: []types.ParseErrorRecord{{File: "requirements.txt", Line: 6, Text: "!!!", Reason: "invalid requirement"}},
		Written:     "/work/pyproject.toml",
		Steps:       []string{"lock"},
	})

	want := "warning [duplicate] requirements.txt:3: zeta declared twice\n" +
		"parse error requirements.txt:6: invalid requirement: \"!!!\"\n" +
		"written: /work/pyproject.toml\n" +
		"verified: poetry lock\n" +
		"run run-1: 2 issue(s)\n"
	assert.Equal(t, want, out.String())
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte("setup()\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x\n"), 0o644))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"clean", dir})
	require.NoError(t, root.Execute())

	assert.Equal(t, "removed: setup.py\n", out.String())
	assert.NoFileExists(t, filepath.Join(dir, "setup.py"))
	assert.FileExists(t, filepath.Join(dir, "README.md"))
}
