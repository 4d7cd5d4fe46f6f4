package adapters

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/shared"
	"poetry-migrate/internal/types"
)

// ExecRunner runs external programs with os/exec and captures their
// combined output.
type ExecRunner struct{}

func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

func (r ExecRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (types.CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	log.Ctx(ctx).Debug().
		Str("dir", dir).
		Str("command", strings.Join(append([]string{name}, args...), " ")).
		Msg("running external command")
	output, err := cmd.CombinedOutput()
	result := types.CommandResult{Output: string(output)}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("failed to start %s", name)).
		WithCause(shared.CommandError(output, err))
}

var _ ports.CommandRunner = ExecRunner{}
