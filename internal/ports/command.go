package ports

import (
	"context"

	"poetry-migrate/internal/types"
)

//go:generate mockgen -destination=command_mock.go -package=ports . CommandRunner

// CommandRunner executes an external program in dir. A non-zero exit
// status is reported in the result, not as an error; the error is reserved
// for programs that could not be started.
type CommandRunner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (types.CommandResult, error)
}
