package ports

import (
	"context"

	"poetry-migrate/internal/types"
)

// LegacyProjectPort reads the legacy packaging files of a project.
type LegacyProjectPort interface {
	ReadProject(ctx context.Context, dir string) (types.LegacyManifest, error)
}
