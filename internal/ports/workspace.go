package ports

import "poetry-migrate/internal/types"

// NamespacePort discovers the subpackages of a namespace package inside a
// project directory.
type NamespacePort interface {
	Subpackages(projectDir string, namespace string) ([]types.PackageInclude, error)
}
