package adapters

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

const srcLayoutDir = "src"

// NamespaceAdapter finds the subpackages of a namespace package, in the
// flat layout (ns/) or the src layout (src/ns/).
type NamespaceAdapter struct{}

func NewNamespaceAdapter() NamespaceAdapter {
	return NamespaceAdapter{}
}

func (a NamespaceAdapter) Subpackages(projectDir string, namespace string) ([]types.PackageInclude, error) {
	if strings.TrimSpace(projectDir) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project directory is empty")
	}
	nsPath := strings.ReplaceAll(strings.Trim(strings.TrimSpace(namespace), "/"), ".", "/")
	if nsPath == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("namespace is empty")
	}
	for _, layout := range []string{"", srcLayoutDir} {
		root := filepath.Join(projectDir, layout, filepath.FromSlash(nsPath))
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to scan namespace %s", namespace)).
				WithCause(err)
		}
		var packages []types.PackageInclude
		for _, entry := range entries {
			if !entry.IsDir() || shouldSkipPackageDir(entry.Name()) {
				continue
			}
			if !containsPython(filepath.Join(root, entry.Name())) {
				continue
			}
			packages = append(packages, types.PackageInclude{
				Include: path.Join(nsPath, entry.Name()),
				From:    layout,
			})
		}
		sort.Slice(packages, func(i, j int) bool {
			return packages[i].Include < packages[j].Include
		})
		return packages, nil
	}
	return nil, nil
}

func shouldSkipPackageDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__") {
		return true
	}
	switch name {
	case "build", "dist", "tests", "test":
		return true
	default:
		return strings.HasSuffix(name, ".egg-info")
	}
}

func containsPython(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".py") {
			return true
		}
	}
	return false
}

var _ ports.NamespacePort = NamespaceAdapter{}
