package policies

import (
	"path"
	"strings"

	"poetry-migrate/internal/ports"
)

// CleanupPolicy selects the legacy packaging files removed by --delete:
// setup.py, requirements files, the requirements/ directory contents and
// setuptools *.egg-info directories.
type CleanupPolicy struct {
	Groups GroupPolicy
}

func NewCleanupPolicy(groups GroupPolicy) CleanupPolicy {
	return CleanupPolicy{Groups: groups}
}

func (p CleanupPolicy) ShouldRemove(relPath string, isDir bool) bool {
	rel := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	base := path.Base(rel)
	if isDir {
		return strings.HasSuffix(base, ".egg-info")
	}
	if rel == "setup.py" {
		return true
	}
	if strings.HasPrefix(rel, requirementsDir+"/") {
		return true
	}
	if strings.Contains(rel, "/") {
		return false
	}
	_, ok := p.Groups.GroupFor(rel)
	return ok
}

var _ ports.CleanupPolicyPort = CleanupPolicy{}
