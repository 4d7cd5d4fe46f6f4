package adapters

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"poetry-migrate/internal/ports"
)

// CleanupAdapter removes legacy packaging files selected by a policy.
type CleanupAdapter struct {
	Policy ports.CleanupPolicyPort
}

func NewCleanupAdapter(policy ports.CleanupPolicyPort) CleanupAdapter {
	return CleanupAdapter{Policy: policy}
}

func (a CleanupAdapter) Candidates(dir string) ([]string, error) {
	var out []string
	for _, sub := range []string{"", requirementsDir} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to list project files").
				WithCause(err)
		}
		for _, entry := range entries {
			rel := path.Join(sub, entry.Name())
			if a.Policy.ShouldRemove(rel, entry.IsDir()) {
				out = append(out, rel)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Remove deletes paths below dir. An emptied requirements/ directory is
// removed as well.
func (a CleanupAdapter) Remove(dir string, paths []string) ([]string, error) {
	var removed []string
	for _, rel := range paths {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Lstat(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to inspect " + rel).
				WithCause(err)
		}
		if err := os.RemoveAll(target); err != nil {
			return removed, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to remove " + rel).
				WithCause(err)
		}
		removed = append(removed, rel)
	}
	reqDir := filepath.Join(dir, requirementsDir)
	if entries, err := os.ReadDir(reqDir); err == nil && len(entries) == 0 {
		if err := os.Remove(reqDir); err == nil {
			removed = append(removed, requirementsDir)
		}
	}
	return removed, nil
}

var _ ports.CleanupPort = CleanupAdapter{}
