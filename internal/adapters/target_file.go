package adapters

import (
	"os"
	"path/filepath"

	"poetry-migrate/internal/core"
	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

// TargetFileAdapter stores pyproject.toml next to the legacy files.
type TargetFileAdapter struct{}

func NewTargetFileAdapter() TargetFileAdapter {
	return TargetFileAdapter{}
}

func (a TargetFileAdapter) Read(dir string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, core.TargetManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &types.WriteError{Path: filepath.Join(dir, core.TargetManifestName), Err: err}
	}
	return data, nil
}

// Write replaces the manifest through a temporary file in the same
// directory, so readers never observe a partial document.
func (a TargetFileAdapter) Write(dir string, content []byte) (string, error) {
	target := filepath.Join(dir, core.TargetManifestName)
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(dir, ".pyproject-*.toml")
	if err != nil {
		return "", &types.WriteError{Path: target, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &types.WriteError{Path: target, Err: err}
	}
	if _, err := tmp.Write(content); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return cleanup(err)
	}
	return target, nil
}

var _ ports.TargetManifestPort = TargetFileAdapter{}
