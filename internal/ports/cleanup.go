package ports

type CleanupPort interface {
	// Candidates lists the paths below dir that the legacy packaging
	// files could live at, relative to dir.
	Candidates(dir string) ([]string, error)
	// Remove deletes the given paths and returns the ones actually removed.
	// Missing paths are skipped.
	Remove(dir string, paths []string) ([]string, error)
}
