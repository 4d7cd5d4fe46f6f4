package ports

// GroupPolicyPort maps a requirements file to its dependency group.
type GroupPolicyPort interface {
	GroupFor(relPath string) (string, bool)
}

// CleanupPolicyPort decides which legacy paths are removed after a
// successful migration.
type CleanupPolicyPort interface {
	ShouldRemove(relPath string, isDir bool) bool
}
