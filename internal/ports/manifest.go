package ports

// TargetManifestPort loads and stores the target manifest of a project.
type TargetManifestPort interface {
	// Read returns the current manifest, or nil content when the file does
	// not exist yet.
	Read(dir string) ([]byte, error)
	// Write replaces the manifest atomically and returns its path.
	Write(dir string, content []byte) (string, error)
}
