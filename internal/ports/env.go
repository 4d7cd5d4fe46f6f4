package ports

// EnvPort loads extra environment variables for the package manager.
type EnvPort interface {
	Load(dir string, file string) (map[string]string, error)
}
