package types

// SetupMetadata holds the literal keyword arguments recovered from a
// setup.py `setup(...)` call.
type SetupMetadata struct {
	Name            string
	Version         string
	Description     string
	Author          string
	AuthorEmail     string
	URL             string
	License         string
	PythonRequires  string
	ConsoleScripts  map[string]string
	InstallRequires []string
	ExtrasRequire   map[string][]string
}

// UnsupportedEntry is a legacy declaration the reader recognized but
// cannot translate. It is surfaced for manual review.
type UnsupportedEntry struct {
	Origin Origin
	Text   string
	Reason string
}

type LegacyManifest struct {
	Dir         string
	HasSetup    bool
	Setup       SetupMetadata
	Groups      []DependencyGroup
	Indexes     []string
	Unsupported []UnsupportedEntry
	ParseErrors []ParseError
	Warnings    []Warning
	Files       []string
}
