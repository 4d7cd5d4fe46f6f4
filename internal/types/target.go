package types

type PackageInclude struct {
	Include string
	From    string
}

// PoetryMetadata is the content of the [tool.poetry] table managed by
// the migration.
type PoetryMetadata struct {
	Name        string
	Version     string
	Description string
	Authors     []string
	License     string
	Readme      string
	Repository  string
	Packages    []PackageInclude
}

type TargetDependency struct {
	Name       string
	Constraint string
	Extras     []string
	Markers    string
	Source     string
	Path       string
	Develop    bool
	Git        string
	Rev        string
	URL        string
}

type TargetGroup struct {
	Name         string
	Dependencies []TargetDependency
}

type Source struct {
	Name     string
	URL      string
	Priority string
}

type BuildSystem struct {
	Requires     []string
	BuildBackend string
}

// Fragment is the translated, owned part of the target manifest. It is
// merged into an existing pyproject.toml by the manifest writer.
type Fragment struct {
	Poetry      PoetryMetadata
	Python      string
	Groups      []TargetGroup
	Scripts     map[string]string
	Sources     []Source
	BuildSystem BuildSystem
}
