package types

// Specifier is one clause of a version specifier set, e.g. ">=1.4".
type Specifier struct {
	Op      ConstraintOp
	Version string
}

// Origin points at the line a declaration was read from.
type Origin struct {
	File string
	Line int
}

type Dependency struct {
	Name       string
	Kind       DependencyKind
	Specifiers []Specifier
	// RawSpecifier keeps the specifier text as written when it could not
	// be split into clauses.
	RawSpecifier string
	Extras       []string
	Marker       string
	Source       string
	Path         string
	Editable     bool
	VCSURL       string
	VCSRef       string
	URL          string
	Origin       Origin
}

type DependencyGroup struct {
	Name         string
	Dependencies []Dependency
}

type PrivateRepo struct {
	Alias string `yaml:"alias" mapstructure:"alias"`
	URL   string `yaml:"url" mapstructure:"url"`
}
