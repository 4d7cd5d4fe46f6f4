package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/shared"
	"poetry-migrate/internal/types"
)

const (
	defaultPythonConstraint = "^3.9"
	defaultProjectVersion   = "0.1.0"
	sourcePriority          = "supplemental"
	poetryCoreRequirement   = "poetry-core>=1.0.0"
	poetryBuildBackend      = "poetry.core.masonry.api"
	publicIndexHost         = "pypi.org"
)

type TranslateOptions struct {
	ProjectDir    string
	PrivateRepos  []types.PrivateRepo
	Namespace     string
	PythonDefault string
	CaretPins     bool
	Readme        string
}

// Translation is the translator output: the owned fragment of the target
// manifest plus every non-fatal issue met on the way.
type Translation struct {
	Fragment    types.Fragment
	Warnings    []types.Warning
	ParseErrors []types.ParseError
}

type Translator struct {
	Namespace ports.NamespacePort
}

func NewTranslator(namespace ports.NamespacePort) Translator {
	return Translator{Namespace: namespace}
}

// Translate maps the legacy manifest onto the target manifest fragment.
// It never touches the network; the only I/O is namespace discovery.
func (t Translator) Translate(ctx context.Context, legacy types.LegacyManifest, opts TranslateOptions) (Translation, error) {
	out := Translation{}
	repos, repoWarnings, err := indexRepos(opts.PrivateRepos)
	if err != nil {
		return Translation{}, err
	}
	out.Warnings = append(out.Warnings, repoWarnings...)
	out.Warnings = append(out.Warnings, undeclaredIndexWarnings(legacy.Indexes, repos)...)

	cache := newSpecifierCache()
	groups := make([]types.TargetGroup, 0, len(legacy.Groups))
	for _, group := range legacy.Groups {
		translated := types.TargetGroup{Name: group.Name}
		for _, dep := range DedupeDependencies(group.Dependencies, func(w types.Warning) {
			out.Warnings = append(out.Warnings, w)
		}) {
			assert.NotEmpty(ctx, dep.Name, "dependency name must be set")
			if IsSelfReference(dep) {
				out.Warnings = append(out.Warnings, types.Warning{
					Kind:    types.WarningKindTranslation,
					File:    dep.Origin.File,
					Line:    dep.Origin.Line,
					Message: "reference to the project itself dropped; poetry installs the root package",
				})
				continue
			}
			target, warnings, parseErr := t.translateDependency(dep, repos, cache, opts)
			out.Warnings = append(out.Warnings, warnings...)
			if parseErr != nil {
				out.ParseErrors = append(out.ParseErrors, *parseErr)
			}
			translated.Dependencies = append(translated.Dependencies, target)
		}
		sort.Slice(translated.Dependencies, func(i, j int) bool {
			return translated.Dependencies[i].Name < translated.Dependencies[j].Name
		})
		groups = append(groups, translated)
	}
	sortGroups(groups)

	packages, nsWarnings, err := t.namespacePackages(opts)
	if err != nil {
		return Translation{}, err
	}
	out.Warnings = append(out.Warnings, nsWarnings...)

	python, pyWarning := translatePython(legacy.Setup.PythonRequires, opts.PythonDefault, cache)
	if pyWarning != nil {
		out.Warnings = append(out.Warnings, *pyWarning)
	}

	out.Fragment = types.Fragment{
		Poetry:  poetryMetadata(legacy, opts, packages),
		Python:  python,
		Groups:  groups,
		Scripts: legacy.Setup.ConsoleScripts,
		Sources: sources(repos),
		BuildSystem: types.BuildSystem{
			Requires:     []string{poetryCoreRequirement},
			BuildBackend: poetryBuildBackend,
		},
	}
	log.Ctx(ctx).Debug().
		Int("groups", len(groups)).
		Int("sources", len(out.Fragment.Sources)).
		Int("warnings", len(out.Warnings)).
		Msg("manifest translated")
	return out, nil
}

func (t Translator) translateDependency(dep types.Dependency, repos map[string]types.PrivateRepo, cache *specifierCache, opts TranslateOptions) (types.TargetDependency, []types.Warning, *types.ParseError) {
	var warnings []types.Warning
	warn := func(message string) {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarningKindTranslation,
			Package: dep.Name,
			File:    dep.Origin.File,
			Line:    dep.Origin.Line,
			Message: message,
		})
	}
	target := types.TargetDependency{
		Name:    dep.Name,
		Extras:  shared.UniqueSorted(dep.Extras),
		Markers: dep.Marker,
	}
	switch dep.Kind {
	case types.DependencyKindPath:
		target.Path = dep.Path
		target.Develop = dep.Editable
	case types.DependencyKindVCS:
		target.Git = dep.VCSURL
		target.Rev = dep.VCSRef
		if dep.Editable {
			warn("editable VCS checkout installed as a regular git dependency")
		}
	case types.DependencyKindURL:
		target.URL = dep.URL
	default:
		constraint, reason := cache.translateConstraint(dep)
		if reason != "" {
			warn(reason)
		}
		if opts.CaretPins {
			constraint = CaretPin(constraint)
		}
		target.Constraint = constraint
	}

	if dep.Source == "" {
		return target, warnings, nil
	}
	alias, ok := resolveSource(dep.Source, repos)
	if !ok {
		return target, warnings, &types.ParseError{
			Origin: dep.Origin,
			Text:   dep.Name,
			Reason: fmt.Sprintf("undeclared private repository %q; use --private-repo %s:<url>", dep.Source, dep.Source),
		}
	}
	if dep.Kind != types.DependencyKindRegistry && dep.Kind != "" {
		warn(fmt.Sprintf("source %q ignored for a direct reference", alias))
		return target, warnings, nil
	}
	target.Source = alias
	return target, warnings, nil
}

// DedupeDependencies enforces name uniqueness within a group. The later
// declaration wins; every collision is reported through warn.
func DedupeDependencies(deps []types.Dependency, warn func(types.Warning)) []types.Dependency {
	index := map[string]int{}
	var out []types.Dependency
	for _, dep := range deps {
		if i, ok := index[dep.Name]; ok {
			warn(types.Warning{
				Kind:    types.WarningKindDuplicate,
				Package: dep.Name,
				File:    dep.Origin.File,
				Line:    dep.Origin.Line,
				Message: fmt.Sprintf("duplicate declaration overrides %s:%d", out[i].Origin.File, out[i].Origin.Line),
			})
			out[i] = dep
			continue
		}
		index[dep.Name] = len(out)
		out = append(out, dep)
	}
	return out
}

// ParsePrivateRepo parses the "alias:url" form of --private-repo.
func ParsePrivateRepo(raw string) (types.PrivateRepo, error) {
	alias, url, ok := strings.Cut(strings.TrimSpace(raw), ":")
	alias = strings.TrimSpace(alias)
	url = strings.TrimSpace(url)
	if !ok || alias == "" || url == "" || strings.HasPrefix(url, "//") {
		return types.PrivateRepo{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("private repo must look like alias:url, got %q", raw))
	}
	return types.PrivateRepo{Alias: alias, URL: url}, nil
}

func indexRepos(repos []types.PrivateRepo) (map[string]types.PrivateRepo, []types.Warning, error) {
	out := map[string]types.PrivateRepo{}
	var warnings []types.Warning
	for _, repo := range repos {
		alias := strings.TrimSpace(repo.Alias)
		url := strings.TrimSpace(repo.URL)
		if alias == "" || url == "" {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("private repo needs alias and url, got %q:%q", repo.Alias, repo.URL))
		}
		if existing, ok := out[alias]; ok && existing.URL != url {
			warnings = append(warnings, types.Warning{
				Kind:    types.WarningKindDuplicate,
				Message: fmt.Sprintf("private repo %s declared twice, using %s", alias, url),
			})
		}
		out[alias] = types.PrivateRepo{Alias: alias, URL: url}
	}
	return out, warnings, nil
}

func resolveSource(ref string, repos map[string]types.PrivateRepo) (string, bool) {
	if repo, ok := repos[ref]; ok {
		return repo.Alias, true
	}
	trimmed := strings.TrimRight(ref, "/")
	for _, repo := range repos {
		if strings.TrimRight(repo.URL, "/") == trimmed {
			return repo.Alias, true
		}
	}
	return "", false
}

func undeclaredIndexWarnings(indexes []string, repos map[string]types.PrivateRepo) []types.Warning {
	var warnings []types.Warning
	for _, index := range shared.UniqueSorted(indexes) {
		if strings.Contains(index, publicIndexHost) {
			continue
		}
		if _, ok := resolveSource(index, repos); ok {
			continue
		}
		warnings = append(warnings, types.Warning{
			Kind:    types.WarningKindTranslation,
			Message: fmt.Sprintf("index %s is not declared with --private-repo and will not be used by poetry", index),
		})
	}
	return warnings
}

func sources(repos map[string]types.PrivateRepo) []types.Source {
	out := make([]types.Source, 0, len(repos))
	for _, repo := range repos {
		out = append(out, types.Source{Name: repo.Alias, URL: repo.URL, Priority: sourcePriority})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// sortGroups orders groups with main first and the rest by name.
func sortGroups(groups []types.TargetGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if (groups[i].Name == types.GroupMain) != (groups[j].Name == types.GroupMain) {
			return groups[i].Name == types.GroupMain
		}
		return groups[i].Name < groups[j].Name
	})
}

func translatePython(requires string, fallback string, cache *specifierCache) (string, *types.Warning) {
	if strings.TrimSpace(fallback) == "" {
		fallback = defaultPythonConstraint
	}
	if strings.TrimSpace(requires) == "" {
		return fallback, nil
	}
	specs, err := ParseSpecifierSet(requires)
	if err != nil {
		return fallback, &types.Warning{
			Kind:    types.WarningKindTranslation,
			Package: "python",
			Message: fmt.Sprintf("python_requires %q not understood, using %s", requires, fallback),
		}
	}
	constraint, reason := cache.translateConstraint(types.Dependency{Name: "python", Specifiers: specs, RawSpecifier: requires})
	if reason != "" {
		return fallback, &types.Warning{Kind: types.WarningKindTranslation, Package: "python", Message: reason}
	}
	return constraint, nil
}

func (t Translator) namespacePackages(opts TranslateOptions) ([]types.PackageInclude, []types.Warning, error) {
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		return nil, nil, nil
	}
	if t.Namespace == nil {
		return []types.PackageInclude{{Include: namespace}}, nil, nil
	}
	packages, err := t.Namespace.Subpackages(opts.ProjectDir, namespace)
	if err != nil {
		return nil, nil, err
	}
	if len(packages) == 0 {
		return []types.PackageInclude{{Include: namespace}}, []types.Warning{{
			Kind:    types.WarningKindTranslation,
			Message: fmt.Sprintf("no subpackages found under namespace %s, including it as a whole", namespace),
		}}, nil
	}
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Include < packages[j].Include
	})
	return packages, nil, nil
}

func poetryMetadata(legacy types.LegacyManifest, opts TranslateOptions, packages []types.PackageInclude) types.PoetryMetadata {
	setup := legacy.Setup
	name := strings.TrimSpace(setup.Name)
	if name == "" {
		name = baseName(opts.ProjectDir)
	}
	version := strings.TrimSpace(setup.Version)
	if version == "" {
		version = defaultProjectVersion
	}
	var authors []string
	switch {
	case setup.Author != "" && setup.AuthorEmail != "":
		authors = []string{fmt.Sprintf("%s <%s>", setup.Author, setup.AuthorEmail)}
	case setup.Author != "":
		authors = []string{setup.Author}
	}
	return types.PoetryMetadata{
		Name:        strings.ReplaceAll(name, "_", "-"),
		Version:     version,
		Description: setup.Description,
		Authors:     authors,
		License:     setup.License,
		Readme:      opts.Readme,
		Repository:  setup.URL,
		Packages:    packages,
	}
}

func baseName(dir string) string {
	cleaned := strings.TrimRight(strings.ReplaceAll(dir, "\\", "/"), "/")
	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		return cleaned[idx+1:]
	}
	return cleaned
}
