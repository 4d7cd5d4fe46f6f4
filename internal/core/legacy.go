package core

import (
	"fmt"
	"sort"
	"strings"

	"poetry-migrate/internal/types"
)

const pipToolsName = "pip-tools"

// PinMap collects the exact pins of a compiled requirements file.
func PinMap(deps []types.Dependency) map[string]string {
	pins := map[string]string{}
	for _, dep := range deps {
		if len(dep.Specifiers) != 1 || dep.Specifiers[0].Op != types.ConstraintOpEq {
			continue
		}
		pins[dep.Name] = dep.Specifiers[0].Version
	}
	return pins
}

// ApplyPins gives every unconstrained registry dependency of a pip-tools
// input file the pin found in its compiled counterpart. pip-tools itself
// is a tool of the legacy workflow and is dropped.
func ApplyPins(deps []types.Dependency, pins map[string]string) []types.Dependency {
	out := make([]types.Dependency, 0, len(deps))
	for _, dep := range deps {
		if dep.Name == pipToolsName {
			continue
		}
		if dep.Kind == types.DependencyKindRegistry && len(dep.Specifiers) == 0 && dep.RawSpecifier == "" {
			if pin, ok := pins[dep.Name]; ok {
				dep.Specifiers = []types.Specifier{{Op: types.ConstraintOpEq, Version: pin}}
				dep.RawSpecifier = "==" + pin
			}
		}
		out = append(out, dep)
	}
	return out
}

// SetupDependencies parses install_requires and extras_require of a setup
// script. Each extras key becomes a group; a ":marker" suffix on the key
// applies to every requirement of that extra.
func SetupDependencies(meta types.SetupMetadata, file string) ([]types.Dependency, []types.DependencyGroup, []types.ParseError) {
	var errs []types.ParseError
	parse := func(values []string, marker string) []types.Dependency {
		var deps []types.Dependency
		for _, value := range values {
			for _, line := range strings.Split(value, "\n") {
				text := strings.TrimSpace(stripComment(line))
				if text == "" {
					continue
				}
				dep, err := ParseRequirement(text, types.Origin{File: file})
				if err != nil {
					errs = append(errs, *err)
					continue
				}
				dep.Marker = combineMarkers(dep.Marker, marker)
				deps = append(deps, dep)
			}
		}
		return deps
	}

	main := parse(meta.InstallRequires, "")
	byName := map[string]*types.DependencyGroup{}
	for key, values := range meta.ExtrasRequire {
		name, marker, _ := strings.Cut(key, ":")
		group := strings.NewReplacer("_", "-", ".", "-").Replace(strings.ToLower(strings.TrimSpace(name)))
		if group == "" {
			group = types.GroupMain
		}
		if byName[group] == nil {
			byName[group] = &types.DependencyGroup{Name: group}
		}
		byName[group].Dependencies = append(byName[group].Dependencies, parse(values, strings.TrimSpace(marker))...)
	}
	// Map iteration is random; order extras deterministically.
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	extras := make([]types.DependencyGroup, 0, len(names))
	for _, name := range names {
		group := *byName[name]
		sort.SliceStable(group.Dependencies, func(i, j int) bool {
			return group.Dependencies[i].Name < group.Dependencies[j].Name
		})
		extras = append(extras, group)
	}
	return main, extras, errs
}

func combineMarkers(a string, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return fmt.Sprintf("(%s) and (%s)", a, b)
}

// MergeSetupDependencies adds setup script requirements to a group read
// from requirements files. Requirements files win: a name they already
// declare is not added again.
func MergeSetupDependencies(fromFiles []types.Dependency, fromSetup []types.Dependency) []types.Dependency {
	declared := map[string]struct{}{}
	for _, dep := range fromFiles {
		declared[dep.Name] = struct{}{}
	}
	var out []types.Dependency
	for _, dep := range fromSetup {
		if _, ok := declared[dep.Name]; ok {
			continue
		}
		out = append(out, dep)
	}
	return append(out, fromFiles...)
}

// SortGroups orders groups with main first and the rest by name.
func SortGroups(groups []types.DependencyGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if (groups[i].Name == types.GroupMain) != (groups[j].Name == types.GroupMain) {
			return groups[i].Name == types.GroupMain
		}
		return groups[i].Name < groups[j].Name
	})
}
