package adapters

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"poetry-migrate/internal/core"
	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

const (
	setupScriptName = "setup.py"
	requirementsDir = "requirements"
)

type LegacyProjectAdapter struct {
	Groups       ports.GroupPolicyPort
	Requirements core.RequirementParser
	Setup        core.SetupScriptParser
}

func NewLegacyProjectAdapter(groups ports.GroupPolicyPort) LegacyProjectAdapter {
	return LegacyProjectAdapter{
		Groups:       groups,
		Requirements: core.NewRequirementParser(),
		Setup:        core.NewSetupScriptParser(),
	}
}

// requirementSource is one requirements file set feeding a group: a plain
// file, or a pip-tools input with its compiled pins.
type requirementSource struct {
	group    string
	declared string
	pinned   string
}

func (a LegacyProjectAdapter) ReadProject(ctx context.Context, dir string) (types.LegacyManifest, error) {
	if strings.TrimSpace(dir) == "" {
		return types.LegacyManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project directory is empty")
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return types.LegacyManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("project directory not found: %s", dir)).
			WithCause(err)
	}
	manifest := types.LegacyManifest{Dir: dir}

	setupPath := filepath.Join(dir, setupScriptName)
	if data, err := os.ReadFile(setupPath); err == nil {
		meta, warnings := a.Setup.Parse(setupScriptName, string(data))
		manifest.HasSetup = true
		manifest.Setup = meta
		manifest.Warnings = append(manifest.Warnings, warnings...)
		manifest.Files = append(manifest.Files, setupScriptName)
	} else if !os.IsNotExist(err) {
		return types.LegacyManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read setup.py").
			WithCause(err)
	}

	sources, err := a.requirementSources(dir)
	if err != nil {
		return types.LegacyManifest{}, err
	}
	groups := map[string][]types.Dependency{}
	state := newReadState(&manifest)
	for _, source := range sources {
		deps, err := a.readSource(dir, source, state)
		if err != nil {
			return types.LegacyManifest{}, err
		}
		groups[source.group] = append(groups[source.group], deps...)
	}

	setupMain, setupExtras, errs := core.SetupDependencies(manifest.Setup, setupScriptName)
	manifest.ParseErrors = append(manifest.ParseErrors, errs...)
	groups[types.GroupMain] = core.MergeSetupDependencies(groups[types.GroupMain], setupMain)
	for _, extra := range setupExtras {
		groups[extra.Name] = core.MergeSetupDependencies(groups[extra.Name], extra.Dependencies)
	}

	for name, deps := range groups {
		if len(deps) == 0 && name != types.GroupMain {
			continue
		}
		manifest.Groups = append(manifest.Groups, types.DependencyGroup{Name: name, Dependencies: deps})
	}
	core.SortGroups(manifest.Groups)
	sort.Strings(manifest.Files)

	log.Ctx(ctx).Debug().
		Str("dir", dir).
		Bool("setup", manifest.HasSetup).
		Int("files", len(manifest.Files)).
		Int("groups", len(manifest.Groups)).
		Msg("legacy project read")
	return manifest, nil
}

// requirementSources finds requirements files at the project root and in
// requirements/, pairing X.in with X.txt.
func (a LegacyProjectAdapter) requirementSources(dir string) ([]requirementSource, error) {
	var files []string
	for _, sub := range []string{"", requirementsDir} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to list project files").
				WithCause(err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files = append(files, path.Join(sub, entry.Name()))
		}
	}

	byStem := map[string]*requirementSource{}
	for _, rel := range files {
		group, ok := a.Groups.GroupFor(rel)
		if !ok {
			continue
		}
		stem := strings.TrimSuffix(rel, path.Ext(rel))
		source := byStem[stem]
		if source == nil {
			source = &requirementSource{group: group}
			byStem[stem] = source
		}
		if path.Ext(rel) == ".in" {
			source.declared = rel
		} else {
			source.pinned = rel
		}
	}
	stems := make([]string, 0, len(byStem))
	for stem := range byStem {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	out := make([]requirementSource, 0, len(stems))
	for _, stem := range stems {
		out = append(out, *byStem[stem])
	}
	return out, nil
}

// readState tracks the files read during one ReadProject call.
// consumed holds, per group, every file already merged into that group;
// reported holds the files whose diagnostics are already recorded.
type readState struct {
	manifest *types.LegacyManifest
	consumed map[string]map[string]bool
	reported map[string]bool
}

func newReadState(manifest *types.LegacyManifest) *readState {
	return &readState{
		manifest: manifest,
		consumed: map[string]map[string]bool{},
		reported: map[string]bool{},
	}
}

func (s *readState) consume(group string, rel string) bool {
	if s.consumed[group] == nil {
		s.consumed[group] = map[string]bool{}
	}
	if s.consumed[group][rel] {
		return false
	}
	s.consumed[group][rel] = true
	return true
}

func (a LegacyProjectAdapter) readSource(dir string, source requirementSource, state *readState) ([]types.Dependency, error) {
	if source.declared == "" {
		return a.readRequirements(dir, source.group, source.pinned, state, map[string]bool{})
	}
	declared, err := a.readRequirements(dir, source.group, source.declared, state, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if source.pinned == "" {
		return core.ApplyPins(declared, nil), nil
	}
	// The compiled file only supplies pins; its diagnostics would repeat
	// the ones of the input file.
	state.reported[source.pinned] = true
	pinned, err := a.readRequirements(dir, source.group, source.pinned, state, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return core.ApplyPins(declared, core.PinMap(pinned)), nil
}

// readRequirements parses rel and, recursively, the files it includes
// with -r. active holds the include chain to break cycles.
func (a LegacyProjectAdapter) readRequirements(dir string, group string, rel string, state *readState, active map[string]bool) ([]types.Dependency, error) {
	manifest := state.manifest
	if active[rel] {
		manifest.Warnings = append(manifest.Warnings, types.Warning{
			Kind:    types.WarningKindUnsupported,
			File:    rel,
			Message: "include cycle, file skipped",
		})
		return nil, nil
	}
	if !state.consume(group, rel) {
		return nil, nil
	}
	active[rel] = true
	defer delete(active, rel)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s", rel)).
			WithCause(err)
	}
	report := !state.reported[rel]
	state.reported[rel] = true
	if !containsString(manifest.Files, rel) {
		manifest.Files = append(manifest.Files, rel)
	}
	lines, errs := a.Requirements.ParseFile(rel, string(data))
	if report {
		manifest.ParseErrors = append(manifest.ParseErrors, errs...)
	}

	var deps []types.Dependency
	for _, line := range lines {
		if report {
			manifest.Warnings = append(manifest.Warnings, line.Warnings...)
		}
		switch line.Kind {
		case core.LineRequirement:
			deps = append(deps, line.Dependency)
		case core.LineIndex:
			if report {
				manifest.Indexes = append(manifest.Indexes, line.Index)
			}
		case core.LineUnsupported:
			if report {
				manifest.Unsupported = append(manifest.Unsupported, types.UnsupportedEntry{
					Origin: line.Origin,
					Text:   line.Text,
					Reason: line.Reason,
				})
			}
		case core.LineInclude:
			included := path.Clean(path.Join(path.Dir(rel), filepath.ToSlash(line.Include)))
			if strings.HasPrefix(included, "../") {
				if report {
					manifest.ParseErrors = append(manifest.ParseErrors, types.ParseError{
						Origin: line.Origin,
						Text:   line.Text,
						Reason: "include outside the project directory",
					})
				}
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(included))); err != nil {
				if report {
					manifest.ParseErrors = append(manifest.ParseErrors, types.ParseError{
						Origin: line.Origin,
						Text:   line.Text,
						Reason: fmt.Sprintf("included file %s not found", included),
					})
				}
				continue
			}
			// A file owned by another group is read for that group.
			if owner, ok := a.Groups.GroupFor(included); ok && owner != group {
				continue
			}
			nested, err := a.readRequirements(dir, group, included, state, active)
			if err != nil {
				return nil, err
			}
			deps = append(deps, nested...)
		}
	}
	return deps, nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

var _ ports.LegacyProjectPort = LegacyProjectAdapter{}
