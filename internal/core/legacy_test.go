package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-migrate/internal/types"
)

func TestApplyPins(t *testing.T) {
	compiled := []types.Dependency{
		mustParse(t, "requests==2.31.0", 1),
		mustParse(t, "urllib3==2.2.1", 2),
		mustParse(t, "click>=8", 3),
	}
	pins := PinMap(compiled)
	assert.Equal(t, map[string]string{"requests": "2.31.0", "urllib3": "2.2.1"}, pins)

	input := []types.Dependency{
		mustParse(t, "requests", 1),
		mustParse(t, "click", 2),
		mustParse(t, "urllib3<3", 3),
		mustParse(t, "pip-tools", 4),
	}
	got := ApplyPins(input, pins)

	require.Len(t, got, 3)
	assert.Equal(t, "==2.31.0", got[0].RawSpecifier)
	assert.Equal(t, []types.Specifier{{Op: types.ConstraintOpEq, Version: "2.31.0"}}, got[0].Specifiers)
	assert.Empty(t, got[1].RawSpecifier, "no pin for click")
	assert.Equal(t, "<3", got[2].RawSpecifier, "explicit constraints are kept")
}

func TestSetupDependencies(t *testing.T) {
	extrasRequire := map[string][]string{"test": {"pytest", "pytest-cov"}, "broken": {"!!!"}}
	extrasRequire[`Docs_Build:python_version>"3"`] = []string{`sphinx; sys_platform == "linux"`}
	meta := types.SetupMetadata{
		InstallRequires: []string{"requests>=2.0", "click  # cli"},
		ExtrasRequire:   extrasRequire,
	}
	main, extras, errs := SetupDependencies(meta, "setup.py")

	var names []string
	for _, dep := range main {
		names = append(names, dep.Name)
	}
	assert.Equal(t, []string{"requests", "click"}, names)

	var groups []string
	for _, group := range extras {
		groups = append(groups, group.Name)
	}
	if diff := cmp.Diff([]string{"broken", "docs-build", "test"}, groups); diff != "" {
		t.Fatalf("unexpected extras groups (-want +got):\n%s", diff)
	}
	require.Len(t, extras[1].Dependencies, 1)
	assert.Equal(t, `(sys_platform == "linux") and (python_version>"3")`, extras[1].Dependencies[0].Marker)
	assert.Len(t, extras[2].Dependencies, 2)

	require.Len(t, errs, 1)
	assert.Equal(t, "setup.py", errs[0].Origin.File)
}

func TestMergeSetupDependencies(t *testing.T) {
	fromFiles := []types.Dependency{mustParse(t, "requests==2.31.0", 1)}
	fromSetup := []types.Dependency{mustParse(t, "requests>=2", 1), mustParse(t, "click", 2)}

	got := MergeSetupDependencies(fromFiles, fromSetup)

	require.Len(t, got, 2)
	assert.Equal(t, "click", got[0].Name)
	assert.Equal(t, "==2.31.0", got[1].RawSpecifier)
}

func TestSortGroups(t *testing.T) {
	groups := []types.DependencyGroup{{Name: "test"}, {Name: "dev"}, {Name: types.GroupMain}}
	SortGroups(groups)
	assert.Equal(t, []types.DependencyGroup{{Name: types.GroupMain}, {Name: "dev"}, {Name: "test"}}, groups)
}
