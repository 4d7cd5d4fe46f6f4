package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-migrate/internal/types"
)

func TestParseRequirement(t *testing.T) {
	origin := types.Origin{File: "requirements.txt", Line: 1}
	tests := []struct {
		name string
		text string
		want types.Dependency
	}{
		{
			name: "registry with bounds",
			text: "Package_A >= 1.0, != 1.5",
			want: types.Dependency{
				Name:         "package-a",
				Kind:         types.DependencyKindRegistry,
				Specifiers:   []types.Specifier{{Op: ">=", Version: "1.0"}, {Op: "!=", Version: "1.5"}},
				RawSpecifier: ">=1.0,!=1.5",
				Origin:       origin,
			},
		},
		{
			name: "extras and marker",
			text: `requests[Socks,security]==2.31.0; python_version < "3.12"`,
			want: types.Dependency{
				Name:         "requests",
				Kind:         types.DependencyKindRegistry,
				Specifiers:   []types.Specifier{{Op: "==", Version: "2.31.0"}},
				RawSpecifier: "==2.31.0",
				Extras:       []string{"security", "socks"},
				Marker:       `python_version < "3.12"`,
				Origin:       origin,
			},
		},
		{
			name: "bare name",
			text: "zope.interface",
			want: types.Dependency{Name: "zope-interface", Kind: types.DependencyKindRegistry, Origin: origin},
		},
		{
			name: "direct url",
			text: "pkg @ https://example.com/pkg-1.0.tar.gz",
			want: types.Dependency{Name: "pkg", Kind: types.DependencyKindURL, URL: "https://example.com/pkg-1.0.tar.gz", Origin: origin},
		},
		{
			name: "git url with ref and egg",
			text: "git+https://github.com/acme/tool.git@v1.2#egg=acme_tool",
			want: types.Dependency{
				Name:   "acme-tool",
				Kind:   types.DependencyKindVCS,
				VCSURL: "https://github.com/acme/tool.git",
				VCSRef: "v1.2",
				Origin: origin,
			},
		},
		{
			name: "ssh git url keeps user",
			text: "tool @ git+ssh://git@github.com/acme/tool.git",
			want: types.Dependency{
				Name:   "tool",
				Kind:   types.DependencyKindVCS,
				VCSURL: "ssh://git@github.com/acme/tool.git",
				Origin: origin,
			},
		},
		{
			name: "local path",
			text: "./libs/shared_utils",
			want: types.Dependency{Name: "shared-utils", Kind: types.DependencyKindPath, Path: "./libs/shared_utils", Origin: origin},
		},
		{
			name: "arbitrary equality keeps raw text",
			text: "legacy===1.0-custom",
			want: types.Dependency{
				Name:         "legacy",
				Kind:         types.DependencyKindRegistry,
				Specifiers:   []types.Specifier{{Op: "===", Version: "1.0-custom"}},
				RawSpecifier: "===1.0-custom",
				Origin:       origin,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirement(tt.text, origin)
			require.Nil(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected dependency (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	for _, text := range []string{"", "@@@", "pkg extra", "pkg[oops", "pkg ; ", "hg+https://example.com/repo#egg=x", "https://example.com/archive.zip"} {
		_, err := ParseRequirement(text, types.Origin{File: "r.txt", Line: 4})
		require.NotNil(t, err, "expected error for %q", text)
		assert.Equal(t, 4, err.Origin.Line)
	}
}

func TestParseLineOptions(t *testing.T) {
	parser := NewRequirementParser()
	origin := types.Origin{File: "requirements.txt", Line: 2}

	line, err := parser.ParseLine("package-b==2.3 --index-url internal  # pinned", origin)
	require.Nil(t, err)
	assert.Equal(t, LineRequirement, line.Kind)
	assert.Equal(t, "internal", line.Dependency.Source)
	assert.Empty(t, line.Warnings)

	line, err = parser.ParseLine("--extra-index-url=https://pkgs.example.com/simple", origin)
	require.Nil(t, err)
	assert.Equal(t, LineIndex, line.Kind)
	assert.Equal(t, "https://pkgs.example.com/simple", line.Index)

	line, err = parser.ParseLine("-r base.txt", origin)
	require.Nil(t, err)
	assert.Equal(t, LineInclude, line.Kind)
	assert.Equal(t, "base.txt", line.Include)

	line, err = parser.ParseLine("-c constraints.txt", origin)
	require.Nil(t, err)
	assert.Equal(t, LineUnsupported, line.Kind)

	line, err = parser.ParseLine("-e .", origin)
	require.Nil(t, err)
	assert.True(t, IsSelfReference(line.Dependency))
	assert.True(t, line.Dependency.Editable)

	line, err = parser.ParseLine("   # only a comment", origin)
	require.Nil(t, err)
	assert.Nil(t, line)
}

func TestParseFileJoinsContinuations(t *testing.T) {
	content := "# header\n" +
		"requests==2.31.0 \\\n" +
		"    --hash=sha256:aaaa \\\n" +
		"    --hash=sha256:bbbb\n" +
		"\n" +
		"!!! broken\n" +
		"flask>=3\n"
	lines, errs := NewRequirementParser().ParseFile("requirements.txt", content)

	require.Len(t, lines, 2)
	assert.Equal(t, "requests", lines[0].Dependency.Name)
	assert.Equal(t, 2, lines[0].Origin.Line)
	assert.Equal(t, "==2.31.0", lines[0].Dependency.RawSpecifier)
	assert.Equal(t, "flask", lines[1].Dependency.Name)
	assert.Equal(t, 7, lines[1].Origin.Line)

	require.Len(t, errs, 1)
	assert.Equal(t, 6, errs[0].Origin.Line)
	assert.Equal(t, "!!! broken", errs[0].Text)
}
