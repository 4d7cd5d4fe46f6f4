package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"poetry-migrate/internal/types"
)

func TestTranslateConstraint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantReason bool
	}{
		{name: "empty", raw: "", want: "*"},
		{name: "exact", raw: "==2.3", want: "==2.3"},
		{name: "range", raw: ">=1.0,!=1.5", want: ">=1.0,!=1.5"},
		{name: "compatible", raw: "~=1.4.2", want: "~=1.4.2"},
		{name: "wildcard", raw: "==1.*", want: "==1.*"},
		{name: "upper bound", raw: ">1,<=2.0.0", want: ">1,<=2.0.0"},
		{name: "arbitrary equality", raw: "===1.0-custom", want: "*", wantReason: true},
		{name: "not pep440", raw: ">=banana", want: "*", wantReason: true},
	}
	cache := newSpecifierCache()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := types.Dependency{Name: "pkg", RawSpecifier: tt.raw}
			if specs, err := ParseSpecifierSet(tt.raw); err == nil {
				dep.Specifiers = specs
			}
			got, reason := cache.translateConstraint(dep)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected constraint (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantReason, reason != "", "reason: %q", reason)
		})
	}
}

func TestTranslateConstraintUnparseableRaw(t *testing.T) {
	got, reason := newSpecifierCache().translateConstraint(types.Dependency{Name: "pkg", RawSpecifier: ">=1.0,,"})
	assert.Equal(t, "*", got)
	assert.Contains(t, reason, ">=1.0,,")
}

func TestCaretPin(t *testing.T) {
	tests := map[string]string{
		"==1.4.2":     "^1.4.2",
		"==2024.2.2":  "^2024.2.2",
		"==1.*":       "==1.*",
		">=1.0":       ">=1.0",
		"==1.0,!=1.1": "==1.0,!=1.1",
		"*":           "*",
	}
	for in, want := range tests {
		assert.Equal(t, want, CaretPin(in), "CaretPin(%q)", in)
	}
}
