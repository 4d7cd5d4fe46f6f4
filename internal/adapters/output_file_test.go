package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"poetry-migrate/internal/types"
)

func TestReportFileAdapterWritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.yaml")
	summary := types.Summary{
		RunID:   "2Nf7Z3xK0",
		Project: "/work/pkg",
		Warnings: []types.Warning{{
			Kind:    types.WarningKindTranslation,
			Package: "legacy",
			File:    "requirements.txt",
			Line:    3,
			Message: "operator \"===\" has no target equivalent",
		}},
		Removed: []string{"setup.py"},
	}

	require.NoError(t, NewReportFileAdapter().WriteSummary(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.Summary
	require.NoError(t, yaml.Unmarshal(data, &got))
	if diff := cmp.Diff(summary, got); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}
}

func TestReportFileAdapterRejectsEmptyPath(t *testing.T) {
	err := NewReportFileAdapter().WriteSummary("", types.Summary{})
	require.Error(t, err)
}
