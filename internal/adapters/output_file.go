package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

// ReportFileAdapter writes the run summary as YAML.
type ReportFileAdapter struct{}

func NewReportFileAdapter() ReportFileAdapter {
	return ReportFileAdapter{}
}

func (a ReportFileAdapter) WriteSummary(path string, summary types.Summary) error {
	target, err := a.ensurePath(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(summary)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode summary").
			WithCause(err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write summary report").
			WithCause(err)
	}
	return nil
}

func (a ReportFileAdapter) ensurePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("report path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create report directory").
			WithCause(err)
	}
	return path, nil
}

var _ ports.ReportPort = ReportFileAdapter{}
