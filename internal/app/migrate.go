package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"poetry-migrate/internal/core"
	"poetry-migrate/internal/types"
)

var readmeCandidates = []string{"README.md", "README.rst", "README.txt", "README"}

// Migrate runs the whole pipeline on one project: read, translate, write,
// verify and, when requested, clean up. The summary is returned on every
// path, including fatal failures.
func (s Service) Migrate(ctx context.Context, req MigrateRequest) (MigrateResult, error) {
	summary := s.newSummary(req.ProjectDir)
	result, err := s.migrate(ctx, req, &summary)
	if err != nil {
		summary.Failure = err.Error()
	}
	result.Summary = summary
	if reportErr := s.writeReport(req.ReportPath, summary); reportErr != nil && err == nil {
		err = reportErr
	}
	return result, err
}

func (s Service) migrate(ctx context.Context, req MigrateRequest, summary *types.Summary) (MigrateResult, error) {
	dir, err := projectDir(req.ProjectDir)
	if err != nil {
		return MigrateResult{}, err
	}
	_, merged, err := s.render(ctx, dir, req.TranslateRequest, summary)
	if err != nil {
		return MigrateResult{}, err
	}
	path, err := s.Manifest.Write(dir, merged)
	if err != nil {
		return MigrateResult{}, err
	}
	summary.Written = path
	result := MigrateResult{ManifestPath: path}
	log.Ctx(ctx).Info().Str("path", path).Msg("manifest written")

	if !req.NoVerify {
		steps, err := s.verify(ctx, dir, req.Verify)
		summary.Steps = steps
		if err != nil {
			return result, err
		}
	}
	if req.Delete {
		removed, err := s.clean(dir)
		summary.Removed = removed
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// render reads and translates the legacy project and merges the result
// into the current target manifest. It returns the old and new documents.
func (s Service) render(ctx context.Context, dir string, req TranslateRequest, summary *types.Summary) ([]byte, []byte, error) {
	legacy, err := s.Legacy.ReadProject(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	summary.AddWarnings(legacy.Warnings...)
	summary.AddParseErrors(legacy.ParseErrors...)
	summary.AddUnsupported(legacy.Unsupported...)

	translation, err := core.NewTranslator(s.Namespace).Translate(ctx, legacy, core.TranslateOptions{
		ProjectDir:    dir,
		PrivateRepos:  req.PrivateRepos,
		Namespace:     strings.TrimSpace(req.Namespace),
		PythonDefault: strings.TrimSpace(req.PythonDefault),
		CaretPins:     req.CaretPins,
		Readme:        detectReadme(dir),
	})
	if err != nil {
		return nil, nil, err
	}
	summary.AddWarnings(translation.Warnings...)
	summary.AddParseErrors(translation.ParseErrors...)

	old, err := s.Manifest.Read(dir)
	if err != nil {
		return nil, nil, err
	}
	merged, err := core.Merge(old, translation.Fragment)
	if err != nil {
		var writeErr *types.WriteError
		if errors.As(err, &writeErr) {
			writeErr.Path = filepath.Join(dir, core.TargetManifestName)
		}
		return nil, nil, err
	}
	return old, merged, nil
}

func (s Service) newSummary(dir string) types.Summary {
	summary := types.Summary{Project: strings.TrimSpace(dir)}
	if s.NewRunID != nil {
		summary.RunID = s.NewRunID()
	}
	return summary
}

func (s Service) writeReport(path string, summary types.Summary) error {
	path = strings.TrimSpace(path)
	if path == "" || s.Report == nil {
		return nil
	}
	return s.Report.WriteSummary(path, summary)
}

func projectDir(value string) (string, error) {
	dir := strings.TrimSpace(value)
	if dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project directory is required")
	}
	return filepath.Clean(dir), nil
}

func detectReadme(dir string) string {
	for _, name := range readmeCandidates {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}
