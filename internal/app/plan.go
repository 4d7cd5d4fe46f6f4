package app

import (
	"bytes"
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"poetry-migrate/internal/types"
)

// Plan renders the manifest a migration would write and a line diff
// against the current one. Nothing is written except the report.
func (s Service) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	summary := s.newSummary(req.ProjectDir)
	result, err := s.plan(ctx, req, &summary)
	if err != nil {
		summary.Failure = err.Error()
	}
	result.Summary = summary
	if reportErr := s.writeReport(req.ReportPath, summary); reportErr != nil && err == nil {
		err = reportErr
	}
	return result, err
}

func (s Service) plan(ctx context.Context, req PlanRequest, summary *types.Summary) (PlanResult, error) {
	dir, err := projectDir(req.ProjectDir)
	if err != nil {
		return PlanResult{}, err
	}
	old, merged, err := s.render(ctx, dir, req.TranslateRequest, summary)
	if err != nil {
		return PlanResult{}, err
	}
	return PlanResult{
		Content: merged,
		Changed: !bytes.Equal(old, merged),
		Diff:    LineDiff(string(old), string(merged)),
	}, nil
}

// LineDiff renders a line-oriented diff of two documents. Unchanged lines
// are prefixed with two spaces, removed lines with "- " and added lines
// with "+ ". Identical documents yield an empty string.
func LineDiff(before string, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitLines(diff.Text) {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return out.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
