package cli

import (
	"fmt"
	"io"

	"poetry-migrate/internal/types"
)

func printSummary(w io.Writer, summary types.Summary) {
	for _, warning := range summary.Warnings {
		fmt.Fprintf(w, "warning [%s] %s%s\n", warning.Kind, location(warning.File, warning.Line), warning.Message)
	}
	for _, record := range summary.ParseErrors {
		fmt.Fprintf(w, "parse error %s%s: %q\n", location(record.File, record.Line), record.Reason, record.Text)
	}
	for _, record := range summary.Unsupported {
		fmt.Fprintf(w, "unsupported %s%s: %q\n", location(record.File, record.Line), record.Reason, record.Text)
	}
	if summary.Written != "" {
		fmt.Fprintf(w, "written: %s\n", summary.Written)
	}
	for _, step := range summary.Steps {
		fmt.Fprintf(w, "verified: poetry %s\n", step)
	}
	for _, path := range summary.Removed {
		fmt.Fprintf(w, "removed: %s\n", path)
	}
	fmt.Fprintf(w, "run %s: %d issue(s)\n", summary.RunID, summary.IssueCount())
}

func location(file string, line int) string {
	switch {
	case file == "":
		return ""
	case line == 0:
		return file + ": "
	}
	return fmt.Sprintf("%s:%d: ", file, line)
}
