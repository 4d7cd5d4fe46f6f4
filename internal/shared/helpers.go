// Package shared provides common utility functions used across multiple
// packages in the poetry-migrate codebase.
package shared

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var pipNameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePipName lowercases a Python package name and collapses runs of
// hyphens, underscores and dots into one hyphen, following PEP 503
// normalization.
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return pipNameSeparators.ReplaceAllString(lower, "-")
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// UniqueSorted trims, deduplicates and sorts values, dropping empties.
func UniqueSorted(values []string) []string {
	unique := map[string]struct{}{}
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		unique[trimmed] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}
	result := make([]string, 0, len(unique))
	for value := range unique {
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}
