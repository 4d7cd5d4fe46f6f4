package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"poetry-migrate/internal/types"
)

// opTokens is the ordered list of specifier operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. "===" before "==", ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpArbitrary,
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpCompat,
	types.ConstraintOpNe,
	types.ConstraintOpEq,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

// ParseSpecifier splits a single clause such as ">=1.4" into operator and
// version.
func ParseSpecifier(raw string) (types.Specifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Specifier{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty specifier")
	}
	for _, op := range opTokens {
		if !strings.HasPrefix(raw, string(op)) {
			continue
		}
		version := strings.TrimSpace(strings.TrimPrefix(raw, string(op)))
		if version == "" || strings.ContainsAny(version, "<>=!~ ") {
			return types.Specifier{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid specifier: %s", raw))
		}
		return types.Specifier{Op: op, Version: version}, nil
	}
	return types.Specifier{}, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown operator in specifier: %s", raw))
}

// ParseSpecifierSet parses a comma separated specifier set. The set may be
// wrapped in parentheses as allowed by PEP 508.
func ParseSpecifierSet(raw string) ([]types.Specifier, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	if raw == "" {
		return nil, nil
	}
	var out []types.Specifier
	for _, clause := range strings.Split(raw, ",") {
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// FormatSpecifiers renders clauses back into "op version" form joined by
// commas, without inner whitespace.
func FormatSpecifiers(specs []types.Specifier) string {
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		parts = append(parts, string(spec.Op)+spec.Version)
	}
	return strings.Join(parts, ",")
}
