package core

import (
	"fmt"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"poetry-migrate/internal/types"
)

const wildcardConstraint = "*"

// specifierCache memoizes PEP 440 validation of specifier sets.
type specifierCache struct {
	spec map[string]error
}

func newSpecifierCache() *specifierCache {
	return &specifierCache{spec: map[string]error{}}
}

// validate reports whether value is a well-formed PEP 440 specifier set.
func (c *specifierCache) validate(value string) error {
	if err, ok := c.spec[value]; ok {
		return err
	}
	_, err := pep440.NewSpecifiers(value)
	c.spec[value] = err
	return err
}

// translateConstraint rewrites the legacy specifier set of dep into the
// target syntax. The rewrite is purely syntactic: operators map one to one
// and bounds are kept. Anything exotic degrades to "*" with a reason.
func (c *specifierCache) translateConstraint(dep types.Dependency) (string, string) {
	if len(dep.Specifiers) == 0 {
		if dep.RawSpecifier == "" {
			return wildcardConstraint, ""
		}
		return wildcardConstraint, fmt.Sprintf("unparseable specifier %q replaced by %q", dep.RawSpecifier, wildcardConstraint)
	}
	parts := make([]string, 0, len(dep.Specifiers))
	for _, spec := range dep.Specifiers {
		target, ok := targetOperator(spec.Op)
		if !ok {
			return wildcardConstraint, fmt.Sprintf("operator %q has no target equivalent, %q used", spec.Op, wildcardConstraint)
		}
		parts = append(parts, target+spec.Version)
	}
	constraint := strings.Join(parts, ",")
	if err := c.validate(FormatSpecifiers(dep.Specifiers)); err != nil {
		return wildcardConstraint, fmt.Sprintf("specifier %q is not valid PEP 440 (%v), %q used", constraint, err, wildcardConstraint)
	}
	return constraint, ""
}

// targetOperator maps a legacy operator onto the operator accepted by the
// target manifest. Arbitrary equality has no counterpart.
func targetOperator(op types.ConstraintOp) (string, bool) {
	switch op {
	case types.ConstraintOpEq,
		types.ConstraintOpNe,
		types.ConstraintOpGte,
		types.ConstraintOpLte,
		types.ConstraintOpGt,
		types.ConstraintOpLt,
		types.ConstraintOpCompat:
		return string(op), true
	default:
		return "", false
	}
}

// CaretPin turns an exact pin into a caret constraint ("==1.4.2" becomes
// "^1.4.2"). Anything that is not a single valid exact pin is returned
// unchanged.
func CaretPin(constraint string) string {
	if !strings.HasPrefix(constraint, "==") || strings.Contains(constraint, ",") {
		return constraint
	}
	version := strings.TrimPrefix(constraint, "==")
	if strings.Contains(version, "*") {
		return constraint
	}
	if _, err := pep440.Parse(version); err != nil {
		return constraint
	}
	return "^" + version
}
