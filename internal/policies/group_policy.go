package policies

import (
	"path"
	"strings"

	"poetry-migrate/internal/ports"
	"poetry-migrate/internal/types"
)

const requirementsDir = "requirements"

// GroupPolicy maps requirements file names onto dependency groups.
// Overrides are consulted first, keyed by the path relative to the project
// root; the naming convention applies to everything else.
type GroupPolicy struct {
	Overrides map[string]string
	aliases   map[string]string
}

func NewGroupPolicy(overrides map[string]string) GroupPolicy {
	policy := GroupPolicy{Overrides: map[string]string{}}
	for file, group := range overrides {
		file = path.Clean(strings.ReplaceAll(strings.TrimSpace(file), "\\", "/"))
		group = normalizeGroup(group)
		if file == "" || group == "" {
			continue
		}
		policy.Overrides[file] = group
	}
	policy.compile()
	return policy
}

func (p *GroupPolicy) compile() {
	p.aliases = map[string]string{
		"base":        types.GroupMain,
		"main":        types.GroupMain,
		"prod":        types.GroupMain,
		"production":  types.GroupMain,
		"develop":     types.GroupDev,
		"development": types.GroupDev,
	}
}

// GroupFor returns the group of the requirements file at relPath, or false
// when the file does not follow a requirements naming convention.
func (p GroupPolicy) GroupFor(relPath string) (string, bool) {
	rel := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if group, ok := p.Overrides[rel]; ok {
		return group, true
	}
	ext := path.Ext(rel)
	if ext != ".txt" && ext != ".in" {
		return "", false
	}
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, ext)
	dir = strings.TrimSuffix(dir, "/")

	var name string
	switch {
	case dir == requirementsDir:
		name = stem
	case dir != "":
		return "", false
	case stem == requirementsDir:
		name = types.GroupMain
	case strings.HasPrefix(stem, "requirements-"), strings.HasPrefix(stem, "requirements_"):
		name = stem[len("requirements-"):]
	case strings.HasSuffix(stem, "-requirements"), strings.HasSuffix(stem, "_requirements"):
		name = stem[:len(stem)-len("-requirements")]
	default:
		return "", false
	}
	group := normalizeGroup(name)
	if group == "" {
		return "", false
	}
	if alias, ok := p.aliases[group]; ok {
		group = alias
	}
	return group, true
}

func normalizeGroup(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-", " ", "-").Replace(lower)
}

var _ ports.GroupPolicyPort = GroupPolicy{}
