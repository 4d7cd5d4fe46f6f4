package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupPolicyShouldRemove(t *testing.T) {
	policy := NewCleanupPolicy(NewGroupPolicy(map[string]string{"ci/deps.txt": "ci"}))
	cases := []struct {
		path   string
		isDir  bool
		remove bool
	}{
		{path: "setup.py", remove: true},
		{path: "requirements.txt", remove: true},
		{path: "requirements-dev.in", remove: true},
		{path: "docs-requirements.txt", remove: true},
		{path: "requirements/test.txt", remove: true},
		{path: "requirements/README", remove: true},
		{path: "package_x.egg-info", isDir: true, remove: true},
		{path: "ci/deps.txt", remove: false},
		{path: "requirements.md", remove: false},
		{path: "README.md", remove: false},
		{path: "pyproject.toml", remove: false},
		{path: "src/setup.py", remove: false},
		{path: "requirements", isDir: true, remove: false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.remove, policy.ShouldRemove(tc.path, tc.isDir))
		})
	}
}
