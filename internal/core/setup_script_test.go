package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-migrate/internal/types"
)

const sampleSetupScript = `#!/usr/bin/env python
import os
from setuptools import find_packages, setup

HERE = os.path.dirname(__file__)

setup(
    name="acme_tools",  # distribution name
    version='2.1.0',
    description=(
        "Tools for "
        "acme"
    ),
    author="Jane Doe",
    author_email="jane@example.com",
    url="https://github.com/acme/tools",
    license="MIT",
    packages=find_packages(exclude=["tests"]),
    python_requires=">=3.8, <4",
    install_requires=[
        "requests>=2.0",
        'click',
    ],
    extras_require={
        "test": ["pytest", "pytest-cov"],
        "docs": "sphinx",
    },
    entry_points={
        "console_scripts": [
            "acme = acme.cli:main",
            "acme-admin=acme.admin:run",
        ],
    },
    long_description=open(os.path.join(HERE, "README.md")).read(),
)
`

func TestSetupScriptParserLiterals(t *testing.T) {
	meta, warnings := NewSetupScriptParser().Parse("setup.py", sampleSetupScript)

	require.Empty(t, warnings)
	want := types.SetupMetadata{
		Name:            "acme_tools",
		Version:         "2.1.0",
		Description:     "Tools for acme",
		Author:          "Jane Doe",
		AuthorEmail:     "jane@example.com",
		URL:             "https://github.com/acme/tools",
		License:         "MIT",
		PythonRequires:  ">=3.8, <4",
		InstallRequires: []string{"requests>=2.0", "click"},
		ExtrasRequire: map[string][]string{
			"test": {"pytest", "pytest-cov"},
			"docs": {"sphinx"},
		},
		ConsoleScripts: map[string]string{
			"acme":       "acme.cli:main",
			"acme-admin": "acme.admin:run",
		},
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("unexpected metadata (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"acme", "acme-admin"}, SortedScriptNames(meta.ConsoleScripts))
}

func TestSetupScriptParserWarnsOnExpressions(t *testing.T) {
	source := `
from setuptools import setup
VERSION = "1.0"
setup(
    name="pkg",
    version=VERSION,
    install_requires=REQUIREMENTS + ["extra"],
    description="a" + "b",
    entry_points="""
        [console_scripts]
        pkg = pkg.main:run
    """,
)
`
	meta, warnings := NewSetupScriptParser().Parse("setup.py", source)

	assert.Equal(t, "pkg", meta.Name)
	assert.Empty(t, meta.Version)
	assert.Empty(t, meta.InstallRequires)
	assert.Empty(t, meta.Description)
	assert.Equal(t, map[string]string{"pkg": "pkg.main:run"}, meta.ConsoleScripts)
	require.Len(t, warnings, 3)
	for _, warning := range warnings {
		assert.Equal(t, types.WarningKindMetadata, warning.Kind)
		assert.Equal(t, "setup.py", warning.File)
	}
}

func TestSetupScriptParserWithoutSetupCall(t *testing.T) {
	meta, warnings := NewSetupScriptParser().Parse("setup.py", "import setuptools\nsetuptools.find_packages()\n")

	assert.Equal(t, types.SetupMetadata{}, meta)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "no setup() call")
}
