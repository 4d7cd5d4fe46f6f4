package app

import "poetry-migrate/internal/types"

// TranslateRequest carries the inputs shared by migrate and plan.
type TranslateRequest struct {
	ProjectDir    string
	PrivateRepos  []types.PrivateRepo
	Namespace     string
	PythonDefault string
	CaretPins     bool
}

// VerifyOptions configure the package manager invocations. Empty fields
// fall back to poetry, "lock" and "install --sync".
type VerifyOptions struct {
	PoetryBin   string
	LockArgs    []string
	InstallArgs []string
	EnvFile     string
}

type MigrateRequest struct {
	TranslateRequest
	Verify     VerifyOptions
	NoVerify   bool
	Delete     bool
	ReportPath string
}

type MigrateResult struct {
	Summary      types.Summary
	ManifestPath string
}

type PlanRequest struct {
	TranslateRequest
	ReportPath string
}

type PlanResult struct {
	Summary types.Summary
	Content []byte
	Diff    string
	Changed bool
}

type VerifyRequest struct {
	ProjectDir string
	Verify     VerifyOptions
}

type VerifyResult struct {
	Steps []string
}

type CleanRequest struct {
	ProjectDir string
}

type CleanResult struct {
	Removed []string
}
