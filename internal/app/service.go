package app

import (
	"github.com/segmentio/ksuid"

	"poetry-migrate/internal/adapters"
	"poetry-migrate/internal/policies"
	"poetry-migrate/internal/ports"
)

type Service struct {
	Legacy    ports.LegacyProjectPort
	Namespace ports.NamespacePort
	Manifest  ports.TargetManifestPort
	Runner    ports.CommandRunner
	Env       ports.EnvPort
	Cleanup   ports.CleanupPort
	Report    ports.ReportPort
	Environ   func() []string
	NewRunID  func() string
}

func NewService() Service {
	groups := policies.NewGroupPolicy(nil)
	return Service{
		Legacy:    adapters.NewLegacyProjectAdapter(groups),
		Namespace: adapters.NewNamespaceAdapter(),
		Manifest:  adapters.NewTargetFileAdapter(),
		Runner:    adapters.NewExecRunner(),
		Env:       adapters.NewEnvFileAdapter(),
		Cleanup:   adapters.NewCleanupAdapter(policies.NewCleanupPolicy(groups)),
		Report:    adapters.NewReportFileAdapter(),
		Environ:   osEnviron,
		NewRunID:  func() string { return ksuid.New().String() },
	}
}
