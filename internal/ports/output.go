package ports

import "poetry-migrate/internal/types"

type ReportPort interface {
	WriteSummary(path string, summary types.Summary) error
}
