package ports

import (
	"context"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

// ReportRepository persists completed analysis reports. The estimation
// core itself has no persistence requirement; this is an outer adapter
// concern.
type ReportRepository interface {
	Save(ctx context.Context, report *causal.AnalysisReport) error
	GetByID(ctx context.Context, id core.AnalysisID) (*causal.AnalysisReport, error)
	ListRecent(ctx context.Context, limit int) ([]*causal.AnalysisReport, error)
}

// DatasetSource loads a dataset satisfying the engine contract from an
// external location (file, extractor output).
type DatasetSource interface {
	Load(ctx context.Context) (*causal.Dataset, error)
}
