package store

import (
	"context"

	"github.com/me/momtest/pkg/model"
)

// Store persists scenario run history.
type Store interface {
	RecordRun(ctx context.Context, rec *model.RunRecord) error
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*model.RunRecord, int, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// ListOptions filters and pages ListRuns.
type ListOptions struct {
	Limit    int
	Offset   int
	Scenario string          // Exact scenario name, empty for all
	Status   model.RunStatus // Empty for all
}

// Clamp bounds Limit to [1, 500] (default 20) and Offset to >= 0.
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
