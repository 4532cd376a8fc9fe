package out

import (
	"context"

	"patrol_server/core/domain"
)

// EvidenceRepository defines the interface for flagged-item persistence.
// The store is append-only; InsertFlagged returns persistence.ErrDuplicate
// when an item with the same (source, url, text) already exists.
type EvidenceRepository interface {
	InsertFlagged(ctx context.Context, item *domain.FlaggedItem) error
	GetFlagged(ctx context.Context, id int64) (*domain.FlaggedItem, error)
	FindFlaggedByKey(ctx context.Context, source domain.Source, url, text string) (*domain.FlaggedItem, error)

	// QueryFlagged returns matching items newest-first plus the total count.
	QueryFlagged(ctx context.Context, filter *domain.EvidenceFilter) ([]*domain.FlaggedItem, int, error)

	Stats(ctx context.Context) (*domain.EvidenceStats, error)
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}
