package out

import (
	"context"

	"patrol_server/core/domain"
)

// SourceProvider fetches public content from an external platform and
// normalizes it into captures. Providers do no scoring or persistence.
type SourceProvider interface {
	// Source identifies which platform this provider scrapes.
	Source() domain.Source
	// Fetch retrieves recent posts for a target (channel name or hashtag).
	Fetch(ctx context.Context, target string) ([]domain.NormalizedInput, error)
}

// FetchResult is the outcome of fetching one target.
type FetchResult struct {
	Target   string
	Captures []domain.NormalizedInput
	Err      error
}

// FetchDispatcher runs target fetches for a provider, possibly
// concurrently. Results come back in target order.
type FetchDispatcher interface {
	FetchAll(ctx context.Context, provider SourceProvider, targets []string) ([]FetchResult, error)
}

// SnapshotArchive stores the raw payload of a flagged capture for later
// evidentiary use. Optional collaborator: a nil archive disables archiving.
type SnapshotArchive interface {
	SaveSnapshot(ctx context.Context, itemID int64, source domain.Source, raw []byte) (string, error)
}
