package in

import (
	"context"

	"patrol_server/core/domain"
)

// BatchItemError reports why one capture in a batch was rejected.
type BatchItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of a batch flagging run. Every input is
// accounted for: flagged, skipped below threshold, or errored.
type BatchResult struct {
	Flagged []*domain.FlaggedItem `json:"flagged"`
	Skipped int                   `json:"skipped"`
	Errors  []BatchItemError      `json:"errors"`
}

// Flagger defines the interface for the flagging pipeline.
type Flagger interface {
	// Flag validates, scores and persists one capture. Returns (nil, nil)
	// when the capture scores below the flagging threshold. Re-flagging a
	// duplicate capture returns the existing item.
	Flag(ctx context.Context, input *domain.NormalizedInput) (*domain.FlaggedItem, error)

	// FlagBatch processes captures with per-item error isolation.
	FlagBatch(ctx context.Context, inputs []domain.NormalizedInput) (*BatchResult, error)

	GetEvidence(ctx context.Context, id int64) (*domain.FlaggedItem, error)
	ListEvidence(ctx context.Context, filter *domain.EvidenceFilter) ([]*domain.FlaggedItem, int, error)
}

// HotelVerifier defines the interface for hotel claim verification.
type HotelVerifier interface {
	Verify(ctx context.Context, claim *domain.HotelClaim) (*domain.HotelRecord, error)
	ListChecks(ctx context.Context, filter *domain.HotelFilter) ([]*domain.HotelRecord, int, error)
	Stats(ctx context.Context) (*domain.HotelStats, error)

	// ReloadRegistry replaces the trusted registry from CSV (name,domain).
	ReloadRegistry(ctx context.Context, csvData []byte) (int, error)
}

// StatsProvider defines the interface for dashboard reporting.
type StatsProvider interface {
	Overview(ctx context.Context) (*domain.DashboardStats, error)
	EvidenceStats(ctx context.Context) (*domain.EvidenceStats, error)
}

// IngestResult summarizes one ingestion run for a target.
type IngestResult struct {
	Target  string           `json:"target"`
	Fetched int              `json:"fetched"`
	Flagged int              `json:"flagged"`
	Skipped int              `json:"skipped"`
	Errors  []BatchItemError `json:"errors,omitempty"`
}

// Ingestor defines the interface for pull-based source ingestion.
type Ingestor interface {
	// Ingest fetches targets from a source concurrently and runs each
	// capture through the flagging pipeline.
	Ingest(ctx context.Context, source domain.Source, targets []string) ([]*IngestResult, error)
}
