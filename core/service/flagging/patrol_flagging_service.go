// Package flagging implements the capture flagging pipeline.
package flagging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"patrol_server/adapter/out/persistence"
	"patrol_server/core/domain"
	"patrol_server/core/port/in"
	"patrol_server/core/port/out"
	"patrol_server/core/service/risk"
	"patrol_server/pkg/logger"
)

const alertExcerptLen = 140

// Service runs captures through validate -> score -> persist. Stateless:
// all collaborators are injected. Broadcaster and archive are optional.
type Service struct {
	scorer        *risk.Scorer
	evidenceRepo  out.EvidenceRepository
	broadcaster   out.AlertBroadcaster
	archive       out.SnapshotArchive
	threshold     int
	highThreshold int
	log           *logger.Logger
}

// NewService creates the flagging pipeline.
func NewService(
	scorer *risk.Scorer,
	evidenceRepo out.EvidenceRepository,
	broadcaster out.AlertBroadcaster,
	archive out.SnapshotArchive,
	threshold int,
	highThreshold int,
) *Service {
	if threshold <= 0 {
		threshold = 30
	}
	if highThreshold <= 0 {
		highThreshold = 70
	}
	return &Service{
		scorer:        scorer,
		evidenceRepo:  evidenceRepo,
		broadcaster:   broadcaster,
		archive:       archive,
		threshold:     threshold,
		highThreshold: highThreshold,
		log:           logger.WithField("service", "flagging"),
	}
}

// Flag scores one capture and persists it when it reaches the threshold.
// Below-threshold captures return (nil, nil). A duplicate capture returns
// the previously stored item, making re-flagging idempotent.
func (s *Service) Flag(ctx context.Context, input *domain.NormalizedInput) (*domain.FlaggedItem, error) {
	if input == nil {
		return nil, &domain.ValidationError{Field: "input", Reason: "must not be nil"}
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	result := s.scorer.Score(input.Text)
	if result.Score < s.threshold {
		s.log.Debug("capture below threshold: score=%d source=%s", result.Score, input.Source)
		return nil, nil
	}

	item := &domain.FlaggedItem{
		Source:            input.Source,
		Author:            input.Author,
		URL:               input.URL,
		Text:              input.Text,
		CapturedAt:        input.CapturedAt,
		RiskScore:         result.Score,
		Category:          result.Category,
		MatchedKeywords:   result.MatchedKeywords,
		RecommendedAction: domain.RecommendedAction(result.Category),
	}

	err := s.evidenceRepo.InsertFlagged(ctx, item)
	if errors.Is(err, persistence.ErrDuplicate) {
		existing, findErr := s.evidenceRepo.FindFlaggedByKey(ctx, input.Source, input.URL, input.Text)
		if findErr != nil {
			return nil, fmt.Errorf("flag: resolve duplicate: %w", findErr)
		}
		s.log.Debug("duplicate capture resolved to item %d", existing.ID)
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flag: insert: %w", err)
	}

	s.log.Info("flagged item %d: source=%s category=%s score=%d",
		item.ID, item.Source, item.Category, item.RiskScore)

	s.notify(ctx, item)
	s.archiveSnapshot(ctx, item)

	return item, nil
}

// FlagBatch processes captures independently. A malformed capture lands in
// the error list; the rest of the batch proceeds.
func (s *Service) FlagBatch(ctx context.Context, inputs []domain.NormalizedInput) (*in.BatchResult, error) {
	result := &in.BatchResult{
		Flagged: []*domain.FlaggedItem{},
		Errors:  []in.BatchItemError{},
	}

	for i := range inputs {
		item, err := s.Flag(ctx, &inputs[i])
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				result.Errors = append(result.Errors, in.BatchItemError{Index: i, Reason: vErr.Error()})
				continue
			}
			// Store failures abort the batch: remaining items would fail the
			// same way and partial silence would hide data loss.
			return nil, fmt.Errorf("flag batch: item %d: %w", i, err)
		}
		if item == nil {
			result.Skipped++
			continue
		}
		result.Flagged = append(result.Flagged, item)
	}

	return result, nil
}

// GetEvidence returns one flagged item by ID.
func (s *Service) GetEvidence(ctx context.Context, id int64) (*domain.FlaggedItem, error) {
	return s.evidenceRepo.GetFlagged(ctx, id)
}

// ListEvidence returns flagged items newest-first.
func (s *Service) ListEvidence(ctx context.Context, filter *domain.EvidenceFilter) ([]*domain.FlaggedItem, int, error) {
	if filter == nil {
		filter = &domain.EvidenceFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.evidenceRepo.QueryFlagged(ctx, filter)
}

func (s *Service) notify(ctx context.Context, item *domain.FlaggedItem) {
	if s.broadcaster == nil || item.RiskScore < s.highThreshold {
		return
	}

	excerpt := item.Text
	if runes := []rune(excerpt); len(runes) > alertExcerptLen {
		excerpt = string(runes[:alertExcerptLen])
	}

	event := &domain.AlertEvent{
		ItemID:    item.ID,
		Source:    item.Source,
		Category:  item.Category,
		RiskScore: item.RiskScore,
		URL:       item.URL,
		Excerpt:   excerpt,
		Timestamp: time.Now().UTC(),
	}
	if err := s.broadcaster.Broadcast(ctx, event); err != nil {
		s.log.WithError(err).Warn("alert broadcast failed for item %d", item.ID)
	}
}

func (s *Service) archiveSnapshot(ctx context.Context, item *domain.FlaggedItem) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.SaveSnapshot(ctx, item.ID, item.Source, []byte(item.Text)); err != nil {
		s.log.WithError(err).Warn("snapshot archive failed for item %d", item.ID)
	}
}

var _ in.Flagger = (*Service)(nil)
