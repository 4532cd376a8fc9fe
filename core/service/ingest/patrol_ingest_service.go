// Package ingest orchestrates pull-based collection from source providers.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"patrol_server/core/domain"
	"patrol_server/core/port/in"
	"patrol_server/core/port/out"
	"patrol_server/pkg/logger"
)

// Service fetches targets from registered providers and pushes every
// capture through the flagging pipeline. Fetch concurrency is delegated
// to the dispatcher.
type Service struct {
	providers  map[domain.Source]out.SourceProvider
	dispatcher out.FetchDispatcher
	flagger    in.Flagger
	log        *logger.Logger
}

// NewService creates the ingestor over the given providers.
func NewService(providers []out.SourceProvider, dispatcher out.FetchDispatcher, flagger in.Flagger) *Service {
	bySource := make(map[domain.Source]out.SourceProvider, len(providers))
	for _, p := range providers {
		bySource[p.Source()] = p
	}
	return &Service{
		providers:  bySource,
		dispatcher: dispatcher,
		flagger:    flagger,
		log:        logger.WithField("service", "ingest"),
	}
}

// Ingest fetches the targets from one source and flags their captures.
// Fetch failures are reported per target; one dead channel does not stop
// the round.
func (s *Service) Ingest(ctx context.Context, source domain.Source, targets []string) ([]*in.IngestResult, error) {
	provider, ok := s.providers[source]
	if !ok {
		return nil, &domain.ValidationError{Field: "source", Reason: "no provider registered for " + string(source)}
	}

	cleaned := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return nil, &domain.ValidationError{Field: "targets", Reason: "must name at least one target"}
	}

	fetched, err := s.dispatcher.FetchAll(ctx, provider, cleaned)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	results := make([]*in.IngestResult, 0, len(fetched))
	for _, fr := range fetched {
		result := &in.IngestResult{Target: fr.Target}

		if fr.Err != nil {
			s.log.WithError(fr.Err).Warn("fetch failed: source=%s target=%s", source, fr.Target)
			result.Errors = append(result.Errors, in.BatchItemError{Index: -1, Reason: fr.Err.Error()})
			results = append(results, result)
			continue
		}

		result.Fetched = len(fr.Captures)
		batch, err := s.flagger.FlagBatch(ctx, fr.Captures)
		if err != nil {
			return nil, fmt.Errorf("ingest: flag captures for %s: %w", fr.Target, err)
		}
		result.Flagged = len(batch.Flagged)
		result.Skipped = batch.Skipped
		result.Errors = append(result.Errors, batch.Errors...)

		results = append(results, result)
	}

	s.log.Info("ingest round done: source=%s targets=%d", source, len(results))
	return results, nil
}

var _ in.Ingestor = (*Service)(nil)
