// Package hotel implements hotel claim verification against the trusted
// registry.
package hotel

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"patrol_server/adapter/out/registry"
	"patrol_server/core/domain"
	"patrol_server/core/port/in"
	"patrol_server/core/port/out"
	"patrol_server/pkg/logger"
)

// Service verifies hotel claims. Every check appends a record to the
// ledger, so repeated checks preserve the status history.
type Service struct {
	registry  out.HotelRegistry
	hotelRepo out.HotelRepository
	log       *logger.Logger
}

// NewService creates the hotel verifier.
func NewService(reg out.HotelRegistry, hotelRepo out.HotelRepository) *Service {
	return &Service{
		registry:  reg,
		hotelRepo: hotelRepo,
		log:       logger.WithField("service", "hotel"),
	}
}

// Verify checks a claim against the registry and appends the outcome:
//   - name in registry, claimed domain matches → verified
//   - name in registry, claimed domain differs → fake
//   - name unknown → unverified
//
// A claim without a domain for a registered name counts as verified only
// when the registry entry also has no domain.
func (s *Service) Verify(ctx context.Context, claim *domain.HotelClaim) (*domain.HotelRecord, error) {
	if claim == nil {
		return nil, &domain.ValidationError{Field: "claim", Reason: "must not be nil"}
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	record := &domain.HotelRecord{
		ClaimedName:   claim.Name,
		ClaimedDomain: claim.Domain,
		CheckedAt:     time.Now().UTC(),
	}

	entry, known := s.registry.MatchName(claim.Name)
	switch {
	case !known:
		record.Status = domain.StatusUnverified
		record.Notes = "name not present in trusted registry"
		if claim.Domain != "" {
			if owner, ok := s.registry.MatchDomain(claim.Domain); ok {
				// Domain belongs to a registered hotel under another name.
				// Not enough to verify, but worth surfacing to the analyst.
				record.Notes = fmt.Sprintf("name unknown, but domain is registered to %q", owner.Name)
			}
		}
	case domain.NormalizeHotelKey(claim.Domain) == domain.NormalizeHotelKey(entry.Domain):
		record.Status = domain.StatusVerified
		record.Notes = "name and domain match trusted registry"
	default:
		record.Status = domain.StatusFake
		record.Notes = fmt.Sprintf("registered domain is %q, claim presented %q", entry.Domain, claim.Domain)
	}

	if err := s.hotelRepo.InsertRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("hotel verify: insert record: %w", err)
	}

	s.log.Info("hotel check %d: name=%q status=%s", record.ID, record.ClaimedName, record.Status)
	return record, nil
}

// ListChecks returns ledger records newest-first.
func (s *Service) ListChecks(ctx context.Context, filter *domain.HotelFilter) ([]*domain.HotelRecord, int, error) {
	if filter == nil {
		filter = &domain.HotelFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.hotelRepo.ListRecords(ctx, filter)
}

// Stats summarizes the verification ledger and the registry size.
func (s *Service) Stats(ctx context.Context) (*domain.HotelStats, error) {
	stats, err := s.hotelRepo.HotelStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.RegistrySize = s.registry.Size()
	return stats, nil
}

// ReloadRegistry replaces the trusted registry from CSV (name,domain) and
// returns the number of entries loaded.
func (s *Service) ReloadRegistry(ctx context.Context, csvData []byte) (int, error) {
	entries, err := registry.ParseCSV(bytes.NewReader(csvData))
	if err != nil {
		return 0, &domain.ValidationError{Field: "file", Reason: err.Error()}
	}
	if len(entries) == 0 {
		return 0, &domain.ValidationError{Field: "file", Reason: "contains no registry entries"}
	}

	s.registry.Reload(entries)
	s.log.Info("hotel registry reloaded: %d entries", len(entries))
	return len(entries), nil
}

var _ in.HotelVerifier = (*Service)(nil)
