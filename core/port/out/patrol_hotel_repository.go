package out

import (
	"context"

	"patrol_server/core/domain"
)

// HotelRepository defines the interface for the hotel verification ledger.
// The ledger is append-only: re-checks insert new records.
type HotelRepository interface {
	InsertRecord(ctx context.Context, record *domain.HotelRecord) error
	ListRecords(ctx context.Context, filter *domain.HotelFilter) ([]*domain.HotelRecord, int, error)
	HotelStats(ctx context.Context) (*domain.HotelStats, error)
}

// HotelRegistry is the trusted official-hotel registry used to verify
// claims. Lookups are case and whitespace insensitive.
type HotelRegistry interface {
	// MatchName returns the registry entry for a claimed name, if any.
	MatchName(name string) (*domain.RegistryEntry, bool)
	// MatchDomain returns the registry entry owning a domain, if any.
	MatchDomain(host string) (*domain.RegistryEntry, bool)
	// Reload atomically replaces the registry snapshot.
	Reload(entries []domain.RegistryEntry)
	Size() int
}
