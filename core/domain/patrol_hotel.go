package domain

import (
	"strings"
	"time"
)

// VerificationStatus is the outcome of checking a hotel claim against the
// trusted registry
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerified   VerificationStatus = "verified"
	StatusFake       VerificationStatus = "fake"
)

// HotelClaim is a name/domain pair submitted for verification.
type HotelClaim struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// Validate checks the claim carries at least a name.
func (c *HotelClaim) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// HotelRecord is one verification check. The ledger is append-only: every
// check inserts a new record, so status transitions are the row history.
type HotelRecord struct {
	ID            int64              `json:"id"`
	ClaimedName   string             `json:"claimed_name"`
	ClaimedDomain string             `json:"claimed_domain,omitempty"`
	Status        VerificationStatus `json:"verification_status"`
	Notes         string             `json:"notes,omitempty"`
	CheckedAt     time.Time          `json:"checked_at"`
}

// RegistryEntry is one trusted hotel in the official registry.
type RegistryEntry struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// HotelFilter narrows hotel ledger queries.
type HotelFilter struct {
	Status VerificationStatus
	Limit  int
	Offset int
}

// HotelStats summarizes the verification ledger.
type HotelStats struct {
	TotalChecks   int                        `json:"total_checks"`
	CountByStatus map[VerificationStatus]int `json:"count_by_status"`
	RegistrySize  int                        `json:"registry_size"`
}

// NormalizeHotelKey canonicalizes names and domains for registry lookups:
// lowercase, trimmed, inner whitespace collapsed.
func NormalizeHotelKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
