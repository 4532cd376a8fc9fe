package hotel

import (
	"context"
	"errors"
	"testing"

	"patrol_server/adapter/out/persistence"
	"patrol_server/adapter/out/registry"
	"patrol_server/core/domain"
)

func newTestService() (*Service, *persistence.MemoryStore) {
	reg := registry.NewInMemoryRegistry()
	reg.Reload([]domain.RegistryEntry{
		{Name: "Sunset Beach Resort", Domain: "sunsetbeach.com"},
		{Name: "Palm Grove Hotel", Domain: "palmgrove.in"},
		{Name: "Hilltop Homestay", Domain: ""},
	})
	store := persistence.NewMemoryStore()
	return NewService(reg, store), store
}

func TestService_Verify(t *testing.T) {
	tests := []struct {
		name       string
		claim      domain.HotelClaim
		wantStatus domain.VerificationStatus
	}{
		{
			name:       "name and domain match",
			claim:      domain.HotelClaim{Name: "Sunset Beach Resort", Domain: "sunsetbeach.com"},
			wantStatus: domain.StatusVerified,
		},
		{
			name:       "case insensitive match",
			claim:      domain.HotelClaim{Name: "sunset beach resort", Domain: "SUNSETBEACH.COM"},
			wantStatus: domain.StatusVerified,
		},
		{
			name:       "known name with wrong domain",
			claim:      domain.HotelClaim{Name: "Sunset Beach Resort", Domain: "sunset-deals.biz"},
			wantStatus: domain.StatusFake,
		},
		{
			name:       "known name with missing domain",
			claim:      domain.HotelClaim{Name: "Palm Grove Hotel", Domain: ""},
			wantStatus: domain.StatusFake,
		},
		{
			name:       "domainless registry entry with no claimed domain",
			claim:      domain.HotelClaim{Name: "Hilltop Homestay", Domain: ""},
			wantStatus: domain.StatusVerified,
		},
		{
			name:       "unknown name",
			claim:      domain.HotelClaim{Name: "Grand Plaza", Domain: "grandplaza.com"},
			wantStatus: domain.StatusUnverified,
		},
		{
			name:       "unknown name with registered domain",
			claim:      domain.HotelClaim{Name: "Totally Different Name", Domain: "sunsetbeach.com"},
			wantStatus: domain.StatusUnverified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			record, err := svc.Verify(context.Background(), &tt.claim)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if record.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (notes: %s)", record.Status, tt.wantStatus, record.Notes)
			}
			if record.ID == 0 {
				t.Error("record was not persisted")
			}
		})
	}
}

func TestService_Verify_AppendOnly(t *testing.T) {
	svc, store := newTestService()
	claim := &domain.HotelClaim{Name: "Sunset Beach Resort", Domain: "sunsetbeach.com"}

	first, err := svc.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}
	second, err := svc.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("second Verify() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("re-check should append a new record")
	}

	stats, err := store.HotelStats(context.Background())
	if err != nil {
		t.Fatalf("HotelStats() error = %v", err)
	}
	if stats.TotalChecks != 2 {
		t.Errorf("TotalChecks = %d, want 2", stats.TotalChecks)
	}
}

func TestService_Verify_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Verify(context.Background(), &domain.HotelClaim{Name: "  "})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	_, err = svc.Verify(context.Background(), nil)
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for nil claim, got %v", err)
	}
}

func TestService_ReloadRegistry(t *testing.T) {
	svc, _ := newTestService()

	n, err := svc.ReloadRegistry(context.Background(), []byte("name,domain\nNew Resort,newresort.com\n"))
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if n != 1 {
		t.Errorf("loaded %d entries, want 1", n)
	}

	record, err := svc.Verify(context.Background(), &domain.HotelClaim{Name: "New Resort", Domain: "newresort.com"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if record.Status != domain.StatusVerified {
		t.Errorf("Status = %s, want verified", record.Status)
	}

	// Old entries are gone after the swap.
	record, err = svc.Verify(context.Background(), &domain.HotelClaim{Name: "Sunset Beach Resort", Domain: "sunsetbeach.com"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if record.Status != domain.StatusUnverified {
		t.Errorf("Status = %s, want unverified", record.Status)
	}

	if _, err := svc.ReloadRegistry(context.Background(), []byte("")); err == nil {
		t.Error("empty CSV should be rejected")
	}
}
