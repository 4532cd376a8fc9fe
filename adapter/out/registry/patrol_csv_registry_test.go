package registry

import (
	"strings"
	"testing"

	"patrol_server/core/domain"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "with header",
			input: "name,domain\nSunset Beach Resort,sunsetbeach.com\nPalm Grove Hotel,palmgrove.in\n",
			want:  2,
		},
		{
			name:  "without header",
			input: "Sunset Beach Resort,sunsetbeach.com\n",
			want:  1,
		},
		{
			name:  "name only",
			input: "Sunset Beach Resort\n",
			want:  1,
		},
		{
			name:  "blank rows skipped",
			input: "name,domain\nSunset Beach Resort,sunsetbeach.com\n,\n",
			want:  1,
		},
		{
			name:  "empty input",
			input: "",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseCSV(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestInMemoryRegistry_Match(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Reload([]domain.RegistryEntry{
		{Name: "Sunset Beach Resort", Domain: "sunsetbeach.com"},
		{Name: "Palm Grove Hotel", Domain: "palmgrove.in"},
	})

	if reg.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", reg.Size())
	}

	tests := []struct {
		name      string
		lookup    string
		byDomain  bool
		wantFound bool
		wantName  string
	}{
		{"exact name", "Sunset Beach Resort", false, true, "Sunset Beach Resort"},
		{"case insensitive name", "sunset beach resort", false, true, "Sunset Beach Resort"},
		{"extra whitespace", "  Sunset   Beach Resort ", false, true, "Sunset Beach Resort"},
		{"unknown name", "Grand Plaza", false, false, ""},
		{"exact domain", "sunsetbeach.com", true, true, "Sunset Beach Resort"},
		{"case insensitive domain", "PALMGROVE.IN", true, true, "Palm Grove Hotel"},
		{"unknown domain", "scam-resort.biz", true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry *domain.RegistryEntry
			var found bool
			if tt.byDomain {
				entry, found = reg.MatchDomain(tt.lookup)
			} else {
				entry, found = reg.MatchName(tt.lookup)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && entry.Name != tt.wantName {
				t.Errorf("entry.Name = %q, want %q", entry.Name, tt.wantName)
			}
		})
	}
}

func TestInMemoryRegistry_ReloadSwapsSnapshot(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Reload([]domain.RegistryEntry{{Name: "Old Hotel", Domain: "old.com"}})
	reg.Reload([]domain.RegistryEntry{{Name: "New Hotel", Domain: "new.com"}})

	if _, found := reg.MatchName("Old Hotel"); found {
		t.Error("stale entry survived reload")
	}
	if _, found := reg.MatchName("New Hotel"); !found {
		t.Error("new entry missing after reload")
	}
	if reg.Size() != 1 {
		t.Errorf("Size() = %d, want 1", reg.Size())
	}
}
