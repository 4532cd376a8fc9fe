// Package registry provides the trusted-hotel registry adapter.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

// InMemoryRegistry holds the trusted-hotel registry loaded from CSV.
// Reload swaps the whole snapshot under the write lock, so readers never
// observe a half-loaded registry.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	entries  []domain.RegistryEntry
	byName   map[string]int
	byDomain map[string]int
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	r := &InMemoryRegistry{}
	r.Reload(nil)
	return r
}

// MatchName returns the registry entry for a claimed name.
func (r *InMemoryRegistry) MatchName(name string) (*domain.RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[domain.NormalizeHotelKey(name)]
	if !ok {
		return nil, false
	}
	entry := r.entries[idx]
	return &entry, true
}

// MatchDomain returns the registry entry owning a domain.
func (r *InMemoryRegistry) MatchDomain(host string) (*domain.RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byDomain[domain.NormalizeHotelKey(host)]
	if !ok {
		return nil, false
	}
	entry := r.entries[idx]
	return &entry, true
}

// Reload atomically replaces the registry snapshot.
func (r *InMemoryRegistry) Reload(entries []domain.RegistryEntry) {
	byName := make(map[string]int, len(entries))
	byDomain := make(map[string]int, len(entries))
	kept := make([]domain.RegistryEntry, 0, len(entries))

	for _, e := range entries {
		nameKey := domain.NormalizeHotelKey(e.Name)
		if nameKey == "" {
			continue
		}
		kept = append(kept, e)
		idx := len(kept) - 1
		byName[nameKey] = idx
		if domainKey := domain.NormalizeHotelKey(e.Domain); domainKey != "" {
			byDomain[domainKey] = idx
		}
	}

	r.mu.Lock()
	r.entries = kept
	r.byName = byName
	r.byDomain = byDomain
	r.mu.Unlock()
}

// Size returns the number of registry entries.
func (r *InMemoryRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ParseCSV reads registry entries from "name,domain" rows. A leading
// header row is skipped when detected.
func ParseCSV(reader io.Reader) ([]domain.RegistryEntry, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []domain.RegistryEntry
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("registry csv: row %d: %w", row+1, err)
		}
		row++

		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		if row == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}

		entry := domain.RegistryEntry{Name: strings.TrimSpace(record[0])}
		if len(record) > 1 {
			entry.Domain = strings.TrimSpace(record[1])
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadFromFile loads a registry CSV from disk.
func LoadFromFile(path string) ([]domain.RegistryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registry csv: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(f)
}

var _ out.HotelRegistry = (*InMemoryRegistry)(nil)
