package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

// MemoryStore is a mutex-guarded in-memory implementation of the evidence
// and hotel repositories. Used in tests and for DB-less local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	items        []*domain.FlaggedItem
	itemsByKey   map[string]*domain.FlaggedItem
	hotelRecords []*domain.HotelRecord
	nextItemID   int64
	nextHotelID  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		itemsByKey:  make(map[string]*domain.FlaggedItem),
		nextItemID:  1,
		nextHotelID: 1,
	}
}

func dedupKey(source domain.Source, url, text string) string {
	return string(source) + "\x00" + url + "\x00" + text
}

// InsertFlagged stores a new item or returns ErrDuplicate when an item with
// the same (source, url, text) exists. The key check and insert happen
// under one lock, mirroring the database uniqueness constraint.
func (m *MemoryStore) InsertFlagged(ctx context.Context, item *domain.FlaggedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := dedupKey(item.Source, item.URL, item.Text)
	if _, exists := m.itemsByKey[key]; exists {
		return ErrDuplicate
	}

	stored := *item
	stored.ID = m.nextItemID
	stored.CreatedAt = time.Now().UTC()
	m.nextItemID++

	m.items = append(m.items, &stored)
	m.itemsByKey[key] = &stored

	item.ID = stored.ID
	item.CreatedAt = stored.CreatedAt
	return nil
}

func (m *MemoryStore) GetFlagged(ctx context.Context, id int64) (*domain.FlaggedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindFlaggedByKey(ctx context.Context, source domain.Source, url, text string) (*domain.FlaggedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if item, ok := m.itemsByKey[dedupKey(source, url, text)]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, ErrNotFound
}

// QueryFlagged returns matching items newest-first with the total count.
func (m *MemoryStore) QueryFlagged(ctx context.Context, filter *domain.EvidenceFilter) ([]*domain.FlaggedItem, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.FlaggedItem
	for _, item := range m.items {
		if filter.Source != "" && item.Source != filter.Source {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.MinScore > 0 && item.RiskScore < filter.MinScore {
			continue
		}
		if filter.Since != nil && item.CapturedAt.Before(*filter.Since) {
			continue
		}
		if filter.TextQuery != "" && !strings.Contains(strings.ToLower(item.Text), strings.ToLower(filter.TextQuery)) {
			continue
		}
		matched = append(matched, item)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CapturedAt.Equal(matched[j].CapturedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CapturedAt.After(matched[j].CapturedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*domain.FlaggedItem, len(matched))
	for i, item := range matched {
		cp := *item
		out[i] = &cp
	}
	return out, total, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (*domain.EvidenceStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.EvidenceStats{
		TotalCount:      len(m.items),
		CountByCategory: make(map[domain.RiskCategory]int),
		CountBySource:   make(map[domain.Source]int),
	}

	sum := 0
	for _, item := range m.items {
		stats.CountByCategory[item.Category]++
		stats.CountBySource[item.Source]++
		sum += item.RiskScore
	}
	if len(m.items) > 0 {
		stats.AvgScore = float64(sum) / float64(len(m.items))
	}
	return stats, nil
}

func (m *MemoryStore) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.DashboardStats{
		TotalFlagged: len(m.items),
		BySource:     make(map[domain.Source]int),
		RiskLevels:   make(map[domain.RiskLevel]int),
		GeneratedAt:  time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, item := range m.items {
		stats.BySource[item.Source]++
		stats.RiskLevels[item.Level()]++
		if item.RiskScore >= 40 {
			stats.SuspiciousCount++
		}
		if item.RiskScore >= 70 {
			stats.HighRiskCount++
		}
		if item.Category == domain.CategoryFakeHotel {
			stats.FakeHotelCount++
		}
		if item.CreatedAt.After(cutoff) {
			stats.FlaggedLast24h++
		}
	}
	return stats, nil
}

// InsertRecord appends one hotel verification record.
func (m *MemoryStore) InsertRecord(ctx context.Context, record *domain.HotelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *record
	stored.ID = m.nextHotelID
	if stored.CheckedAt.IsZero() {
		stored.CheckedAt = time.Now().UTC()
	}
	m.nextHotelID++
	m.hotelRecords = append(m.hotelRecords, &stored)

	record.ID = stored.ID
	record.CheckedAt = stored.CheckedAt
	return nil
}

func (m *MemoryStore) ListRecords(ctx context.Context, filter *domain.HotelFilter) ([]*domain.HotelRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.HotelRecord
	for _, rec := range m.hotelRecords {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*domain.HotelRecord, len(matched))
	for i, rec := range matched {
		cp := *rec
		out[i] = &cp
	}
	return out, total, nil
}

func (m *MemoryStore) HotelStats(ctx context.Context) (*domain.HotelStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.HotelStats{
		TotalChecks:   len(m.hotelRecords),
		CountByStatus: make(map[domain.VerificationStatus]int),
	}
	for _, rec := range m.hotelRecords {
		stats.CountByStatus[rec.Status]++
	}
	return stats, nil
}

var (
	_ out.EvidenceRepository = (*MemoryStore)(nil)
	_ out.HotelRepository    = (*MemoryStore)(nil)
)
