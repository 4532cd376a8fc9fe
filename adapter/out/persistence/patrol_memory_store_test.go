package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"patrol_server/core/domain"
)

func flaggedItem(source domain.Source, url, text string, score int, capturedAt time.Time) *domain.FlaggedItem {
	return &domain.FlaggedItem{
		Source:          source,
		URL:             url,
		Text:            text,
		CapturedAt:      capturedAt,
		RiskScore:       score,
		Category:        domain.CategoryFraud,
		MatchedKeywords: []string{"scam"},
	}
}

func TestMemoryStore_InsertFlagged_Duplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	first := flaggedItem(domain.SourceTelegram, "https://t.me/c/1", "scam offer", 50, at)
	if err := store.InsertFlagged(ctx, first); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if first.ID == 0 {
		t.Error("first insert did not assign an ID")
	}

	dup := flaggedItem(domain.SourceTelegram, "https://t.me/c/1", "scam offer", 50, at)
	if err := store.InsertFlagged(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate insert error = %v, want ErrDuplicate", err)
	}

	// Same text from a different source is a distinct item.
	other := flaggedItem(domain.SourceInstagram, "https://t.me/c/1", "scam offer", 50, at)
	if err := store.InsertFlagged(ctx, other); err != nil {
		t.Fatalf("cross-source insert error = %v", err)
	}

	found, err := store.FindFlaggedByKey(ctx, domain.SourceTelegram, "https://t.me/c/1", "scam offer")
	if err != nil {
		t.Fatalf("FindFlaggedByKey() error = %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("FindFlaggedByKey ID = %d, want %d", found.ID, first.ID)
	}
}

func TestMemoryStore_ConcurrentDuplicateInserts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := flaggedItem(domain.SourceTelegram, "https://t.me/c/race", "same capture", 60, at)
			if err := store.InsertFlagged(ctx, item); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d inserts won, want exactly 1", wins)
	}
	stats, _ := store.Stats(ctx)
	if stats.TotalCount != 1 {
		t.Errorf("store has %d items, want 1", stats.TotalCount)
	}
}

func TestMemoryStore_QueryFlagged(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	inputs := []*domain.FlaggedItem{
		flaggedItem(domain.SourceTelegram, "u1", "oldest scam", 35, base),
		flaggedItem(domain.SourceInstagram, "u2", "middle scam", 55, base.Add(time.Hour)),
		flaggedItem(domain.SourceTelegram, "u3", "newest scam", 80, base.Add(2*time.Hour)),
	}
	for _, item := range inputs {
		if err := store.InsertFlagged(ctx, item); err != nil {
			t.Fatalf("insert error = %v", err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		items, total, err := store.QueryFlagged(ctx, &domain.EvidenceFilter{})
		if err != nil {
			t.Fatalf("QueryFlagged() error = %v", err)
		}
		if total != 3 || len(items) != 3 {
			t.Fatalf("got %d/%d items, want 3/3", len(items), total)
		}
		if items[0].Text != "newest scam" || items[2].Text != "oldest scam" {
			t.Errorf("wrong order: %s ... %s", items[0].Text, items[2].Text)
		}
	})

	t.Run("min score", func(t *testing.T) {
		items, total, err := store.QueryFlagged(ctx, &domain.EvidenceFilter{MinScore: 50})
		if err != nil {
			t.Fatalf("QueryFlagged() error = %v", err)
		}
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		for _, item := range items {
			if item.RiskScore < 50 {
				t.Errorf("item %d below min score", item.ID)
			}
		}
	})

	t.Run("source filter", func(t *testing.T) {
		_, total, err := store.QueryFlagged(ctx, &domain.EvidenceFilter{Source: domain.SourceInstagram})
		if err != nil {
			t.Fatalf("QueryFlagged() error = %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		items, total, err := store.QueryFlagged(ctx, &domain.EvidenceFilter{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("QueryFlagged() error = %v", err)
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		if len(items) != 1 || items[0].Text != "middle scam" {
			t.Errorf("wrong page: %+v", items)
		}
	})

	t.Run("text query", func(t *testing.T) {
		_, total, err := store.QueryFlagged(ctx, &domain.EvidenceFilter{TextQuery: "NEWEST"})
		if err != nil {
			t.Fatalf("QueryFlagged() error = %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})
}

func TestMemoryStore_GetFlagged(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item := flaggedItem(domain.SourceOther, "", "scam text", 45, time.Now().UTC())
	if err := store.InsertFlagged(ctx, item); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := store.GetFlagged(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetFlagged() error = %v", err)
	}
	if got.Text != "scam text" {
		t.Errorf("Text = %q", got.Text)
	}

	if _, err := store.GetFlagged(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_DashboardStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	items := []*domain.FlaggedItem{
		flaggedItem(domain.SourceTelegram, "u1", "low one", 35, now),
		flaggedItem(domain.SourceTelegram, "u2", "medium one", 55, now),
		flaggedItem(domain.SourceInstagram, "u3", "high one", 85, now),
	}
	items[2].Category = domain.CategoryFakeHotel
	for _, item := range items {
		if err := store.InsertFlagged(ctx, item); err != nil {
			t.Fatalf("insert error = %v", err)
		}
	}

	stats, err := store.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if stats.TotalFlagged != 3 {
		t.Errorf("TotalFlagged = %d, want 3", stats.TotalFlagged)
	}
	if stats.SuspiciousCount != 2 {
		t.Errorf("SuspiciousCount = %d, want 2", stats.SuspiciousCount)
	}
	if stats.HighRiskCount != 1 {
		t.Errorf("HighRiskCount = %d, want 1", stats.HighRiskCount)
	}
	if stats.FakeHotelCount != 1 {
		t.Errorf("FakeHotelCount = %d, want 1", stats.FakeHotelCount)
	}
	if stats.RiskLevels[domain.RiskLevelLow] != 1 || stats.RiskLevels[domain.RiskLevelMedium] != 1 || stats.RiskLevels[domain.RiskLevelHigh] != 1 {
		t.Errorf("RiskLevels = %v", stats.RiskLevels)
	}
	if stats.FlaggedLast24h != 3 {
		t.Errorf("FlaggedLast24h = %d, want 3", stats.FlaggedLast24h)
	}
	if stats.BySource[domain.SourceTelegram] != 2 {
		t.Errorf("BySource[telegram] = %d, want 2", stats.BySource[domain.SourceTelegram])
	}
}
