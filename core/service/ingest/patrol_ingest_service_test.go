package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"patrol_server/adapter/out/persistence"
	"patrol_server/core/domain"
	"patrol_server/core/port/out"
	"patrol_server/core/service/flagging"
	"patrol_server/core/service/risk"
)

// fakeProvider serves canned captures per target.
type fakeProvider struct {
	source   domain.Source
	captures map[string][]domain.NormalizedInput
	fails    map[string]error
}

func (p *fakeProvider) Source() domain.Source { return p.source }

func (p *fakeProvider) Fetch(_ context.Context, target string) ([]domain.NormalizedInput, error) {
	if err := p.fails[target]; err != nil {
		return nil, err
	}
	return p.captures[target], nil
}

// serialDispatcher fetches targets one by one, preserving order.
type serialDispatcher struct{}

func (serialDispatcher) FetchAll(ctx context.Context, provider out.SourceProvider, targets []string) ([]out.FetchResult, error) {
	results := make([]out.FetchResult, 0, len(targets))
	for _, t := range targets {
		captures, err := provider.Fetch(ctx, t)
		results = append(results, out.FetchResult{Target: t, Captures: captures, Err: err})
	}
	return results, nil
}

func capture(url, text string) domain.NormalizedInput {
	return domain.NormalizedInput{
		Source:     domain.SourceTelegram,
		Author:     "someone",
		URL:        url,
		Text:       text,
		CapturedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func newTestIngestor(provider *fakeProvider) *Service {
	flagger := flagging.NewService(risk.NewScorer(nil), persistence.NewMemoryStore(), nil, nil, 30, 70)
	return NewService([]out.SourceProvider{provider}, serialDispatcher{}, flagger)
}

func TestIngest(t *testing.T) {
	provider := &fakeProvider{
		source: domain.SourceTelegram,
		captures: map[string][]domain.NormalizedInput{
			"goa_deals": {
				capture("https://t.me/goa_deals/1", "free money and instant cash today"),
				capture("https://t.me/goa_deals/2", "sunset photos from the beach"),
			},
			"casino_channel": {
				capture("https://t.me/casino_channel/7", "jackpot at our online casino"),
			},
		},
		fails: map[string]error{
			"dead_channel": errors.New("channel fetch failed: status 404"),
		},
	}
	svc := newTestIngestor(provider)

	results, err := svc.Ingest(context.Background(), domain.SourceTelegram,
		[]string{"goa_deals", "casino_channel", "dead_channel"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	first := results[0]
	if first.Target != "goa_deals" || first.Fetched != 2 || first.Flagged != 1 || first.Skipped != 1 {
		t.Errorf("goa_deals result = %+v", first)
	}

	second := results[1]
	if second.Flagged != 1 {
		t.Errorf("casino_channel Flagged = %d, want 1", second.Flagged)
	}

	third := results[2]
	if third.Fetched != 0 || len(third.Errors) != 1 {
		t.Fatalf("dead_channel result = %+v", third)
	}
	if third.Errors[0].Index != -1 {
		t.Errorf("fetch error Index = %d, want -1", third.Errors[0].Index)
	}
}

func TestIngest_TargetCleaning(t *testing.T) {
	provider := &fakeProvider{
		source: domain.SourceTelegram,
		captures: map[string][]domain.NormalizedInput{
			"goa_deals": {capture("https://t.me/goa_deals/1", "easy money scheme")},
		},
	}
	svc := newTestIngestor(provider)

	// Duplicates and blanks collapse to a single fetch.
	results, err := svc.Ingest(context.Background(), domain.SourceTelegram,
		[]string{" goa_deals ", "goa_deals", "", "  "})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestIngest_Validation(t *testing.T) {
	svc := newTestIngestor(&fakeProvider{source: domain.SourceTelegram})

	var vErr *domain.ValidationError

	_, err := svc.Ingest(context.Background(), domain.SourceInstagram, []string{"goatravel"})
	if !errors.As(err, &vErr) {
		t.Errorf("unregistered source: got %v, want ValidationError", err)
	}

	_, err = svc.Ingest(context.Background(), domain.SourceTelegram, []string{"", "  "})
	if !errors.As(err, &vErr) {
		t.Errorf("empty targets: got %v, want ValidationError", err)
	}
}
