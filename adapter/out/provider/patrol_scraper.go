// Package provider implements source scrapers for public platform content.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"patrol_server/pkg/httputil"
	"patrol_server/pkg/logger"
)

const maxScrapeBody = 2 << 20 // 2 MiB per page is plenty for previews

// ScraperConfig holds shared scraper settings.
type ScraperConfig struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// DefaultScraperConfig returns scraper defaults.
func DefaultScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		UserAgent:  "Mozilla/5.0 (compatible; PatrolBot/1.0)",
		Timeout:    45 * time.Second,
		MaxRetries: 2,
	}
}

// scraper wraps the pooled HTTP client with a circuit breaker per
// platform. A platform that keeps failing stops being hammered until the
// breaker half-opens.
type scraper struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	cfg    *ScraperConfig
	log    *logger.Logger
}

func newScraper(name string, cfg *ScraperConfig) *scraper {
	if cfg == nil {
		cfg = DefaultScraperConfig()
	}

	log := logger.WithField("scraper", name)
	cbSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &scraper{
		client: httputil.ScraperClient(),
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		cfg:    cfg,
		log:    log,
	}
}

// fetchPage GETs one page through the circuit breaker, retrying transient
// failures.
func (s *scraper) fetchPage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, err := s.cb.Execute(func() (interface{}, error) {
			return s.doFetch(ctx, url)
		})
		if err == nil {
			return body.([]byte), nil
		}
		lastErr = err

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *scraper) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
