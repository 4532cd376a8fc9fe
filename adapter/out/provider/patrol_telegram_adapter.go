package provider

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

// TelegramAdapter scrapes the public t.me/s/ channel preview. Telegram
// serves recent messages of public channels as plain HTML there, no API
// credentials involved.
type TelegramAdapter struct {
	baseURL string
	scraper *scraper
}

// NewTelegramAdapter creates the Telegram channel scraper.
func NewTelegramAdapter(baseURL string, cfg *ScraperConfig) *TelegramAdapter {
	if baseURL == "" {
		baseURL = "https://t.me/s"
	}
	return &TelegramAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		scraper: newScraper("telegram", cfg),
	}
}

// Source implements out.SourceProvider.
func (a *TelegramAdapter) Source() domain.Source {
	return domain.SourceTelegram
}

var (
	tgPostRe     = regexp.MustCompile(`data-post="([^"]+)"`)
	tgTextRe     = regexp.MustCompile(`(?s)<div class="tgme_widget_message_text[^"]*"[^>]*>(.*?)</div>`)
	tgDatetimeRe = regexp.MustCompile(`<time[^>]*datetime="([^"]+)"`)
	tgBreakRe    = regexp.MustCompile(`(?i)<br\s*/?>`)
	tgTagRe      = regexp.MustCompile(`<[^>]+>`)
)

// Fetch retrieves the recent messages of one public channel.
func (a *TelegramAdapter) Fetch(ctx context.Context, channel string) ([]domain.NormalizedInput, error) {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	if channel == "" {
		return nil, fmt.Errorf("telegram: empty channel name")
	}

	body, err := a.scraper.fetchPage(ctx, a.baseURL+"/"+channel)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	captures := a.parsePreview(channel, string(body))
	a.scraper.log.Info("telegram channel %q: %d messages", channel, len(captures))
	return captures, nil
}

// parsePreview extracts messages from the channel preview HTML. Each
// message sits in its own tgme_widget_message_wrap block.
func (a *TelegramAdapter) parsePreview(channel, body string) []domain.NormalizedInput {
	blocks := strings.Split(body, "tgme_widget_message_wrap")
	if len(blocks) < 2 {
		return nil
	}

	var captures []domain.NormalizedInput
	for _, block := range blocks[1:] {
		textMatch := tgTextRe.FindStringSubmatch(block)
		if textMatch == nil {
			continue
		}
		text := cleanHTMLText(textMatch[1])
		if text == "" {
			continue
		}

		capturedAt := time.Now().UTC()
		if dt := tgDatetimeRe.FindStringSubmatch(block); dt != nil {
			if parsed, err := time.Parse(time.RFC3339, dt[1]); err == nil {
				capturedAt = parsed.UTC()
			}
		}

		url := ""
		if post := tgPostRe.FindStringSubmatch(block); post != nil {
			url = "https://t.me/" + post[1]
		}

		captures = append(captures, domain.NormalizedInput{
			Source:     domain.SourceTelegram,
			Author:     channel,
			URL:        url,
			Text:       text,
			CapturedAt: capturedAt,
		})
	}
	return captures
}

// cleanHTMLText strips markup from a message fragment.
func cleanHTMLText(fragment string) string {
	fragment = tgBreakRe.ReplaceAllString(fragment, "\n")
	fragment = tgTagRe.ReplaceAllString(fragment, "")
	fragment = html.UnescapeString(fragment)
	return strings.TrimSpace(fragment)
}

var _ out.SourceProvider = (*TelegramAdapter)(nil)
