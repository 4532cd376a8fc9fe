package provider

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

const maxHashtagPosts = 30

// InstagramAdapter scrapes the public hashtag explore page. Captions and
// shortcodes are read out of the JSON blob Instagram embeds in the page;
// there is no authenticated API involved.
type InstagramAdapter struct {
	baseURL string
	scraper *scraper
}

// NewInstagramAdapter creates the Instagram hashtag scraper.
func NewInstagramAdapter(baseURL string, cfg *ScraperConfig) *InstagramAdapter {
	if baseURL == "" {
		baseURL = "https://www.instagram.com/explore/tags"
	}
	return &InstagramAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		scraper: newScraper("instagram", cfg),
	}
}

// Source implements out.SourceProvider.
func (a *InstagramAdapter) Source() domain.Source {
	return domain.SourceInstagram
}

var (
	// One caption node in the embedded JSON: shortcode appears before the
	// caption text of the same post.
	igPostRe      = regexp.MustCompile(`"shortcode"\s*:\s*"([A-Za-z0-9_-]+)"`)
	igCaptionRe   = regexp.MustCompile(`"text"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	igOwnerRe     = regexp.MustCompile(`"username"\s*:\s*"([^"]+)"`)
	igTimestampRe = regexp.MustCompile(`"taken_at_timestamp"\s*:\s*(\d+)`)
)

// Fetch retrieves recent posts for one hashtag.
func (a *InstagramAdapter) Fetch(ctx context.Context, hashtag string) ([]domain.NormalizedInput, error) {
	hashtag = strings.TrimPrefix(strings.TrimSpace(hashtag), "#")
	if hashtag == "" {
		return nil, fmt.Errorf("instagram: empty hashtag")
	}

	body, err := a.scraper.fetchPage(ctx, a.baseURL+"/"+hashtag+"/")
	if err != nil {
		return nil, fmt.Errorf("instagram: %w", err)
	}

	captures := a.parseTagPage(string(body))
	a.scraper.log.Info("instagram tag %q: %d posts", hashtag, len(captures))
	return captures, nil
}

// parseTagPage pairs shortcodes with the caption, owner and timestamp
// that follow them in the embedded JSON. Post nodes are self-contained,
// so pairing by document order holds up.
func (a *InstagramAdapter) parseTagPage(body string) []domain.NormalizedInput {
	shortcodes := igPostRe.FindAllStringSubmatchIndex(body, maxHashtagPosts)
	if len(shortcodes) == 0 {
		return nil
	}

	var captures []domain.NormalizedInput
	for i, loc := range shortcodes {
		segmentEnd := len(body)
		if i+1 < len(shortcodes) {
			segmentEnd = shortcodes[i+1][0]
		}
		segment := body[loc[1]:segmentEnd]
		shortcode := body[loc[2]:loc[3]]

		captionMatch := igCaptionRe.FindStringSubmatch(segment)
		if captionMatch == nil {
			continue
		}
		text := unescapeJSONString(captionMatch[1])
		if strings.TrimSpace(text) == "" {
			continue
		}

		author := ""
		if owner := igOwnerRe.FindStringSubmatch(segment); owner != nil {
			author = owner[1]
		}

		capturedAt := time.Now().UTC()
		if ts := igTimestampRe.FindStringSubmatch(segment); ts != nil {
			if unix, err := strconv.ParseInt(ts[1], 10, 64); err == nil {
				capturedAt = time.Unix(unix, 0).UTC()
			}
		}

		captures = append(captures, domain.NormalizedInput{
			Source:     domain.SourceInstagram,
			Author:     author,
			URL:        "https://www.instagram.com/p/" + shortcode + "/",
			Text:       text,
			CapturedAt: capturedAt,
		})
	}
	return captures
}

// unescapeJSONString resolves the escapes found in embedded captions.
func unescapeJSONString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return unquoted
	}
	// Fall back to the common escapes when Unquote rejects the blob.
	replacer := strings.NewReplacer(`\n`, "\n", `\"`, `"`, `\\`, `\`, `\/`, "/")
	return replacer.Replace(s)
}

var _ out.SourceProvider = (*InstagramAdapter)(nil)
