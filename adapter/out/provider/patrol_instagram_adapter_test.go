package provider

import (
	"testing"
	"time"

	"patrol_server/core/domain"
)

const instagramTagFixture = `{"graphql":{"hashtag":{"name":"goahotels","edge_hashtag_to_media":{"edges":[
{"node":{"shortcode":"Cxy123AbC","owner":{"username":"deals_goa"},"taken_at_timestamp":1755964800,
"edge_media_to_caption":{"edges":[{"node":{"text":"Fake hotel alert! Book now – beach resort discount \"today\""}}]}}},
{"node":{"shortcode":"Dzz456XyZ","owner":{"username":"goa_traveller"},"taken_at_timestamp":1756051200,
"edge_media_to_caption":{"edges":[{"node":{"text":"Sunset photos from the fort"}}]}}},
{"node":{"shortcode":"Eaa789QwE","owner":{"username":"quiet_account"},"taken_at_timestamp":1756137600,
"edge_media_to_caption":{"edges":[]}}}
]}}}}`

func TestInstagramAdapter_ParseTagPage(t *testing.T) {
	adapter := NewInstagramAdapter("", nil)
	captures := adapter.parseTagPage(instagramTagFixture)

	if len(captures) != 2 {
		t.Fatalf("got %d captures, want 2", len(captures))
	}

	first := captures[0]
	if first.Source != domain.SourceInstagram {
		t.Errorf("Source = %s", first.Source)
	}
	if first.Author != "deals_goa" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.URL != "https://www.instagram.com/p/Cxy123AbC/" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Text != `Fake hotel alert! Book now – beach resort discount "today"` {
		t.Errorf("Text = %q", first.Text)
	}
	want := time.Unix(1755964800, 0).UTC()
	if !first.CapturedAt.Equal(want) {
		t.Errorf("CapturedAt = %v, want %v", first.CapturedAt, want)
	}

	if captures[1].Author != "goa_traveller" {
		t.Errorf("second Author = %q", captures[1].Author)
	}
}

func TestInstagramAdapter_ParseTagPage_Empty(t *testing.T) {
	adapter := NewInstagramAdapter("", nil)
	if captures := adapter.parseTagPage("<html>login required</html>"); captures != nil {
		t.Errorf("expected nil, got %d captures", len(captures))
	}
}

func TestUnescapeJSONString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain caption", "plain caption"},
		{`line\nbreak`, "line\nbreak"},
		{`quote \" here`, `quote " here`},
		{`unicode é`, "unicode é"},
	}
	for _, tt := range tests {
		if got := unescapeJSONString(tt.input); got != tt.want {
			t.Errorf("unescapeJSONString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
