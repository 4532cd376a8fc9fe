package provider

import (
	"testing"
	"time"

	"patrol_server/core/domain"
)

const telegramPreviewFixture = `
<div class="tgme_widget_message_wrap js-widget_message_wrap">
  <div class="tgme_widget_message text_not_supported_wrap js-widget_message" data-post="goadeals/101">
    <div class="tgme_widget_message_text js-message_text" dir="auto">
      Easy money! <b>No investment</b> needed &amp; instant cash daily
    </div>
    <time datetime="2026-08-20T09:30:00+00:00" class="time"></time>
  </div>
</div>
<div class="tgme_widget_message_wrap js-widget_message_wrap">
  <div class="tgme_widget_message js-widget_message" data-post="goadeals/102">
    <div class="tgme_widget_message_text js-message_text" dir="auto">
      Beach cleanup this Sunday<br/>volunteers welcome
    </div>
    <time datetime="2026-08-21T10:00:00+00:00" class="time"></time>
  </div>
</div>
<div class="tgme_widget_message_wrap js-widget_message_wrap">
  <div class="tgme_widget_message js-widget_message" data-post="goadeals/103">
    <div class="tgme_widget_message_photo">no text content</div>
  </div>
</div>`

func TestTelegramAdapter_ParsePreview(t *testing.T) {
	adapter := NewTelegramAdapter("", nil)
	captures := adapter.parsePreview("goadeals", telegramPreviewFixture)

	if len(captures) != 2 {
		t.Fatalf("got %d captures, want 2", len(captures))
	}

	first := captures[0]
	if first.Source != domain.SourceTelegram {
		t.Errorf("Source = %s", first.Source)
	}
	if first.Author != "goadeals" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.URL != "https://t.me/goadeals/101" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Text != "Easy money! No investment needed & instant cash daily" {
		t.Errorf("Text = %q", first.Text)
	}
	want := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	if !first.CapturedAt.Equal(want) {
		t.Errorf("CapturedAt = %v, want %v", first.CapturedAt, want)
	}

	if captures[1].Text != "Beach cleanup this Sunday\nvolunteers welcome" {
		t.Errorf("second Text = %q", captures[1].Text)
	}
}

func TestTelegramAdapter_ParsePreview_NoMessages(t *testing.T) {
	adapter := NewTelegramAdapter("", nil)
	if captures := adapter.parsePreview("empty", "<html><body>nothing here</body></html>"); captures != nil {
		t.Errorf("expected nil, got %d captures", len(captures))
	}
}

func TestCleanHTMLText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"<b>bold</b> text", "bold text"},
		{"line<br>break", "line\nbreak"},
		{"&amp; &lt;escaped&gt;", "& <escaped>"},
		{"  <i> </i>  ", ""},
	}
	for _, tt := range tests {
		if got := cleanHTMLText(tt.input); got != tt.want {
			t.Errorf("cleanHTMLText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
