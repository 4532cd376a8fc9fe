package domain

import (
	"strings"
	"time"
)

// Source identifies where a capture was collected from
type Source string

const (
	SourceTelegram  Source = "telegram"
	SourceInstagram Source = "instagram"
	SourceOther     Source = "other"
)

// ValidSource reports whether s is a known capture source.
func ValidSource(s Source) bool {
	switch s {
	case SourceTelegram, SourceInstagram, SourceOther:
		return true
	}
	return false
}

// RiskCategory is the category assigned by the keyword scorer
type RiskCategory string

const (
	CategoryFraud        RiskCategory = "fraud"
	CategoryGambling     RiskCategory = "gambling"
	CategoryProstitution RiskCategory = "prostitution"
	CategoryFakeHotel    RiskCategory = "fake_hotel"
	CategoryNone         RiskCategory = "none"
)

// RiskLevel buckets a 0-100 score for dashboard display
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"    // score < 40
	RiskLevelMedium RiskLevel = "medium" // 40 <= score < 70
	RiskLevelHigh   RiskLevel = "high"   // score >= 70
)

// LevelForScore maps a risk score to its display level.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskLevelHigh
	case score >= 40:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// NormalizedInput is a capture after source-specific parsing, ready for scoring.
type NormalizedInput struct {
	Source     Source    `json:"source"`
	Author     string    `json:"author"`
	URL        string    `json:"url"`
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"captured_at"`
}

// ValidationError describes a malformed capture.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid capture: " + e.Field + " " + e.Reason
}

// Validate checks the capture is well-formed for the flagging pipeline.
func (n *NormalizedInput) Validate() error {
	if !ValidSource(n.Source) {
		return &ValidationError{Field: "source", Reason: "must be telegram, instagram or other"}
	}
	if strings.TrimSpace(n.Text) == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if n.CapturedAt.IsZero() {
		return &ValidationError{Field: "captured_at", Reason: "must be set"}
	}
	return nil
}

// FlaggedItem is an evidence record persisted when a capture scores at or
// above the flagging threshold. Records are append-only; identity for
// deduplication is (source, url, text).
type FlaggedItem struct {
	ID                int64        `json:"id"`
	Source            Source       `json:"source"`
	Author            string       `json:"author,omitempty"`
	URL               string       `json:"url,omitempty"`
	Text              string       `json:"text"`
	CapturedAt        time.Time    `json:"captured_at"`
	RiskScore         int          `json:"risk_score"`
	Category          RiskCategory `json:"category"`
	MatchedKeywords   []string     `json:"matched_keywords"`
	RecommendedAction string       `json:"recommended_action"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Level returns the display risk level for the item's score.
func (f *FlaggedItem) Level() RiskLevel {
	return LevelForScore(f.RiskScore)
}

// EvidenceFilter narrows evidence queries. Zero values mean "no filter".
type EvidenceFilter struct {
	Source    Source
	Category  RiskCategory
	MinScore  int
	Since     *time.Time
	TextQuery string
	Limit     int
	Offset    int
}

// EvidenceStats summarizes the evidence store.
type EvidenceStats struct {
	TotalCount      int                  `json:"total_count"`
	CountByCategory map[RiskCategory]int `json:"count_by_category"`
	CountBySource   map[Source]int       `json:"count_by_source"`
	AvgScore        float64              `json:"avg_score"`
}

// DashboardStats is the overview surface for the patrol dashboard.
type DashboardStats struct {
	TotalFlagged    int               `json:"total_flagged"`
	SuspiciousCount int               `json:"suspicious_count"` // score >= 40
	HighRiskCount   int               `json:"high_risk_count"`  // score >= 70
	FakeHotelCount  int               `json:"fake_hotel_count"`
	BySource        map[Source]int    `json:"by_source"`
	RiskLevels      map[RiskLevel]int `json:"risk_levels"`
	FlaggedLast24h  int               `json:"flagged_last_24h"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// AlertEvent is pushed to connected dashboard clients when a high-risk
// item is flagged.
type AlertEvent struct {
	Seq       int64        `json:"seq"`
	ItemID    int64        `json:"item_id"`
	Source    Source       `json:"source"`
	Category  RiskCategory `json:"category"`
	RiskScore int          `json:"risk_score"`
	URL       string       `json:"url,omitempty"`
	Excerpt   string       `json:"excerpt"`
	Timestamp time.Time    `json:"timestamp"`
}
