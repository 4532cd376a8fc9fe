// Package persistence provides Postgres adapters for the patrol stores.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

// EvidenceAdapter implements out.EvidenceRepository over Postgres.
type EvidenceAdapter struct {
	db *sqlx.DB
}

// NewEvidenceAdapter creates a Postgres evidence repository.
func NewEvidenceAdapter(db *sqlx.DB) *EvidenceAdapter {
	return &EvidenceAdapter{db: db}
}

type flaggedItemRow struct {
	ID                int64          `db:"id"`
	Source            string         `db:"source"`
	Author            string         `db:"author"`
	URL               string         `db:"url"`
	Text              string         `db:"text"`
	CapturedAt        time.Time      `db:"captured_at"`
	RiskScore         int            `db:"risk_score"`
	Category          string         `db:"category"`
	MatchedKeywords   pq.StringArray `db:"matched_keywords"`
	RecommendedAction string         `db:"recommended_action"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r *flaggedItemRow) toDomain() *domain.FlaggedItem {
	return &domain.FlaggedItem{
		ID:                r.ID,
		Source:            domain.Source(r.Source),
		Author:            r.Author,
		URL:               r.URL,
		Text:              r.Text,
		CapturedAt:        r.CapturedAt,
		RiskScore:         r.RiskScore,
		Category:          domain.RiskCategory(r.Category),
		MatchedKeywords:   []string(r.MatchedKeywords),
		RecommendedAction: r.RecommendedAction,
		CreatedAt:         r.CreatedAt,
	}
}

const flaggedColumns = `id, source, author, url, text, captured_at, risk_score,
	category, matched_keywords, recommended_action, created_at`

// InsertFlagged stores a new item. ON CONFLICT DO NOTHING plus RETURNING
// means the no-row case is exactly the duplicate case; the uniqueness
// constraint decides races, not application code.
func (a *EvidenceAdapter) InsertFlagged(ctx context.Context, item *domain.FlaggedItem) error {
	query := `
		INSERT INTO flagged_items
			(source, author, url, text, captured_at, risk_score, category, matched_keywords, recommended_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source, url, md5(text)) DO NOTHING
		RETURNING id, created_at`

	keywords := item.MatchedKeywords
	if keywords == nil {
		keywords = []string{}
	}

	err := a.db.QueryRowxContext(ctx, query,
		string(item.Source), item.Author, item.URL, item.Text, item.CapturedAt,
		item.RiskScore, string(item.Category), pq.Array(keywords), item.RecommendedAction,
	).Scan(&item.ID, &item.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return storeErr("insert flagged item", err)
	}
	return nil
}

// GetFlagged returns one item by ID.
func (a *EvidenceAdapter) GetFlagged(ctx context.Context, id int64) (*domain.FlaggedItem, error) {
	var row flaggedItemRow
	query := `SELECT ` + flaggedColumns + ` FROM flagged_items WHERE id = $1`
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get flagged item", err)
	}
	return row.toDomain(), nil
}

// FindFlaggedByKey resolves an item by its dedup identity.
func (a *EvidenceAdapter) FindFlaggedByKey(ctx context.Context, source domain.Source, url, text string) (*domain.FlaggedItem, error) {
	var row flaggedItemRow
	query := `SELECT ` + flaggedColumns + `
		FROM flagged_items
		WHERE source = $1 AND url = $2 AND md5(text) = md5($3)`
	if err := a.db.GetContext(ctx, &row, query, string(source), url, text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("find flagged item", err)
	}
	return row.toDomain(), nil
}

// QueryFlagged returns matching items newest-first plus the total count.
func (a *EvidenceAdapter) QueryFlagged(ctx context.Context, filter *domain.EvidenceFilter) ([]*domain.FlaggedItem, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, string(filter.Source))
		argIdx++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, string(filter.Category))
		argIdx++
	}
	if filter.MinScore > 0 {
		conditions = append(conditions, fmt.Sprintf("risk_score >= $%d", argIdx))
		args = append(args, filter.MinScore)
		argIdx++
	}
	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("captured_at >= $%d", argIdx))
		args = append(args, *filter.Since)
		argIdx++
	}
	if filter.TextQuery != "" {
		conditions = append(conditions, fmt.Sprintf("text ILIKE $%d", argIdx))
		args = append(args, "%"+filter.TextQuery+"%")
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM flagged_items WHERE ` + where
	if err := a.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, storeErr("count flagged items", err)
	}

	query := `SELECT ` + flaggedColumns + `
		FROM flagged_items
		WHERE ` + where + `
		ORDER BY captured_at DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	var rows []flaggedItemRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, storeErr("query flagged items", err)
	}

	items := make([]*domain.FlaggedItem, len(rows))
	for i := range rows {
		items[i] = rows[i].toDomain()
	}
	return items, total, nil
}

// Stats aggregates the evidence store.
func (a *EvidenceAdapter) Stats(ctx context.Context) (*domain.EvidenceStats, error) {
	stats := &domain.EvidenceStats{
		CountByCategory: make(map[domain.RiskCategory]int),
		CountBySource:   make(map[domain.Source]int),
	}

	var summary struct {
		Total    int             `db:"total"`
		AvgScore sql.NullFloat64 `db:"avg_score"`
	}
	if err := a.db.GetContext(ctx, &summary,
		`SELECT COUNT(*) AS total, AVG(risk_score) AS avg_score FROM flagged_items`); err != nil {
		return nil, storeErr("evidence stats", err)
	}
	stats.TotalCount = summary.Total
	if summary.AvgScore.Valid {
		stats.AvgScore = summary.AvgScore.Float64
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}

	var byCategory []bucket
	if err := a.db.SelectContext(ctx, &byCategory,
		`SELECT category AS key, COUNT(*) AS count FROM flagged_items GROUP BY category`); err != nil {
		return nil, storeErr("evidence stats by category", err)
	}
	for _, b := range byCategory {
		stats.CountByCategory[domain.RiskCategory(b.Key)] = b.Count
	}

	var bySource []bucket
	if err := a.db.SelectContext(ctx, &bySource,
		`SELECT source AS key, COUNT(*) AS count FROM flagged_items GROUP BY source`); err != nil {
		return nil, storeErr("evidence stats by source", err)
	}
	for _, b := range bySource {
		stats.CountBySource[domain.Source(b.Key)] = b.Count
	}

	return stats, nil
}

// DashboardStats aggregates the dashboard overview in one pass.
func (a *EvidenceAdapter) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		BySource:    make(map[domain.Source]int),
		RiskLevels:  make(map[domain.RiskLevel]int),
		GeneratedAt: time.Now().UTC(),
	}

	var summary struct {
		Total      int `db:"total"`
		Suspicious int `db:"suspicious"`
		HighRisk   int `db:"high_risk"`
		FakeHotel  int `db:"fake_hotel"`
		Last24h    int `db:"last_24h"`
		LevelLow   int `db:"level_low"`
		LevelMed   int `db:"level_med"`
		LevelHigh  int `db:"level_high"`
	}
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE risk_score >= 40) AS suspicious,
		COUNT(*) FILTER (WHERE risk_score >= 70) AS high_risk,
		COUNT(*) FILTER (WHERE category = 'fake_hotel') AS fake_hotel,
		COUNT(*) FILTER (WHERE created_at >= now() - interval '24 hours') AS last_24h,
		COUNT(*) FILTER (WHERE risk_score < 40) AS level_low,
		COUNT(*) FILTER (WHERE risk_score >= 40 AND risk_score < 70) AS level_med,
		COUNT(*) FILTER (WHERE risk_score >= 70) AS level_high
	FROM flagged_items`
	if err := a.db.GetContext(ctx, &summary, query); err != nil {
		return nil, storeErr("dashboard stats", err)
	}

	stats.TotalFlagged = summary.Total
	stats.SuspiciousCount = summary.Suspicious
	stats.HighRiskCount = summary.HighRisk
	stats.FakeHotelCount = summary.FakeHotel
	stats.FlaggedLast24h = summary.Last24h
	stats.RiskLevels[domain.RiskLevelLow] = summary.LevelLow
	stats.RiskLevels[domain.RiskLevelMedium] = summary.LevelMed
	stats.RiskLevels[domain.RiskLevelHigh] = summary.LevelHigh

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	var bySource []bucket
	if err := a.db.SelectContext(ctx, &bySource,
		`SELECT source AS key, COUNT(*) AS count FROM flagged_items GROUP BY source`); err != nil {
		return nil, storeErr("dashboard stats by source", err)
	}
	for _, b := range bySource {
		stats.BySource[domain.Source(b.Key)] = b.Count
	}

	return stats, nil
}

// storeErr wraps driver failures so the service layer can map them to a
// 503 without knowing the driver.
func storeErr(operation string, err error) error {
	return fmt.Errorf("%s: %w: %v", operation, ErrStoreUnavailable, err)
}

var _ out.EvidenceRepository = (*EvidenceAdapter)(nil)
