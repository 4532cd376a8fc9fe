package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

// HotelAdapter implements out.HotelRepository over Postgres. The table is
// append-only; there is no update path.
type HotelAdapter struct {
	db *sqlx.DB
}

// NewHotelAdapter creates a Postgres hotel ledger repository.
func NewHotelAdapter(db *sqlx.DB) *HotelAdapter {
	return &HotelAdapter{db: db}
}

type hotelRecordRow struct {
	ID            int64     `db:"id"`
	ClaimedName   string    `db:"claimed_name"`
	ClaimedDomain string    `db:"claimed_domain"`
	Status        string    `db:"verification_status"`
	Notes         string    `db:"notes"`
	CheckedAt     time.Time `db:"checked_at"`
}

func (r *hotelRecordRow) toDomain() *domain.HotelRecord {
	return &domain.HotelRecord{
		ID:            r.ID,
		ClaimedName:   r.ClaimedName,
		ClaimedDomain: r.ClaimedDomain,
		Status:        domain.VerificationStatus(r.Status),
		Notes:         r.Notes,
		CheckedAt:     r.CheckedAt,
	}
}

// InsertRecord appends one verification record.
func (a *HotelAdapter) InsertRecord(ctx context.Context, record *domain.HotelRecord) error {
	query := `
		INSERT INTO hotel_records (claimed_name, claimed_domain, verification_status, notes, checked_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	checkedAt := record.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	err := a.db.QueryRowxContext(ctx, query,
		record.ClaimedName, record.ClaimedDomain, string(record.Status), record.Notes, checkedAt,
	).Scan(&record.ID)
	if err != nil {
		return storeErr("insert hotel record", err)
	}
	record.CheckedAt = checkedAt
	return nil
}

// ListRecords returns ledger records newest-first plus the total count.
func (a *HotelAdapter) ListRecords(ctx context.Context, filter *domain.HotelFilter) ([]*domain.HotelRecord, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("verification_status = $%d", argIdx))
		args = append(args, string(filter.Status))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := a.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM hotel_records WHERE `+where, args...); err != nil {
		return nil, 0, storeErr("count hotel records", err)
	}

	query := `SELECT id, claimed_name, claimed_domain, verification_status, notes, checked_at
		FROM hotel_records
		WHERE ` + where + `
		ORDER BY id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	var rows []hotelRecordRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, storeErr("list hotel records", err)
	}

	records := make([]*domain.HotelRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toDomain()
	}
	return records, total, nil
}

// HotelStats aggregates the verification ledger.
func (a *HotelAdapter) HotelStats(ctx context.Context) (*domain.HotelStats, error) {
	stats := &domain.HotelStats{
		CountByStatus: make(map[domain.VerificationStatus]int),
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	var byStatus []bucket
	if err := a.db.SelectContext(ctx, &byStatus,
		`SELECT verification_status AS key, COUNT(*) AS count FROM hotel_records GROUP BY verification_status`); err != nil {
		return nil, storeErr("hotel stats", err)
	}
	for _, b := range byStatus {
		stats.CountByStatus[domain.VerificationStatus(b.Key)] = b.Count
		stats.TotalChecks += b.Count
	}
	return stats, nil
}

var _ out.HotelRepository = (*HotelAdapter)(nil)
