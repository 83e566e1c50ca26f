package persist

import (
	"context"
	"fmt"
	"time"
)

// MatchRow is one finished match.
type MatchRow struct {
	ID        int64
	Server    string
	MapName   string
	Group     uint8
	Outcome   string // "Won", "Lost", "None"
	Reason    string
	Duration  time.Duration
	PeakUnits int
	EndedAt   time.Time
}

type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// RecordBatch atomically writes a batch of finished matches in a single
// transaction.
func (r *MatchRepo) RecordBatch(ctx context.Context, rows []MatchRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("matches begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO matches (server, map_name, group_id, outcome, reason, duration_ms, peak_units, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.Server, m.MapName, int16(m.Group), m.Outcome, m.Reason,
			m.Duration.Milliseconds(), m.PeakUnits, m.EndedAt,
		); err != nil {
			return fmt.Errorf("matches insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the latest matches played against server, newest first.
func (r *MatchRepo) Recent(ctx context.Context, server string, limit int) ([]MatchRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, server, map_name, group_id, outcome, reason, duration_ms, peak_units, ended_at
		 FROM matches WHERE server = $1
		 ORDER BY ended_at DESC, id DESC LIMIT $2`, server, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		var group int16
		var durMs int64
		if err := rows.Scan(
			&m.ID, &m.Server, &m.MapName, &group, &m.Outcome, &m.Reason,
			&durMs, &m.PeakUnits, &m.EndedAt,
		); err != nil {
			return nil, err
		}
		m.Group = uint8(group)
		m.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, m)
	}
	return out, rows.Err()
}

// Tally counts recorded outcomes against server.
func (r *MatchRepo) Tally(ctx context.Context, server string) (won, lost int, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE outcome = 'Won'),
		        COUNT(*) FILTER (WHERE outcome = 'Lost')
		 FROM matches WHERE server = $1`, server,
	).Scan(&won, &lost)
	return won, lost, err
}
