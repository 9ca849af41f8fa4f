package state

import (
	"context"
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// BuildRecord is one build attempt.
type BuildRecord struct {
	ID         int64
	Reference  string
	Version    string
	// Manifest is the manifest file handed to the build, relative to the
	// build context.
	Manifest   string
	Embedded   bool
	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Tag is the full image tag of the record.
func (r BuildRecord) Tag() string {
	return r.Reference + ":" + r.Version
}

// History is an append-only ledger of build attempts.
type History struct {
	db *DB
}

// NewHistory creates the ledger and ensures the table exists.
func NewHistory(ctx context.Context, database *DB) (*History, error) {
	if database == nil {
		return nil, fmt.Errorf("history: database is required")
	}
	h := &History{db: database}
	if err := h.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *History) ensureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS builds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	reference   TEXT NOT NULL,
	version     TEXT NOT NULL,
	manifest    TEXT NOT NULL,
	embedded    INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS builds_reference ON builds (reference);
`
	if _, err := h.db.Raw().ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

// Record appends rec and returns its id.
func (h *History) Record(ctx context.Context, rec BuildRecord) (int64, error) {
	const stmt = `
INSERT INTO builds (reference, version, manifest, embedded, outcome, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	embedded := 0
	if rec.Embedded {
		embedded = 1
	}

	res, err := h.db.Raw().ExecContext(ctx, stmt,
		rec.Reference,
		rec.Version,
		rec.Manifest,
		embedded,
		string(rec.Outcome),
		rec.StartedAt.UnixMilli(),
		rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("history: record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: record: %w", err)
	}
	return id, nil
}

// List returns the newest records first. An empty reference lists every
// image; limit <= 0 means no limit.
func (h *History) List(ctx context.Context, reference string, limit int) ([]BuildRecord, error) {
	q := `
SELECT id, reference, version, manifest, embedded, outcome, started_at, finished_at
FROM builds
`
	args := []any{}
	if reference != "" {
		q += "WHERE reference = ?\n"
		args = append(args, reference)
	}
	q += "ORDER BY id DESC\n"
	if limit > 0 {
		q += "LIMIT ?\n"
		args = append(args, limit)
	}

	rows, err := h.db.Raw().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var (
			rec                 BuildRecord
			embedded            int
			outcome             string
			startedAt, finished int64
		)
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.Version, &rec.Manifest, &embedded, &outcome, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		rec.Embedded = embedded == 1
		rec.Outcome = Outcome(outcome)
		rec.StartedAt = time.UnixMilli(startedAt).UTC()
		rec.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return out, nil
}
