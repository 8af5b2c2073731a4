package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

// Triage is the ledger row for one message.
type Triage struct {
	MessageID      string          `json:"message_id"`
	ThreadID       string          `json:"thread_id,omitempty"`
	Category       digest.Category `json:"category"`
	ActionRequired bool            `json:"action_required"`
	BodyLength     int             `json:"body_length"`
	Reads          int             `json:"reads"`
	FirstSeenAt    int64           `json:"first_seen_at"`
	LastSeenAt     int64           `json:"last_seen_at"`
	SessionID      string          `json:"session_id,omitempty"`
}

// TriageFromDigest builds a ledger row for a digest read at now (unix seconds).
func TriageFromDigest(d digest.Digest, sessionID string, now int64) Triage {
	return Triage{
		MessageID:      d.ID,
		ThreadID:       d.ThreadID,
		Category:       d.Type,
		ActionRequired: d.ActionRequired,
		BodyLength:     d.FullBodyLength,
		Reads:          1,
		FirstSeenAt:    now,
		LastSeenAt:     now,
		SessionID:      sessionID,
	}
}

// RecordTriage upserts a row. A repeat read keeps first_seen_at, bumps
// reads and refreshes the classification.
func RecordTriage(ctx context.Context, db *sql.DB, t Triage) error {
	query := `
		INSERT INTO triage (
			message_id, thread_id, category, action_required, body_length,
			reads, first_seen_at, last_seen_at, session_id
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			category = excluded.category,
			action_required = excluded.action_required,
			body_length = excluded.body_length,
			reads = triage.reads + 1,
			last_seen_at = excluded.last_seen_at,
			session_id = excluded.session_id
	`
	_, err := db.ExecContext(ctx, query,
		t.MessageID, toNullString(t.ThreadID), string(t.Category),
		boolToInt(t.ActionRequired), t.BodyLength,
		t.FirstSeenAt, t.LastSeenAt, toNullString(t.SessionID),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetTriage returns the row for a message.
func GetTriage(ctx context.Context, db *sql.DB, messageID string) (*Triage, error) {
	query := `
		SELECT message_id, thread_id, category, action_required, body_length,
			reads, first_seen_at, last_seen_at, session_id
		FROM triage
		WHERE message_id = ?
	`
	t, err := scanTriage(db.QueryRowContext(ctx, query, messageID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound(messageID)
		}
		return nil, errors.NewInternal(err)
	}
	return t, nil
}

// RecentTriage returns up to limit rows, most recently seen first.
func RecentTriage(ctx context.Context, db *sql.DB, limit int) ([]Triage, error) {
	query := `
		SELECT message_id, thread_id, category, action_required, body_length,
			reads, first_seen_at, last_seen_at, session_id
		FROM triage
		ORDER BY last_seen_at DESC, message_id
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Triage
	for rows.Next() {
		t, err := scanTriage(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CategoryCount is one bucket of CategoryCounts.
type CategoryCount struct {
	Category       digest.Category `json:"category"`
	Messages       int             `json:"messages"`
	ActionRequired int             `json:"action_required"`
}

// CategoryCounts groups the ledger by category, in classifier precedence
// order. Categories with no rows are omitted.
func CategoryCounts(ctx context.Context, db *sql.DB) ([]CategoryCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(action_required), 0)
		FROM triage
		GROUP BY category
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	byCategory := map[digest.Category]CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		var category string
		if err := rows.Scan(&category, &c.Messages, &c.ActionRequired); err != nil {
			return nil, errors.NewInternal(err)
		}
		c.Category = digest.Category(category)
		byCategory[c.Category] = c
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	out := make([]CategoryCount, 0, len(byCategory))
	for _, cat := range digest.Categories {
		if c, ok := byCategory[cat]; ok {
			out = append(out, c)
			delete(byCategory, cat)
		}
	}
	// Rows written by an older rule set.
	rest := make([]CategoryCount, 0, len(byCategory))
	for _, c := range byCategory {
		rest = append(rest, c)
	}
	slices.SortFunc(rest, func(a, b CategoryCount) int {
		return strings.Compare(string(a.Category), string(b.Category))
	})
	return append(out, rest...), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTriage(row rowScanner) (*Triage, error) {
	var t Triage
	var threadID, sessionID sql.NullString
	var action int
	var category string
	err := row.Scan(
		&t.MessageID, &threadID, &category, &action, &t.BodyLength,
		&t.Reads, &t.FirstSeenAt, &t.LastSeenAt, &sessionID,
	)
	if err != nil {
		return nil, err
	}
	t.ThreadID = threadID.String
	t.SessionID = sessionID.String
	t.Category = digest.Category(category)
	t.ActionRequired = action != 0
	return &t, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
