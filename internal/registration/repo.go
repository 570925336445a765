package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Entry is the ledger row kept for a completed registration.
type Entry struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Affiliation string    `json:"affiliation"`
	Outcome     Outcome   `json:"outcome"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func newEntry(r Receipt, sub Submission) Entry {
	return Entry{
		ID:          r.ID,
		FullName:    sub.FullName,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Affiliation: sub.Affiliation,
		Outcome:     r.Outcome,
		PhotoURL:    r.PhotoURL,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

// Repository persists ledger entries in Postgres or SQLite.
type Repository struct {
	db     *sql.DB
	driver string
}

// NewRepository creates a repo. driver is the database/sql driver name and
// selects the schema dialect.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	id           TEXT PRIMARY KEY,
	full_name    TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	affiliation  TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	photo_url    TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_submitted ON registrations (submitted_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	id           TEXT PRIMARY KEY,
	full_name    TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	affiliation  TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	photo_url    TEXT NOT NULL DEFAULT '',
	submitted_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_submitted ON registrations (submitted_at);
`

// Migrate creates the ledger table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if r.driver == "sqlite3" {
		schema = sqliteSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate registrations: %w", err)
	}
	return nil
}

// Record writes a new entry. Entries are never updated.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.New("entry id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registrations (id, full_name, email, phone, affiliation, outcome, photo_url, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.FullName, e.Email, e.Phone, e.Affiliation, string(e.Outcome), e.PhotoURL, e.SubmittedAt.UTC())
	return err
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, email, phone, affiliation, outcome, photo_url, submitted_at
		FROM registrations
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			outcome string
		)
		if err := rows.Scan(&e.ID, &e.FullName, &e.Email, &e.Phone, &e.Affiliation, &outcome, &e.PhotoURL, &e.SubmittedAt); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		res = append(res, e)
	}
	return res, rows.Err()
}
