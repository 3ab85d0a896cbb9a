package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/property-profile/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id           TEXT PRIMARY KEY,
	address      TEXT NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	radius       INTEGER NOT NULL,
	commune_code TEXT NOT NULL DEFAULT '',
	profile      TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at);
CREATE INDEX IF NOT EXISTS idx_profiles_commune_code ON profiles(commune_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, address string, radius int, p *model.PropertyProfile) (string, error) {
	if p == nil {
		return "", eris.New("sqlite: save profile: nil profile")
	}
	id := uuid.New().String()

	profileJSON, err := json.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal profile")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, address, label, radius, commune_code, profile, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, address, p.Location.Label, radius, p.Location.CommuneCode, string(profileJSON), s.now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert profile")
	}
	return id, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, address, radius, commune_code, profile, created_at FROM profiles WHERE id = ?`,
		id,
	)

	var rec Record
	var profileJSON string
	if err := row.Scan(&rec.ID, &rec.Address, &rec.Radius, &rec.CommuneCode, &profileJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get profile %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get profile")
	}
	if err := json.Unmarshal([]byte(profileJSON), &rec.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	if rec.Profile != nil {
		rec.Profile.Meta.ID = rec.ID
	}
	return &rec, nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, label, radius, commune_code, created_at FROM profiles ORDER BY created_at DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close() //nolint:errcheck

	out := make([]Summary, 0)
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate profiles")
}

func scanSummary(row scannable) (Summary, error) {
	var s Summary
	err := row.Scan(&s.ID, &s.Address, &s.Label, &s.Radius, &s.CommuneCode, &s.CreatedAt)
	return s, err
}
