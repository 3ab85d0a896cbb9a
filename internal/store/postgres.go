package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/property-profile/internal/db"
	"github.com/sells-group/property-profile/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	address      TEXT NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	radius       INTEGER NOT NULL,
	commune_code TEXT NOT NULL DEFAULT '',
	profile      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_profiles_commune_code ON profiles(commune_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, address string, radius int, p *model.PropertyProfile) (string, error) {
	if p == nil {
		return "", eris.New("postgres: save profile: nil profile")
	}
	id := uuid.New().String()

	profileJSON, err := json.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal profile")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (id, address, label, radius, commune_code, profile, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, address, p.Location.Label, radius, p.Location.CommuneCode, profileJSON, s.now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert profile")
	}
	return id, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, address, radius, commune_code, profile, created_at FROM profiles WHERE id = $1`,
		id,
	)

	var rec Record
	var profileJSON []byte
	if err := row.Scan(&rec.ID, &rec.Address, &rec.Radius, &rec.CommuneCode, &profileJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get profile %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get profile")
	}
	if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	if rec.Profile != nil {
		rec.Profile.Meta.ID = rec.ID
	}
	return &rec, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, address, label, radius, commune_code, created_at FROM profiles ORDER BY created_at DESC LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate profiles")
}
