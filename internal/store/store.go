// Package store persists generated property profiles.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-profile/internal/model"
)

// ErrNotFound is returned when a profile id does not exist.
var ErrNotFound = eris.New("store: profile not found")

// DefaultListLimit caps ListProfiles when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Record is a persisted profile.
type Record struct {
	ID          string                 `json:"id"`
	Address     string                 `json:"address"`
	Radius      int                    `json:"radius"`
	CommuneCode string                 `json:"commune_code"`
	CreatedAt   time.Time              `json:"created_at"`
	Profile     *model.PropertyProfile `json:"profile,omitempty"`
}

// Summary is the listing form of a Record.
type Summary struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Label       string    `json:"label"`
	Radius      int       `json:"radius"`
	CommuneCode string    `json:"commune_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the persistence interface for generated profiles.
type Store interface {
	// SaveProfile stores p under a new id and returns it.
	SaveProfile(ctx context.Context, address string, radius int, p *model.PropertyProfile) (string, error)
	// GetProfile returns ErrNotFound when id is unknown.
	GetProfile(ctx context.Context, id string) (*Record, error)
	// ListProfiles returns the most recent profiles first.
	ListProfiles(ctx context.Context, limit int) ([]Summary, error)

	Migrate(ctx context.Context) error
	Close() error
}

func listLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return DefaultListLimit
	}
	return limit
}

// scannable is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type scannable interface {
	Scan(dest ...any) error
}
