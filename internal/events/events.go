// Package events publishes notifications about generated profiles to
// downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/sells-group/property-profile/internal/model"
)

// ProfileGenerated is emitted after a profile has been built and persisted.
type ProfileGenerated struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Label        string    `json:"label"`
	CommuneCode  string    `json:"commune_code"`
	Radius       int       `json:"radius"`
	WarningCount int       `json:"warning_count"`
	Unavailable  []string  `json:"unavailable_sections"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// NewProfileGenerated builds the event for p. Unavailable lists sections in
// their canonical order.
func NewProfileGenerated(id, address string, radius int, p *model.PropertyProfile) ProfileGenerated {
	statuses := p.SectionStatuses()
	unavailable := make([]string, 0)
	for _, name := range model.SectionNames {
		if statuses[name] == model.StatusUnavailable {
			unavailable = append(unavailable, name)
		}
	}
	return ProfileGenerated{
		ID:           id,
		Address:      address,
		Label:        p.Location.Label,
		CommuneCode:  p.Location.CommuneCode,
		Radius:       radius,
		WarningCount: len(p.Warnings),
		Unavailable:  unavailable,
		GeneratedAt:  p.Meta.GeneratedAt,
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev ProfileGenerated) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, ProfileGenerated) error { return nil }
func (Noop) Close() error                                    { return nil }
