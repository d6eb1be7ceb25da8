// Package store persists the canonical route. Two backends implement the
// same interface: a JSON document on disk (the default) and Postgres. Stops
// cross this boundary already normalized; the store never edits them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

// ErrNotFound is returned when the requested document does not exist yet.
// Handlers map it to 404; everything else from a store is a 500.
var ErrNotFound = errors.New("store: document not found")

type Store interface {
	// LoadStops returns the active route, normalized. ErrNotFound when no
	// route document has been saved yet.
	LoadStops(ctx context.Context) ([]route.Stop, error)
	SaveStops(ctx context.Context, stops []route.Stop) error
	// LastModified reports when the active route was last written.
	LastModified(ctx context.Context) (time.Time, error)

	// Trial route: a scratch copy edited and simulated without touching the
	// active route until ApplyTrial promotes it.
	LoadTrial(ctx context.Context) ([]route.Stop, error)
	SaveTrial(ctx context.Context, stops []route.Stop) error
	DeleteTrial(ctx context.Context) error
	HasTrial(ctx context.Context) (bool, error)

	Close()
}

// ApplyTrial promotes the trial route to active and removes the trial.
// ErrNotFound when there is no trial to apply.
func ApplyTrial(ctx context.Context, s Store) ([]route.Stop, error) {
	stops, err := s.LoadTrial(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.SaveStops(ctx, stops); err != nil {
		return nil, err
	}
	if err := s.DeleteTrial(ctx); err != nil {
		return nil, err
	}
	return stops, nil
}

// Backup is a point-in-time export of everything the store holds.
type Backup struct {
	SnapshotID string       `json:"snapshot_id"`
	CreatedAt  time.Time    `json:"created_at"`
	Route      []route.Stop `json:"route"`
	TrialRoute []route.Stop `json:"trial_route,omitempty"`
}

// ExportBackup snapshots the active route and, when present, the trial
// route. A missing active route yields an empty backup, not an error.
func ExportBackup(ctx context.Context, s Store) (Backup, error) {
	backup := Backup{
		SnapshotID: uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Route:      []route.Stop{},
	}

	stops, err := s.LoadStops(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Backup{}, err
	}
	if stops != nil {
		backup.Route = stops
	}

	trial, err := s.LoadTrial(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Backup{}, err
	}
	backup.TrialRoute = trial
	return backup, nil
}
