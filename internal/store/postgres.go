package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

// PostgresStore keeps each route as ordered rows in a single table, active
// and trial routes distinguished by a kind column. Every save replaces the
// whole route in one transaction; stops are few enough that partial updates
// are not worth the bookkeeping.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const routeSchema = `
	CREATE TABLE IF NOT EXISTS route_stops (
		kind           TEXT NOT NULL,
		position       INTEGER NOT NULL,
		stop_id        TEXT NOT NULL,
		name           TEXT NOT NULL DEFAULT '',
		latitude       DOUBLE PRECISION NOT NULL,
		longitude      DOUBLE PRECISION NOT NULL,
		utc_offset     DOUBLE PRECISION NOT NULL,
		country        TEXT NOT NULL DEFAULT '',
		arrival_time   TEXT NOT NULL DEFAULT '',
		departure_time TEXT NOT NULL DEFAULT '',
		stop_duration  INTEGER,
		priority       INTEGER,
		notes          TEXT NOT NULL DEFAULT '',
		is_stop        BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (kind, position)
	)
`

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(context.Background(), routeSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure route schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) LoadStops(ctx context.Context) ([]route.Stop, error) {
	return s.loadKind(ctx, "active")
}

func (s *PostgresStore) SaveStops(ctx context.Context, stops []route.Stop) error {
	return s.saveKind(ctx, "active", stops)
}

func (s *PostgresStore) LoadTrial(ctx context.Context) ([]route.Stop, error) {
	return s.loadKind(ctx, "trial")
}

func (s *PostgresStore) SaveTrial(ctx context.Context, stops []route.Stop) error {
	return s.saveKind(ctx, "trial", stops)
}

func (s *PostgresStore) DeleteTrial(ctx context.Context) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM route_stops WHERE kind = 'trial'`)
	if err != nil {
		return fmt.Errorf("failed to delete trial route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasTrial(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM route_stops WHERE kind = 'trial')`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trial route: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) LastModified(ctx context.Context) (time.Time, error) {
	var modified *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(updated_at) FROM route_stops WHERE kind = 'active'`).Scan(&modified)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query route timestamp: %w", err)
	}
	if modified == nil {
		return time.Time{}, ErrNotFound
	}
	return modified.UTC(), nil
}

func (s *PostgresStore) loadKind(ctx context.Context, kind string) ([]route.Stop, error) {
	query := `
		SELECT
			stop_id,
			name,
			latitude,
			longitude,
			utc_offset,
			country,
			arrival_time,
			departure_time,
			stop_duration,
			priority,
			notes,
			is_stop
		FROM route_stops
		WHERE kind = $1
		ORDER BY position
	`

	rows, err := s.pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query route stops: %w", err)
	}
	defer rows.Close()

	var stops []route.Stop
	for rows.Next() {
		var st route.Stop
		err := rows.Scan(
			&st.ID,
			&st.Name,
			&st.Latitude,
			&st.Longitude,
			&st.UTCOffset,
			&st.Country,
			&st.ArrivalTime,
			&st.DepartureTime,
			&st.StopDuration,
			&st.Priority,
			&st.Notes,
			&st.IsStop,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stop row: %w", err)
		}
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop rows: %w", err)
	}
	if stops == nil {
		return nil, ErrNotFound
	}
	return stops, nil
}

func (s *PostgresStore) saveKind(ctx context.Context, kind string, stops []route.Stop) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM route_stops WHERE kind = $1`, kind); err != nil {
		return fmt.Errorf("failed to clear route stops: %w", err)
	}

	insert := `
		INSERT INTO route_stops (
			kind, position, stop_id, name, latitude, longitude, utc_offset,
			country, arrival_time, departure_time, stop_duration, priority,
			notes, is_stop, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
	`
	for i, st := range stops {
		_, err := tx.Exec(ctx, insert,
			kind, i, st.ID, st.Name, st.Latitude, st.Longitude, st.UTCOffset,
			st.Country, st.ArrivalTime, st.DepartureTime, st.StopDuration,
			st.Priority, st.Notes, st.IsStop,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stop %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit route save: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*JSONStore)(nil)
