package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/locshare/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	participant_id TEXT PRIMARY KEY,
	lat            REAL NOT NULL,
	lng            REAL NOT NULL,
	device_type    TEXT NOT NULL DEFAULT '',
	samples        INTEGER NOT NULL DEFAULT 1,
	first_seen     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_locations_updated ON locations(updated_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, nil)
}

// NewWithSetup opens the database, applies the schema and then runs setup.
// Useful for tests that need to seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" on one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveLocation upserts the participant's last location.
func (s *SQLiteStore) SaveLocation(ctx context.Context, loc store.Location) error {
	if loc.ParticipantID == "" {
		return errors.New("save location: participant id is required")
	}
	query := `
		INSERT INTO locations (participant_id, lat, lng, device_type, samples, first_seen, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(participant_id) DO UPDATE SET
			lat         = excluded.lat,
			lng         = excluded.lng,
			device_type = excluded.device_type,
			samples     = locations.samples + 1,
			updated_at  = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		loc.ParticipantID,
		loc.Lat,
		loc.Lng,
		loc.DeviceType,
		loc.UpdatedAt.UTC(),
		loc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}

// GetLocation retrieves the stored location for one participant.
func (s *SQLiteStore) GetLocation(ctx context.Context, participantID string) (*store.Location, error) {
	query := `
		SELECT participant_id, lat, lng, device_type, samples, first_seen, updated_at
		FROM locations
		WHERE participant_id = ?
	`
	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("location %q: %w", participantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query location: %w", err)
	}
	return loc, nil
}

// ListLocations returns all stored locations ordered by participant id.
func (s *SQLiteStore) ListLocations(ctx context.Context) ([]*store.Location, error) {
	query := `
		SELECT participant_id, lat, lng, device_type, samples, first_seen, updated_at
		FROM locations
		ORDER BY participant_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []*store.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}

// CountLocations returns the number of tracked participants.
func (s *SQLiteStore) CountLocations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*store.Location, error) {
	var loc store.Location
	if err := row.Scan(
		&loc.ParticipantID,
		&loc.Lat,
		&loc.Lng,
		&loc.DeviceType,
		&loc.Samples,
		&loc.FirstSeen,
		&loc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &loc, nil
}
