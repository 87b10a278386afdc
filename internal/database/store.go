package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tripcrew/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store runs the trip backend's queries
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const tripColumns = `
	t.id, t.name, t.status, t.owner_id, t.start_location, t.end_location, t.start_date,
	t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM trip_members m WHERE m.trip_id = t.id) AS member_count`

func (s *Store) GetTrip(ctx context.Context, tripID int64) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.GetContext(ctx, &trip, `SELECT`+tripColumns+` FROM trips t WHERE t.id = $1`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip %d: %w", tripID, err)
	}
	return &trip, nil
}

// MemberAccess returns the user's access level for the trip, ErrNotFound if
// they are not a member
func (s *Store) MemberAccess(ctx context.Context, tripID, userID int64) (models.AccessLevel, error) {
	var level string
	err := s.db.GetContext(ctx, &level,
		`SELECT access_level FROM trip_members WHERE trip_id = $1 AND user_id = $2`, tripID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return models.AccessLevel(level), nil
}

func (s *Store) RoutePoints(ctx context.Context, tripID int64) ([]models.RoutePoint, error) {
	points := []models.RoutePoint{}
	err := s.db.SelectContext(ctx, &points,
		`SELECT trip_id, seq, latitude, longitude FROM trip_route_points WHERE trip_id = $1 ORDER BY seq`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get route points: %w", err)
	}
	return points, nil
}

func (s *Store) InsertLocation(ctx context.Context, loc *models.TripLocation) error {
	query := `
		INSERT INTO trip_locations (
			trip_id, user_id, latitude, longitude, accuracy, captured_at, is_on_route, distance_from_route_km
		) VALUES (:trip_id, :user_id, :latitude, :longitude, :accuracy, :captured_at, :is_on_route, :distance_from_route_km)
		RETURNING id, created_at
	`
	rows, err := s.db.NamedQueryContext(ctx, query, loc)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&loc.ID, &loc.CreatedAt); err != nil {
			return fmt.Errorf("failed to read inserted location: %w", err)
		}
	}
	return rows.Err()
}

func (s *Store) ListCheckIns(ctx context.Context, tripID int64) ([]models.CheckIn, error) {
	checkIns := []models.CheckIn{}
	err := s.db.SelectContext(ctx, &checkIns, `
		SELECT trip_id, user_id, status, notes, checked_in_at, updated_at
		FROM check_ins WHERE trip_id = $1 ORDER BY updated_at
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkIns, nil
}

func (s *Store) GetCheckIn(ctx context.Context, tripID, userID int64) (*models.CheckIn, error) {
	var c models.CheckIn
	err := s.db.GetContext(ctx, &c, `
		SELECT trip_id, user_id, status, notes, checked_in_at, updated_at
		FROM check_ins WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return &c, nil
}

// UpsertCheckIn creates the (trip, user) check-in or updates it in place
func (s *Store) UpsertCheckIn(ctx context.Context, c *models.CheckIn) error {
	query := `
		INSERT INTO check_ins (trip_id, user_id, status, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id, user_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			checked_in_at = EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		RETURNING checked_in_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, c.TripID, c.UserID, c.Status, c.Notes).Scan(&c.CheckedInAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save check-in: %w", err)
	}
	return nil
}

// ConfirmIfPlanning moves a planning trip to confirmed and reports whether it did
func (s *Store) ConfirmIfPlanning(ctx context.Context, tripID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET status = 'confirmed', updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		WHERE id = $1 AND status = 'planning'
	`, tripID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
