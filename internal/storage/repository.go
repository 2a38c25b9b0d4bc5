package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"charge-costs/internal/energy"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	getGeofenceSQL = `SELECT id, name, cost_per_unit
    FROM geofences
    WHERE id = $1;`

	listUncostedSessionsSQL = `SELECT id, end_date, charge_energy_used
    FROM charging_processes
    WHERE geofence_id = $1
      AND end_date IS NOT NULL
      AND cost IS NULL
    ORDER BY end_date;`

	listTelemetrySQL = `SELECT date, charger_power, charger_actual_current, charger_voltage, charger_phases
    FROM charges
    WHERE charging_process_id = $1
    ORDER BY date;`

	setSessionCostSQL = `UPDATE charging_processes
    SET cost = $2
    WHERE id = $1;`

	listRecentCostedSQL = `SELECT id, end_date, cost, charge_energy_used
    FROM charging_processes
    WHERE cost IS NOT NULL
      AND end_date IS NOT NULL
    ORDER BY end_date DESC
    LIMIT $1;`

	listCostedBetweenSQL = `SELECT id, end_date, cost, charge_energy_used
    FROM charging_processes
    WHERE cost IS NOT NULL
      AND end_date >= $1
      AND end_date < $2
    ORDER BY end_date;`
)

// SessionStore defines the persistence operations the reconciler consumes.
type SessionStore interface {
	GetGeofence(ctx context.Context, id int) (*Geofence, error)
	ListUncostedSessions(ctx context.Context, geofenceID int) ([]Session, error)
	GetTelemetry(ctx context.Context, sessionID int) ([]energy.Sample, error)
	SetSessionCost(ctx context.Context, sessionID int, cost decimal.Decimal) error
}

// CostedSessionStore defines read access to already-costed sessions.
type CostedSessionStore interface {
	ListRecentCosted(ctx context.Context, limit int) ([]CostedSession, error)
	ListCostedBetween(ctx context.Context, from, to time.Time) ([]CostedSession, error)
}

// Store provides access to the TeslaMate charging tables.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// GetGeofence fetches the configured geofence, or nil when it does not exist.
func (s *Store) GetGeofence(ctx context.Context, id int) (*Geofence, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var (
		geofence Geofence
		costStr  sql.NullString
	)
	row := pool.QueryRow(ctx, getGeofenceSQL, id)
	if scanErr := row.Scan(&geofence.ID, &geofence.Name, &costStr); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get geofence: %w", scanErr)
	}

	if costStr.Valid {
		cost, convErr := decimal.NewFromString(costStr.String)
		if convErr != nil {
			return nil, fmt.Errorf("parse geofence cost per unit: %w", convErr)
		}
		geofence.CostPerUnit = &cost
	}
	return &geofence, nil
}

// ListUncostedSessions lists finished charging processes with no cost set.
func (s *Store) ListUncostedSessions(ctx context.Context, geofenceID int) ([]Session, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUncostedSessionsSQL, geofenceID)
	if queryErr != nil {
		return nil, fmt.Errorf("list uncosted sessions: %w", queryErr)
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		var (
			session   Session
			energyStr sql.NullString
		)
		if scanErr := rows.Scan(&session.ID, &session.EndDate, &energyStr); scanErr != nil {
			return nil, scanErr
		}
		if energyStr.Valid {
			used, convErr := decimal.NewFromString(energyStr.String)
			if convErr != nil {
				return nil, fmt.Errorf("parse charge energy used: %w", convErr)
			}
			session.EnergyUsed = &used
		}
		sessions = append(sessions, session)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}

// GetTelemetry loads a session's telemetry samples ordered by timestamp.
func (s *Store) GetTelemetry(ctx context.Context, sessionID int) ([]energy.Sample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listTelemetrySQL, sessionID)
	if queryErr != nil {
		return nil, fmt.Errorf("list telemetry: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]energy.Sample, 0)
	for rows.Next() {
		var (
			date    time.Time
			power   int64
			current sql.NullInt64
			voltage sql.NullInt64
			phases  sql.NullInt64
		)
		if scanErr := rows.Scan(&date, &power, &current, &voltage, &phases); scanErr != nil {
			return nil, scanErr
		}

		sample := energy.Sample{
			Time:  date.UTC(),
			Power: decimal.NewFromInt(power),
		}
		if current.Valid {
			v := int(current.Int64)
			sample.Current = &v
		}
		if voltage.Valid {
			v := int(voltage.Int64)
			sample.Voltage = &v
		}
		if phases.Valid {
			v := int(phases.Int64)
			sample.Phases = &v
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// SetSessionCost writes the computed cost back to the charging process.
func (s *Store) SetSessionCost(ctx context.Context, sessionID int, cost decimal.Decimal) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, setSessionCostSQL, sessionID, cost.String())
	if execErr != nil {
		return fmt.Errorf("set session cost: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListRecentCosted lists the most recently finished costed sessions.
func (s *Store) ListRecentCosted(ctx context.Context, limit int) ([]CostedSession, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentCostedSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent costed sessions: %w", queryErr)
	}
	defer rows.Close()

	return scanCostedSessions(rows)
}

// ListCostedBetween lists costed sessions that finished within a window.
func (s *Store) ListCostedBetween(ctx context.Context, from, to time.Time) ([]CostedSession, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listCostedBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list costed sessions between: %w", queryErr)
	}
	defer rows.Close()

	return scanCostedSessions(rows)
}

func scanCostedSessions(rows pgx.Rows) ([]CostedSession, error) {
	sessions := make([]CostedSession, 0)
	for rows.Next() {
		var (
			session   CostedSession
			costStr   string
			energyStr sql.NullString
		)
		if err := rows.Scan(&session.ID, &session.EndDate, &costStr, &energyStr); err != nil {
			return nil, err
		}

		cost, convErr := decimal.NewFromString(costStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse session cost: %w", convErr)
		}
		session.Cost = cost

		if energyStr.Valid {
			used, convErr := decimal.NewFromString(energyStr.String)
			if convErr != nil {
				return nil, fmt.Errorf("parse charge energy used: %w", convErr)
			}
			session.EnergyUsed = &used
		}
		sessions = append(sessions, session)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}
