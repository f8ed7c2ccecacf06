package store

import (
	"database/sql"
	"errors"
	"time"
)

// Calibration is one recorded change of the hand calibration offset.
type Calibration struct {
	ID        int64
	SessionID string
	X, Y, Z   float64
	Source    string
	CreatedAt time.Time
}

// CalibrationRepository provides access to calibration history.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Record inserts a calibration change.
func (r *CalibrationRepository) Record(c *Calibration) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	result, err := r.db.Exec(
		`INSERT INTO calibrations (session_id, x, y, z, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.X, c.Y, c.Z, c.Source, c.CreatedAt,
	)
	if err != nil {
		return err
	}
	c.ID, err = result.LastInsertId()
	return err
}

// Latest returns the most recent calibration for a session, or for any
// session when sessionID is empty.
func (r *CalibrationRepository) Latest(sessionID string) (*Calibration, error) {
	query := `SELECT id, session_id, x, y, z, source, created_at FROM calibrations`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	c := &Calibration{}
	err := r.db.QueryRow(query, args...).
		Scan(&c.ID, &c.SessionID, &c.X, &c.Y, &c.Z, &c.Source, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
