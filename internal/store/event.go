package store

import (
	"database/sql"
	"time"
)

// GestureEvent is one recorded gesture firing.
type GestureEvent struct {
	ID        string
	SessionID string
	Name      string
	Distance  float64
	X, Y, Z   float64
	FiredAt   time.Time
}

// EventRepository provides access to gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the gesture event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts a gesture event.
func (r *EventRepository) Record(e *GestureEvent) error {
	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, session_id, name, distance, x, y, z, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Name, e.Distance, e.X, e.Y, e.Z, e.FiredAt,
	)
	return err
}

// ListRecent returns up to limit events, newest first.
func (r *EventRepository) ListRecent(limit int) ([]*GestureEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, name, distance, x, y, z, fired_at
		 FROM gesture_events ORDER BY fired_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*GestureEvent
	for rows.Next() {
		e := &GestureEvent{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Name, &e.Distance, &e.X, &e.Y, &e.Z, &e.FiredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByName returns how often each gesture fired in a session.
func (r *EventRepository) CountByName(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT name, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY name`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
