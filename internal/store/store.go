// Package store holds the SQL for the catalog, customers, orders, staff
// credentials and sessions. Every multi-row write runs inside
// database.WithTransaction.
package store

import (
	"database/sql"
	"time"
)

// Store binds the queries to a connection pool and to the wall-clock zone in
// which order timestamps are recorded.
type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now. Tests use it to force equal timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(db *sql.DB, loc *time.Location, opts ...Option) *Store {
	if loc == nil {
		loc = time.Local
	}
	s := &Store{db: db, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// localNow is the current wall clock in the order zone.
func (s *Store) localNow() time.Time {
	return s.now().In(s.loc)
}

// inZone reinterprets a TIMESTAMP (no zone) read from the database as a wall
// clock reading in the order zone.
func (s *Store) inZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.loc)
}
