// Package store holds the aggregated collection the dashboard serves. Every
// ingest replaces the whole snapshot; a failed ingest leaves an explicit
// empty-with-error state rather than stale rows, so "no data" is always
// distinguishable from "no activity".
package store

import (
	"sync"
	"time"

	"hemostats/internal/distribution/model"
)

// Status describes the snapshot currently being served.
type Status struct {
	Rows     int        `json:"rows"`
	Source   string     `json:"source,omitempty"`
	LastSync *time.Time `json:"lastSync,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type Store struct {
	mu       sync.RWMutex
	rows     []model.Row
	source   string
	lastSync time.Time
	synced   bool
	lastErr  string
}

func New() *Store { return &Store{} }

// SetRows installs a fresh snapshot and clears any previous error state.
func (s *Store) SetRows(rows []model.Row, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.source = source
	s.lastSync = time.Now()
	s.synced = true
	s.lastErr = ""
}

// SetError records a failed ingest, discarding the previous collection.
func (s *Store) SetError(err error, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.source = source
	s.lastSync = time.Now()
	s.synced = true
	s.lastErr = err.Error()
}

// Snapshot returns the current collection. Callers treat it as immutable;
// the slice is replaced wholesale on the next ingest, never mutated.
func (s *Store) Snapshot() []model.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Rows: len(s.rows), Source: s.source, Error: s.lastErr}
	if s.synced {
		t := s.lastSync
		st.LastSync = &t
	}
	return st
}
