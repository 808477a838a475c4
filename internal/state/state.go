package state

import (
	"sync"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

// AppState holds the single loaded dataset and its current filtered view.
// It is created once at startup and handed to the components that need it;
// there is no package-level instance. Loading a new dataset replaces the
// old one wholesale and resets the view.
type AppState struct {
	mu      sync.RWMutex
	table   *dataset.Table
	view    *dataset.View
	filters []models.FilterPredicate
}

func New() *AppState {
	return &AppState{}
}

// SetTable installs a freshly loaded dataset, dropping any previous table,
// view, and filters.
func (s *AppState) SetTable(t *dataset.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.view = t.FullView()
	s.filters = nil
}

// Table returns the loaded dataset, or nil when nothing is loaded.
func (s *AppState) Table() *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// View returns the current view: the filtered rows if a filter is active,
// the full table otherwise, nil when nothing is loaded.
func (s *AppState) View() *dataset.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView installs a filter result as the current view, remembering the
// predicates that produced it.
func (s *AppState) SetView(filters []models.FilterPredicate, v *dataset.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.filters = append([]models.FilterPredicate(nil), filters...)
}

// ResetView restores the full-table view and clears the remembered filters.
func (s *AppState) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table != nil {
		s.view = s.table.FullView()
	}
	s.filters = nil
}

// Filters returns a copy of the predicates behind the current view.
func (s *AppState) Filters() []models.FilterPredicate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FilterPredicate(nil), s.filters...)
}

// Snapshot returns the table and view together under one lock, so a request
// sees a consistent pair even if an upload lands mid-flight.
func (s *AppState) Snapshot() (*dataset.Table, *dataset.View) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.view
}
