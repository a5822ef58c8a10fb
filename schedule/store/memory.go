// Package store provides in-memory schedule.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for tests and the console)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	weeks  map[schedule.EmployeeID]schedule.WeeklyAssignment
	order  []schedule.EmployeeID
	events map[schedule.EmployeeID][]schedule.Event
}

func NewMemory() *Memory {
	return &Memory{
		weeks:  make(map[schedule.EmployeeID]schedule.WeeklyAssignment),
		events: make(map[schedule.EmployeeID][]schedule.Event),
	}
}

var (
	_ schedule.Store    = (*Memory)(nil)
	_ schedule.EventLog = (*Memory)(nil)
)

func (m *Memory) Get(_ context.Context, id schedule.EmployeeID) (schedule.WeeklyAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.weeks[id]
	if !ok {
		return schedule.WeeklyAssignment{}, &schedule.NotFoundError{EmployeeID: id}
	}
	return w, nil
}

func (m *Memory) Set(_ context.Context, w schedule.WeeklyAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.weeks[w.EmployeeID]; !ok {
		m.order = append(m.order, w.EmployeeID)
	}
	m.weeks[w.EmployeeID] = w
	return nil
}

// Update runs fn on a copy and only stores it if fn succeeds. Holding the
// write lock for the whole call makes the read-modify-write atomic.
func (m *Memory) Update(_ context.Context, id schedule.EmployeeID, fn func(*schedule.WeeklyAssignment) error) (schedule.WeeklyAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.weeks[id]
	if !ok {
		return schedule.WeeklyAssignment{}, &schedule.NotFoundError{EmployeeID: id}
	}

	draft := current
	if err := fn(&draft); err != nil {
		return schedule.WeeklyAssignment{}, err
	}
	draft.EmployeeID = id
	m.weeks[id] = draft
	return draft, nil
}

func (m *Memory) All(_ context.Context) ([]schedule.WeeklyAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schedule.WeeklyAssignment, len(m.order))
	for i, id := range m.order {
		result[i] = m.weeks[id]
	}
	return result, nil
}

// =============================================================================
// EVENT LOG
// =============================================================================

func (m *Memory) AppendEvent(_ context.Context, e schedule.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events[e.EmployeeID] = append(m.events[e.EmployeeID], e)
	return nil
}

func (m *Memory) ListEvents(_ context.Context, id schedule.EmployeeID) ([]schedule.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schedule.Event, len(m.events[id]))
	copy(result, m.events[id])
	return result, nil
}
