package client

import (
	"sync"
	"time"

	"github.com/greenhouse-agent/gha/pkg/api"
)

// Store holds the last server-confirmed switch list and metrics text.
//
// Every request takes a sequence number from Begin before it is sent. A
// response is applied only if its sequence number is newer than the one that
// produced the current copy, so a slow response can't overwrite a fresher one.
type Store struct {
	mu sync.RWMutex

	next uint64

	switches    []api.SwitchState
	switchesSeq uint64
	switchesAt  time.Time

	metrics    string
	metricsSeq uint64
	metricsAt  time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Begin reserves the next sequence number.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// ReplaceSwitches installs list if seq is newer than the current copy.
// Reports whether the list was applied.
func (s *Store) ReplaceSwitches(seq uint64, list []api.SwitchState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.switchesSeq {
		return false
	}
	s.switches = cloneSwitches(list)
	s.switchesSeq = seq
	s.switchesAt = time.Now()
	return true
}

// ReplaceMetrics installs text if seq is newer than the current copy.
func (s *Store) ReplaceMetrics(seq uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.metricsSeq {
		return false
	}
	s.metrics = text
	s.metricsSeq = seq
	s.metricsAt = time.Now()
	return true
}

// Switches returns a copy of the current switch list.
func (s *Store) Switches() []api.SwitchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSwitches(s.switches)
}

// Metrics returns the current metrics text.
func (s *Store) Metrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// SwitchesUpdated returns when the switch list was last replaced (zero if never).
func (s *Store) SwitchesUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.switchesAt
}

// MetricsUpdated returns when the metrics text was last replaced (zero if never).
func (s *Store) MetricsUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metricsAt
}

func cloneSwitches(list []api.SwitchState) []api.SwitchState {
	if list == nil {
		return nil
	}
	return append(make([]api.SwitchState, 0, len(list)), list...)
}
