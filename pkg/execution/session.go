// Package execution tracks the simulated run state of the workflow being edited.
package execution

import (
	"slices"
	"time"

	"github.com/dukex/propflow/pkg/models"
)

// Session is a start/stop flag plus an append-only diagnostic log. It is not safe for
// concurrent use; the graph store serializes access to it.
type Session struct {
	executing bool
	logs      []models.ExecutionLog
	now       func() time.Time
}

// NewSession creates an idle session. A nil clock defaults to time.Now.
func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}

	return &Session{
		logs: make([]models.ExecutionLog, 0),
		now:  now,
	}
}

// Start clears the log and marks the session as executing.
func (s *Session) Start() {
	s.logs = make([]models.ExecutionLog, 0)
	s.executing = true
}

// Stop marks the session as idle. Logs are kept.
func (s *Session) Stop() {
	s.executing = false
}

// Append stamps entry with the current time and appends it to the log.
func (s *Session) Append(entry models.ExecutionLog) models.ExecutionLog {
	entry.Timestamp = s.now().UTC()
	entry.Data = models.CloneConfig(entry.Data)

	if entry.Level == "" {
		entry.Level = models.LogLevelInfo
	}

	s.logs = append(s.logs, entry)

	return entry
}

// Clear empties the log without touching the executing flag.
func (s *Session) Clear() {
	s.logs = make([]models.ExecutionLog, 0)
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.executing = false
	s.Clear()
}

func (s *Session) IsExecuting() bool {
	return s.executing
}

// Logs returns a copy of the log in append order.
func (s *Session) Logs() []models.ExecutionLog {
	logs := slices.Clone(s.logs)
	for i := range logs {
		logs[i].Data = models.CloneConfig(logs[i].Data)
	}

	return logs
}
