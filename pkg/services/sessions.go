package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Sessions keeps the open editor sessions in memory.
type Sessions struct {
	mu      sync.RWMutex
	editors map[string]*Editor
	deps    Dependencies
	logger  *slog.Logger
	now     func() time.Time
}

// NewSessions creates an empty session registry.
func NewSessions(deps Dependencies) (*Sessions, error) {
	if deps.Repository == nil {
		return nil, errors.New("sessions require a workflow repository")
	}

	if deps.Templates == nil {
		return nil, errors.New("sessions require a template loader")
	}

	deps = deps.withDefaults()

	return &Sessions{
		editors: make(map[string]*Editor),
		deps:    deps,
		logger:  deps.Logger.With("module", "sessions"),
		now:     time.Now,
	}, nil
}

// Create opens a new session with an empty workflow.
func (s *Sessions) Create() *Editor {
	editor := NewEditor(uuid.NewString(), s.deps)
	editor.touch(s.now())

	s.mu.Lock()
	s.editors[editor.ID()] = editor
	s.mu.Unlock()

	s.logger.Info("Session created", "session_id", editor.ID())

	return editor
}

// Get returns an open session and marks it as used.
func (s *Sessions) Get(sessionID string) (*Editor, error) {
	s.mu.RLock()
	editor, ok := s.editors[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	editor.touch(s.now())

	return editor, nil
}

// Delete closes a session. Unsaved changes are discarded.
func (s *Sessions) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	editor, ok := s.editors[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	delete(s.editors, sessionID)
	s.logger.Info("Session closed", "session_id", sessionID, "dirty", editor.Store().Dirty())

	return nil
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.editors)
}

// EvictIdle closes the sessions not used for longer than maxIdle and returns how many
// were closed. A session with a save in flight is kept until the save returns.
func (s *Sessions) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0

	for id, editor := range s.editors {
		if !editor.LastUsed().Before(cutoff) {
			continue
		}

		if !editor.saving.TryLock() {
			continue
		}
		editor.saving.Unlock()

		delete(s.editors, id)
		evicted++

		if editor.Store().Dirty() {
			s.logger.Warn("Evicted idle session with unsaved changes", "session_id", id, "last_used", editor.LastUsed())
		}
	}

	if evicted > 0 {
		s.logger.Info("Evicted idle sessions", "count", evicted, "open", len(s.editors))
	}

	return evicted
}

// StartEviction runs EvictIdle on a schedule of one check per interval. The returned
// function stops the schedule and waits for a running check to finish.
func (s *Sessions) StartEviction(interval, maxIdle time.Duration) (func(), error) {
	if interval < time.Second {
		return nil, fmt.Errorf("session eviction interval %s is below one second", interval)
	}

	scheduler := cron.New()

	_, err := scheduler.AddFunc("@every "+interval.String(), func() {
		s.EvictIdle(maxIdle)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session eviction: %w", err)
	}

	scheduler.Start()

	return func() {
		<-scheduler.Stop().Done()
	}, nil
}
