// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one open chat panel.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time
	closed    bool

	store      *attach.Store
	transcript *model.Transcript
}

// New creates a session with an empty store limited to maxImages images.
func New(maxImages int) *Session {
	return &Session{
		id:         uuid.NewString(),
		startTime:  time.Now(),
		store:      attach.NewStore(maxImages),
		transcript: model.NewTranscript(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// StartTime returns when the session was opened.
func (s *Session) StartTime() time.Time {
	return s.startTime
}

// Duration returns how long the session has been open.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startTime)
}

// Store returns the session's attachment store.
func (s *Session) Store() *attach.Store {
	return s.store
}

// Transcript returns the session's display transcript.
func (s *Session) Transcript() *model.Transcript {
	return s.transcript
}

// Close discards all attachments and the transcript. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.store.Clear()
	s.transcript.Clear()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
