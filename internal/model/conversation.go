// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for model selection and chat turns.
package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the maximum number of transcript entries kept for display.
// When exceeded, the oldest entries are pruned.
const MaxEntries = 500

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Entry is one displayed chat turn. Err is set for failed requests, in
// which case Turn holds the user-facing error text.
type Entry struct {
	ID        string
	Turn      Turn
	ModelID   string
	Err       error
	Timestamp time.Time
}

// Transcript is the display history of one session. It is never sent to
// the API: every request carries a single fresh turn.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]Entry, 0, 16)}
}

// Append records a turn and returns its entry ID.
func (t *Transcript) Append(turn Turn, modelID string, err error) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := Entry{
		ID:        uuid.NewString(),
		Turn:      turn,
		ModelID:   modelID,
		Err:       err,
		Timestamp: time.Now(),
	}
	t.entries = append(t.entries, e)
	if len(t.entries) > MaxEntries {
		t.entries = append([]Entry(nil), t.entries[len(t.entries)-MaxEntries:]...)
	}
	return e.ID
}

// Entries returns a copy of the entries in insertion order.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear discards all entries.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
