// Package history implements a linear undo stack with branch pruning over
// immutable document states. Operations take and return History values; no
// operation mutates the receiver's backing state in a way visible to older
// copies, which keeps concurrent sessions and tests deterministic.
package history

import (
	"errors"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// Boundary signals. Benign: used to disable undo/redo affordances, never
// logged as errors.
var (
	ErrAtStart = errors.New("history: already at first state")
	ErrAtEnd   = errors.New("history: already at latest state")
	ErrEmpty   = errors.New("history: no states")
)

// History is an ordered sequence of document states plus a cursor.
// The zero value is an empty, usable history.
type History struct {
	states []models.DocumentState
	cursor int
}

// Commit truncates any states after the cursor, appends newState, and moves
// the cursor to the new last index. Redo information for the abandoned branch
// is intentionally discarded.
func Commit(h History, newState models.DocumentState) History {
	var kept []models.DocumentState
	if len(h.states) > 0 {
		kept = h.states[:h.cursor+1]
	}
	states := make([]models.DocumentState, len(kept), len(kept)+1)
	copy(states, kept)
	states = append(states, newState)
	return History{states: states, cursor: len(states) - 1}
}

// Undo moves the cursor one state back and returns the state at the new
// cursor. Returns ErrAtStart (or ErrEmpty) without changing the history when
// no earlier state exists.
func Undo(h History) (History, models.DocumentState, error) {
	if len(h.states) == 0 {
		return h, models.DocumentState{}, ErrEmpty
	}
	if h.cursor == 0 {
		return h, models.DocumentState{}, ErrAtStart
	}
	next := History{states: h.states, cursor: h.cursor - 1}
	return next, next.states[next.cursor], nil
}

// Redo moves the cursor one state forward and returns the state at the new
// cursor. Returns ErrAtEnd (or ErrEmpty) without changing the history when
// no later state exists.
func Redo(h History) (History, models.DocumentState, error) {
	if len(h.states) == 0 {
		return h, models.DocumentState{}, ErrEmpty
	}
	if h.cursor >= len(h.states)-1 {
		return h, models.DocumentState{}, ErrAtEnd
	}
	next := History{states: h.states, cursor: h.cursor + 1}
	return next, next.states[next.cursor], nil
}

// Current returns the state at the cursor.
func (h History) Current() (models.DocumentState, bool) {
	if len(h.states) == 0 {
		return models.DocumentState{}, false
	}
	return h.states[h.cursor], true
}

// Len returns the number of retained states.
func (h History) Len() int { return len(h.states) }

// Cursor returns the current cursor index. Meaningless when Len is 0.
func (h History) Cursor() int { return h.cursor }

// CanUndo reports whether an earlier state exists.
func (h History) CanUndo() bool { return len(h.states) > 0 && h.cursor > 0 }

// CanRedo reports whether a later state exists.
func (h History) CanRedo() bool { return len(h.states) > 0 && h.cursor < len(h.states)-1 }

// States returns a copy of the retained states, oldest first. Used for
// persistence snapshots.
func (h History) States() []models.DocumentState {
	out := make([]models.DocumentState, len(h.states))
	copy(out, h.states)
	return out
}

// Restore rebuilds a history from persisted states with the cursor at the
// given index, clamped into range.
func Restore(states []models.DocumentState, cursor int) History {
	if len(states) == 0 {
		return History{}
	}
	own := make([]models.DocumentState, len(states))
	copy(own, states)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(own)-1 {
		cursor = len(own) - 1
	}
	return History{states: own, cursor: cursor}
}
