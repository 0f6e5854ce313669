package analysis

import (
	"fmt"
	"slices"
)

// RegionStatus is the state of one region pipeline.
type RegionStatus string

const (
	StatusPending   RegionStatus = "PENDING"
	StatusLocalDone RegionStatus = "LOCAL_DONE"
	StatusAIDone    RegionStatus = "AI_DONE"
	StatusAISkipped RegionStatus = "AI_SKIPPED"
	StatusMerged    RegionStatus = "MERGED"
	StatusCached    RegionStatus = "CACHED"
	StatusComplete  RegionStatus = "COMPLETE"
	StatusError     RegionStatus = "ERROR"
)

// Terminal reports whether no further transition is possible.
func (s RegionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// A cache hit or a coalesced computation goes straight from PENDING to
// COMPLETE. MERGED may complete without CACHED when the result is not stored.
var transitions = map[RegionStatus][]RegionStatus{
	StatusPending:   {StatusLocalDone, StatusComplete},
	StatusLocalDone: {StatusAIDone, StatusAISkipped},
	StatusAIDone:    {StatusMerged},
	StatusAISkipped: {StatusMerged},
	StatusMerged:    {StatusCached, StatusComplete},
	StatusCached:    {StatusComplete},
}

// CanTransition reports whether from→to is legal. ERROR is reachable from
// every non-terminal state.
func CanTransition(from, to RegionStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusError {
		return true
	}
	return slices.Contains(transitions[from], to)
}

// regionState tracks one pipeline. It is owned by a single goroutine.
type regionState struct {
	status  RegionStatus
	history []RegionStatus
}

func newRegionState() *regionState {
	return &regionState{status: StatusPending, history: []RegionStatus{StatusPending}}
}

func (s *regionState) advance(to RegionStatus) error {
	if !CanTransition(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, to)
	}
	s.status = to
	s.history = append(s.history, to)
	return nil
}

func (s *regionState) fail() {
	if !s.status.Terminal() {
		s.status = StatusError
		s.history = append(s.history, StatusError)
	}
}
