// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package sync

import (
	"fmt"
	"slices"
)

// State is the phase of one endpoint attempt.
type State int

// Attempt states. Succeeded and Failed are terminal.
const (
	StatePending State = iota
	StateFetching
	StateMapping
	StatePersisting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StatePending:    "pending",
	StateFetching:   "fetching",
	StateMapping:    "mapping",
	StatePersisting: "persisting",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// allowedTransitions lists the successors of each non-terminal state. Any
// non-terminal state may fail; success is only reachable from Persisting.
// Fetching, Mapping and Persisting repeat once per record and per batch.
var allowedTransitions = map[State][]State{
	StatePending:    {StateFetching, StateFailed},
	StateFetching:   {StateMapping, StatePersisting, StateFailed},
	StateMapping:    {StateFetching, StatePersisting, StateFailed},
	StatePersisting: {StateFetching, StateSucceeded, StateFailed},
}

// attemptState tracks one attempt through the state machine.
type attemptState struct {
	current State
}

// transition moves to next, rejecting anything the machine does not allow.
func (a *attemptState) transition(next State) error {
	if !slices.Contains(allowedTransitions[a.current], next) {
		return fmt.Errorf("invalid attempt transition %s -> %s", a.current, next)
	}
	a.current = next
	return nil
}
