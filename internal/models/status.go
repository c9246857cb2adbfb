package models

import "strings"

type ControlStatus string

const (
	// StatusNone is the pseudo-initial state of a freshly materialized
	// control before anyone places it into the workflow.
	StatusNone       ControlStatus = ""
	StatusProposed   ControlStatus = "proposed"
	StatusPlanned    ControlStatus = "planned"
	StatusInProgress ControlStatus = "in_progress"
	StatusBlocked    ControlStatus = "blocked"
	StatusActive     ControlStatus = "active"
	StatusRetired    ControlStatus = "retired"
)

// statusTransitions is the directed graph of legal status changes.
// Retired is terminal. Never mutated at runtime, safe to share.
var statusTransitions = map[ControlStatus][]ControlStatus{
	StatusNone:       {StatusProposed, StatusPlanned, StatusInProgress},
	StatusProposed:   {StatusPlanned, StatusInProgress, StatusBlocked, StatusActive, StatusRetired},
	StatusPlanned:    {StatusInProgress, StatusBlocked, StatusRetired},
	StatusInProgress: {StatusBlocked, StatusActive, StatusRetired},
	StatusBlocked:    {StatusInProgress, StatusRetired},
	StatusActive:     {StatusRetired},
	StatusRetired:    {},
}

// ParseControlStatus canonicalizes user input to a known status.
// The empty string parses to the pseudo-initial state.
func ParseControlStatus(s string) (ControlStatus, bool) {
	st := ControlStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := statusTransitions[st]
	return st, ok
}

// AllowedTransitions returns the legal next statuses from the given one.
func AllowedTransitions(from ControlStatus) []ControlStatus {
	next := statusTransitions[from]
	out := make([]ControlStatus, len(next))
	copy(out, next)
	return out
}

func transitionAllowed(from, to ControlStatus) bool {
	for _, n := range statusTransitions[from] {
		if n == to {
			return true
		}
	}
	return false
}
