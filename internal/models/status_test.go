package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyControl is fully activation-ready so status tests exercise only the
// transition table.
func readyControl(from ControlStatus) *Control {
	return &Control{
		Status:         from,
		Implemented:    true,
		Coverage:       0.8,
		EvidenceWeight: 0.5,
		Freshness:      0.5,
	}
}

// TestTransitionTable_Legality sweeps every (from, to) pair and checks it
// against the expected graph. Anything not listed must fail and leave the
// status unchanged.
func TestTransitionTable_Legality(t *testing.T) {
	all := []ControlStatus{StatusNone, StatusProposed, StatusPlanned,
		StatusInProgress, StatusBlocked, StatusActive, StatusRetired}

	allowed := map[ControlStatus]map[ControlStatus]bool{
		StatusNone:       {StatusProposed: true, StatusPlanned: true, StatusInProgress: true},
		StatusProposed:   {StatusPlanned: true, StatusInProgress: true, StatusBlocked: true, StatusActive: true, StatusRetired: true},
		StatusPlanned:    {StatusInProgress: true, StatusBlocked: true, StatusRetired: true},
		StatusInProgress: {StatusBlocked: true, StatusActive: true, StatusRetired: true},
		StatusBlocked:    {StatusInProgress: true, StatusRetired: true},
		StatusActive:     {StatusRetired: true},
		StatusRetired:    {},
	}

	now := time.Now()
	for _, from := range all {
		for _, to := range all {
			c := readyControl(from)
			err := c.TransitionTo(to, now, nil)
			if allowed[from][to] {
				assert.NoError(t, err, "expected %q -> %q to be legal", from, to)
				assert.Equal(t, to, c.Status)
			} else {
				assert.Error(t, err, "expected %q -> %q to be illegal", from, to)
				assert.Equal(t, from, c.Status, "failed transition must not change status")
			}
		}
	}
}

func TestTransitionTo_UnknownStatus(t *testing.T) {
	c := readyControl(StatusProposed)
	err := c.TransitionTo("destroyed", time.Now(), nil)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Equal(t, StatusProposed, c.Status)
}

func TestTransitionTo_RetiredIsTerminal(t *testing.T) {
	for _, to := range []ControlStatus{StatusProposed, StatusPlanned,
		StatusInProgress, StatusBlocked, StatusActive} {
		c := readyControl(StatusRetired)
		err := c.TransitionTo(to, time.Now(), nil)
		assert.Error(t, err, "retired must not re-enter %q", to)
	}
}

func TestParseControlStatus(t *testing.T) {
	st, ok := ParseControlStatus("  In_Progress ")
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, st)

	st, ok = ParseControlStatus("")
	require.True(t, ok, "empty string is the pseudo-initial state")
	assert.Equal(t, StatusNone, st)

	_, ok = ParseControlStatus("bogus")
	assert.False(t, ok)
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	first := AllowedTransitions(StatusBlocked)
	require.NotEmpty(t, first)
	first[0] = "tampered"

	again := AllowedTransitions(StatusBlocked)
	assert.NotEqual(t, ControlStatus("tampered"), again[0], "table must be immutable")
}
