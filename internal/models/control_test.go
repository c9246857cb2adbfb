package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvidence map[uint]*time.Time

func (s stubEvidence) EvidenceValidUntil(id uint) (*time.Time, bool, error) {
	validUntil, ok := s[id]
	return validUntil, ok, nil
}

func uintPtr(v uint) *uint { return &v }

// TestActivationGate_NotImplemented verifies a control that is not
// implemented can never reach active, whatever the other fields say.
func TestActivationGate_NotImplemented(t *testing.T) {
	c := readyControl(StatusInProgress)
	c.Implemented = false

	err := c.TransitionTo(StatusActive, time.Now(), nil)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Equal(t, StatusInProgress, c.Status)
	assert.False(t, c.Implemented)
}

func TestActivationGate_AllReasonsReported(t *testing.T) {
	c := &Control{Status: StatusInProgress} // nothing satisfied

	reasons, err := c.ActivationFailures(time.Now(), nil)
	require.NoError(t, err)
	assert.Len(t, reasons, 4, "implemented, coverage, weight and freshness must all be reported")
}

func TestActivationGate_ReadyWithoutEvidence(t *testing.T) {
	c := readyControl(StatusInProgress)

	ready, err := c.IsReadyForActivation(time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, c.TransitionTo(StatusActive, time.Now(), nil))
	assert.Equal(t, StatusActive, c.Status)
}

func TestActivationGate_EvidenceExpiry(t *testing.T) {
	now := time.Now()
	expired := now.Add(-24 * time.Hour)
	valid := now.Add(24 * time.Hour)

	lookup := stubEvidence{
		1: &expired,
		2: &valid,
		3: nil, // never expires
	}

	c := readyControl(StatusInProgress)
	c.EvidenceID = uintPtr(1)
	ready, err := c.IsReadyForActivation(now, lookup)
	require.NoError(t, err)
	assert.False(t, ready, "expired evidence must block activation")

	c.EvidenceID = uintPtr(2)
	ready, err = c.IsReadyForActivation(now, lookup)
	require.NoError(t, err)
	assert.True(t, ready)

	c.EvidenceID = uintPtr(3)
	ready, err = c.IsReadyForActivation(now, lookup)
	require.NoError(t, err)
	assert.True(t, ready, "evidence without expiry is always valid")

	c.EvidenceID = uintPtr(99)
	ready, err = c.IsReadyForActivation(now, lookup)
	require.NoError(t, err)
	assert.False(t, ready, "missing evidence record must block activation")
}

func TestTransitionTo_ActiveForcesImplemented(t *testing.T) {
	c := readyControl(StatusProposed)
	require.NoError(t, c.TransitionTo(StatusActive, time.Now(), nil))
	assert.True(t, c.Implemented)
}

func TestFromLibraryControl_CopiesTemplate(t *testing.T) {
	tpl := &LibraryControl{
		Name:             "Disk encryption",
		Standard:         "ISO 27001 A.8.24",
		BaselineOpexEur:  100,
		BaselineCapexEur: 50,
	}
	tpl.ID = 7

	c := FromLibraryControl(tpl, 42)
	assert.Equal(t, uint(42), c.CustomerID)
	require.NotNil(t, c.LibraryControlID)
	assert.Equal(t, uint(7), *c.LibraryControlID)
	assert.Equal(t, 150.0, c.CostTotalEur, "cost defaults to opex+capex")
	assert.Equal(t, StatusNone, c.Status, "materialized controls start unset")
	assert.False(t, c.Implemented)
}

func TestSetScenarios_RejectsForeignCustomer(t *testing.T) {
	c := &Control{CustomerID: 1}
	foreign := Scenario{CustomerID: 2}
	foreign.ID = 10

	err := c.SetScenarios([]Scenario{foreign})
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Empty(t, c.Scenarios)
}

func TestControlValidate(t *testing.T) {
	c := &Control{Coverage: 1.5, Maturity: -1, EvidenceWeight: -0.1}
	err := c.Validate()
	require.Error(t, err)

	ie, ok := err.(*InvariantError)
	require.True(t, ok)
	assert.Len(t, ie.Reasons, 3)

	ok2 := (&Control{Coverage: 0.5}).Validate()
	assert.NoError(t, ok2)
}
