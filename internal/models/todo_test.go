package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToDo_NegativeEffortRejected(t *testing.T) {
	_, err := NewToDo(1, "patch servers", -1, 0)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))

	_, err = NewToDo(1, "patch servers", 0, -0.5)
	require.Error(t, err)

	todo, err := NewToDo(1, "patch servers", 2, 3.5)
	require.NoError(t, err)
	assert.Equal(t, 5.5, todo.TotalEffortDays())
	assert.Equal(t, ToDoOpen, todo.Status)
}

func TestSchedule_EndBeforeStartRejected(t *testing.T) {
	todo, err := NewToDo(1, "rollout MFA", 1, 0)
	require.NoError(t, err)

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	err = todo.Schedule(&start, &end)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Nil(t, todo.StartDate)
	assert.Nil(t, todo.EndDate)

	// open-ended windows are fine
	require.NoError(t, todo.Schedule(&start, nil))
	require.NoError(t, todo.Schedule(nil, &end))
}

func TestMarkDone(t *testing.T) {
	todo, err := NewToDo(1, "rollout MFA", 1, 0)
	require.NoError(t, err)

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, todo.MarkDone(at))
	assert.Equal(t, ToDoDone, todo.Status)
	require.NotNil(t, todo.EndDate)
	assert.Equal(t, at, *todo.EndDate)

	canceled, _ := NewToDo(1, "dropped", 1, 0)
	canceled.Status = ToDoCanceled
	assert.Error(t, canceled.MarkDone(at))
}

func TestParseToDoStatus(t *testing.T) {
	st, ok := ParseToDoStatus("in_progress")
	require.True(t, ok)
	assert.Equal(t, ToDoInProgress, st)

	_, ok = ParseToDoStatus("paused")
	assert.False(t, ok)
}
