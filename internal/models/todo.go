package models

import (
	"time"

	"gorm.io/gorm"
)

type ToDoStatus string

const (
	ToDoOpen       ToDoStatus = "todo"
	ToDoInProgress ToDoStatus = "in_progress"
	ToDoDone       ToDoStatus = "done"
	ToDoBlocked    ToDoStatus = "blocked"
	ToDoCanceled   ToDoStatus = "canceled"
)

// ToDo is a remediation task. Belongs to exactly one control; may depend on
// another ToDo of the same control (see dependency.go).
type ToDo struct {
	gorm.Model
	ControlID uint `gorm:"not null;index"`
	Control   Control

	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`

	EffortInternalDays float64 `gorm:"not null;default:0"`
	EffortExternalDays float64 `gorm:"not null;default:0"`

	StartDate *time.Time
	EndDate   *time.Time

	Status   ToDoStatus `gorm:"type:varchar(20);not null;default:'todo'"`
	Assignee string     `gorm:"size:255"`

	DependsOnID *uint // parent task that must finish first

	DeletedBy string `gorm:"size:255"`
}

// NewToDo builds a task in the open status after validating efforts.
func NewToDo(controlID uint, title string, effortInternal, effortExternal float64) (*ToDo, error) {
	if title == "" {
		return nil, invariantf("todo title must not be empty")
	}
	if effortInternal < 0 || effortExternal < 0 {
		return nil, invariantf("effort days must not be negative (internal=%v external=%v)", effortInternal, effortExternal)
	}
	return &ToDo{
		ControlID:          controlID,
		Title:              title,
		EffortInternalDays: effortInternal,
		EffortExternalDays: effortExternal,
		Status:             ToDoOpen,
	}, nil
}

// TotalEffortDays is internal plus external effort.
func (t *ToDo) TotalEffortDays() float64 {
	return t.EffortInternalDays + t.EffortExternalDays
}

// Schedule sets the start/end window. End must not precede start when both
// are present; either side may be nil to leave it open.
func (t *ToDo) Schedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invariantf("end date %s precedes start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	t.StartDate = start
	t.EndDate = end
	t.UpdatedAt = time.Now()
	return nil
}

// MarkDone completes the task, stamping the end date if none is set.
func (t *ToDo) MarkDone(at time.Time) error {
	if t.Status == ToDoCanceled {
		return invariantf("canceled todo %d cannot be completed", t.ID)
	}
	t.Status = ToDoDone
	if t.EndDate == nil {
		t.EndDate = &at
	}
	t.UpdatedAt = time.Now()
	return nil
}

// ParseToDoStatus canonicalizes user input to a known task status.
func ParseToDoStatus(s string) (ToDoStatus, bool) {
	switch st := ToDoStatus(s); st {
	case ToDoOpen, ToDoInProgress, ToDoDone, ToDoBlocked, ToDoCanceled:
		return st, true
	}
	return "", false
}
