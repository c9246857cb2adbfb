package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Control is a live, customer-scoped security control. Usually materialized
// from a LibraryControl by provisioning, but can be created directly.
type Control struct {
	gorm.Model
	CustomerID uint `gorm:"not null;index"`
	Customer   Customer

	LibraryControlID *uint // nil for controls created by hand

	Name        string `gorm:"size:255;not null"`
	Standard    string `gorm:"size:128"`
	Description string `gorm:"type:text"`

	Implemented bool    `gorm:"not null;default:false"`
	Coverage    float64 `gorm:"not null;default:0"` // share of scope covered, 0..1
	Maturity    int     `gorm:"not null;default:0"`

	EvidenceID     *uint
	Evidence       *Evidence
	EvidenceWeight float64 `gorm:"not null;default:0"` // 0..1
	Freshness      float64 `gorm:"not null;default:0"` // 0..1

	CostTotalEur float64 `gorm:"not null;default:0"`
	DeltaRiskEur float64 `gorm:"not null;default:0"`
	Score        float64 `gorm:"not null;default:0"`

	Status  ControlStatus `gorm:"type:varchar(20);not null;default:''"`
	DueDate *time.Time

	Scenarios  []Scenario `gorm:"many2many:control_scenarios"`
	Tags       []string   `gorm:"serializer:json"`
	Industries []string   `gorm:"serializer:json"`

	Version   int    `gorm:"not null;default:0"` // optimistic concurrency token
	DeletedBy string `gorm:"size:255"`
}

// Validate checks the numeric invariants. Called before any persist.
func (c *Control) Validate() error {
	var reasons []string
	if c.Coverage < 0 || c.Coverage > 1 {
		reasons = append(reasons, fmt.Sprintf("coverage %v outside [0,1]", c.Coverage))
	}
	if c.Maturity < 0 {
		reasons = append(reasons, fmt.Sprintf("maturity %d negative", c.Maturity))
	}
	if c.EvidenceWeight < 0 || c.EvidenceWeight > 1 {
		reasons = append(reasons, fmt.Sprintf("evidence weight %v outside [0,1]", c.EvidenceWeight))
	}
	if c.Freshness < 0 || c.Freshness > 1 {
		reasons = append(reasons, fmt.Sprintf("freshness %v outside [0,1]", c.Freshness))
	}
	if c.CostTotalEur < 0 {
		reasons = append(reasons, fmt.Sprintf("cost %v negative", c.CostTotalEur))
	}
	if len(reasons) > 0 {
		return &InvariantError{Reasons: reasons}
	}
	return nil
}

// NewControl builds a hand-created control in the pseudo-initial status.
func NewControl(customerID uint, name string) (*Control, error) {
	if name == "" {
		return nil, invariantf("control name must not be empty")
	}
	return &Control{
		CustomerID: customerID,
		Name:       name,
		Status:     StatusNone,
	}, nil
}

// FromLibraryControl copies the template fields into a new live control for
// the given customer. Status starts in the pseudo-initial state; cost
// defaults to template opex+capex.
func FromLibraryControl(tpl *LibraryControl, customerID uint) *Control {
	return &Control{
		CustomerID:       customerID,
		LibraryControlID: &tpl.ID,
		Name:             tpl.Name,
		Standard:         tpl.Standard,
		Description:      tpl.Description,
		CostTotalEur:     tpl.BaselineOpexEur + tpl.BaselineCapexEur,
		Status:           StatusNone,
	}
}

// ActivationFailures collects every unmet activation precondition. Empty
// result means the control may enter the active status.
func (c *Control) ActivationFailures(asOf time.Time, evidence EvidenceLookup) ([]string, error) {
	var reasons []string
	if !c.Implemented {
		reasons = append(reasons, "control is not implemented")
	}
	if c.Coverage <= 0 {
		reasons = append(reasons, "coverage must be greater than zero")
	}
	if c.EvidenceWeight <= 0 {
		reasons = append(reasons, "evidence weight must be greater than zero")
	}
	if c.Freshness <= 0 {
		reasons = append(reasons, "evidence freshness must be greater than zero")
	}
	if c.EvidenceID != nil {
		if evidence == nil {
			reasons = append(reasons, "evidence attached but no lookup available")
		} else {
			validUntil, ok, err := evidence.EvidenceValidUntil(*c.EvidenceID)
			switch {
			case err != nil:
				return nil, err
			case !ok:
				reasons = append(reasons, fmt.Sprintf("evidence %d not found", *c.EvidenceID))
			case validUntil != nil && validUntil.Before(asOf):
				reasons = append(reasons, fmt.Sprintf("evidence %d expired on %s", *c.EvidenceID, validUntil.Format("2006-01-02")))
			}
		}
	}
	return reasons, nil
}

// IsReadyForActivation reports whether all activation preconditions hold.
func (c *Control) IsReadyForActivation(asOf time.Time, evidence EvidenceLookup) (bool, error) {
	reasons, err := c.ActivationFailures(asOf, evidence)
	if err != nil {
		return false, err
	}
	return len(reasons) == 0, nil
}

// CanTransitionTo checks both the transition table and, for the active
// target, activation readiness. Returns nil when the transition is legal.
func (c *Control) CanTransitionTo(target ControlStatus, asOf time.Time, evidence EvidenceLookup) error {
	if _, known := statusTransitions[target]; !known {
		return invariantf("unknown status %q", target)
	}
	if !transitionAllowed(c.Status, target) {
		return invariantf("transition %q -> %q is not allowed", c.Status, target)
	}
	if target == StatusActive {
		reasons, err := c.ActivationFailures(asOf, evidence)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			return &InvariantError{Reasons: reasons}
		}
	}
	return nil
}

// TransitionTo applies a status change after checking legality. Entering
// active force-sets the implementation flag. No cascades to scenarios,
// todos or evidence.
func (c *Control) TransitionTo(target ControlStatus, asOf time.Time, evidence EvidenceLookup) error {
	if err := c.CanTransitionTo(target, asOf, evidence); err != nil {
		return err
	}
	if target == StatusActive && !c.Implemented {
		c.Implemented = true
	}
	c.Status = target
	c.UpdatedAt = time.Now()
	return nil
}

// SetTags replaces the tag set.
func (c *Control) SetTags(tags []string) {
	c.Tags = append([]string(nil), tags...)
	c.UpdatedAt = time.Now()
}

// SetIndustries replaces the industry classification set.
func (c *Control) SetIndustries(industries []string) {
	c.Industries = append([]string(nil), industries...)
	c.UpdatedAt = time.Now()
}

// SetScenarios replaces the attached scenario set. Every scenario must
// belong to the control's customer.
func (c *Control) SetScenarios(scenarios []Scenario) error {
	for _, s := range scenarios {
		if s.CustomerID != c.CustomerID {
			return invariantf("scenario %d belongs to customer %d, not %d", s.ID, s.CustomerID, c.CustomerID)
		}
	}
	c.Scenarios = append([]Scenario(nil), scenarios...)
	c.UpdatedAt = time.Now()
	return nil
}
