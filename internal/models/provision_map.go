package models

import "gorm.io/gorm"

// Idempotency records for provisioning. These rows are the sole source of
// truth for "has this template already been materialized for this
// customer"; the unique indexes are what make concurrent provisioning
// converge on a single live entity.

type ProvisionedScenarioMap struct {
	gorm.Model

	CustomerID        uint `gorm:"not null;uniqueIndex:ux_prov_scenario"`
	LibraryScenarioID uint `gorm:"not null;uniqueIndex:ux_prov_scenario"`
	ScenarioID        uint `gorm:"not null"`

	Customer        Customer
	LibraryScenario LibraryScenario
	Scenario        Scenario
}

type ProvisionedControlMap struct {
	gorm.Model

	CustomerID       uint  `gorm:"not null;uniqueIndex:ux_prov_control"`
	LibraryControlID uint  `gorm:"not null;uniqueIndex:ux_prov_control"`
	ScenarioID       *uint `gorm:"uniqueIndex:ux_prov_control"` // nil for scenario-less controls
	ControlID        uint  `gorm:"not null"`

	Customer       Customer
	LibraryControl LibraryControl
	Control        Control
}
