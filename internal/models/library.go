package models

import "gorm.io/gorm"

// Catalog of reusable risk scenarios. Never customer-scoped; curated
// centrally and read-only to provisioning.
type LibraryScenario struct {
	gorm.Model
	Code        string `gorm:"size:32;uniqueIndex"` // e.g. LS-PHISHING-01
	Name        string `gorm:"size:255;not null"`
	Category    string `gorm:"size:64"` // STRIDE, ransomware, insider etc.
	Description string `gorm:"type:text"`

	FrequencyPerYear float64 `gorm:"not null;default:0"` // baseline occurrences/year
	ImpactEur        float64 `gorm:"not null;default:0"` // baseline loss per occurrence

	Tags []string `gorm:"serializer:json"`
}

// Catalog of reusable controls. A control template references the scenario
// templates it mitigates.
type LibraryControl struct {
	gorm.Model
	Code        string `gorm:"size:32;uniqueIndex"`
	Name        string `gorm:"size:255;not null"`
	Standard    string `gorm:"size:128"` // ISO 27001, NIST CSF, BSI etc.
	Description string `gorm:"type:text"`

	BaselineOpexEur    float64 `gorm:"not null;default:0"`
	BaselineCapexEur   float64 `gorm:"not null;default:0"`
	EffortInternalDays float64 `gorm:"not null;default:0"`
	EffortExternalDays float64 `gorm:"not null;default:0"`

	Scenarios []LibraryScenario `gorm:"many2many:library_control_scenarios"`
}
