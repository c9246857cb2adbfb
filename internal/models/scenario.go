package models

import "gorm.io/gorm"

// Scenario is a live, customer-scoped risk scenario. Usually materialized
// from a LibraryScenario by provisioning, but can be created directly.
// Frequency/impact may diverge from the template after creation.
type Scenario struct {
	gorm.Model
	CustomerID uint `gorm:"not null;index"`
	Customer   Customer

	LibraryScenarioID *uint // nil for scenarios created by hand

	Name        string `gorm:"size:255;not null"`
	Category    string `gorm:"size:64"`
	Description string `gorm:"type:text"`

	FrequencyPerYear float64 `gorm:"not null;default:0"`
	ImpactEur        float64 `gorm:"not null;default:0"`

	Tags []string `gorm:"serializer:json"`

	DeletedBy string `gorm:"size:255"`
}

// FromLibraryScenario copies the template fields into a new live scenario
// for the given customer.
func FromLibraryScenario(tpl *LibraryScenario, customerID uint) *Scenario {
	return &Scenario{
		CustomerID:        customerID,
		LibraryScenarioID: &tpl.ID,
		Name:              tpl.Name,
		Category:          tpl.Category,
		Description:       tpl.Description,
		FrequencyPerYear:  tpl.FrequencyPerYear,
		ImpactEur:         tpl.ImpactEur,
		Tags:              append([]string(nil), tpl.Tags...),
	}
}
