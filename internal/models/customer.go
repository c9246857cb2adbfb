package models

import "gorm.io/gorm"

type Customer struct {
	gorm.Model
	Name         string `gorm:"size:255;not null"` // legal entity name
	OrgType      string `gorm:"size:100"`          // bank, public sector, critical infra etc.
	Industry     string `gorm:"size:100"`
	ContactName  string `gorm:"size:255"`
	ContactEmail string `gorm:"size:255"`
	ContactPhone string `gorm:"size:50"`
	Notes        string `gorm:"type:text"`

	Scenarios []Scenario
	Controls  []Control
}
