package models

import (
	"time"

	"gorm.io/gorm"
)

// Evidence backs a control's implementation claim (policy document, scan
// report, pentest attestation). ValidUntil nil means it never expires.
type Evidence struct {
	gorm.Model
	Name       string `gorm:"size:255;not null"`
	URI        string `gorm:"size:1024"`
	ValidUntil *time.Time
}

// EvidenceLookup resolves an evidence id to its expiry for activation
// checks. Implemented by the database package; stubbed in tests.
type EvidenceLookup interface {
	// EvidenceValidUntil returns the expiry (nil = no expiry) and whether
	// the evidence exists at all.
	EvidenceValidUntil(id uint) (*time.Time, bool, error)
}
