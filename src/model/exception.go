package model

import "time"

// Exception is a persisted failure of a best-effort side effect, kept for
// auditing and debugging.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"` // e.g. "risk_service"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "risk_gate"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "notify"

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack"`

	Level string `gorm:"size:20;index" json:"level"` // debug | info | warn | error | fatal

	// Context is a JSON document with extra fields, may be empty.
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
