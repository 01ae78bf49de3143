package model

import "time"

type Strategy struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	AccountID   uint        `gorm:"not null;index" json:"account_id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"size:512" json:"description"`
	Active      bool        `gorm:"not null" json:"active"`
	RiskProfile RiskProfile `gorm:"embedded;embeddedPrefix:risk_" json:"risk_profile"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}
