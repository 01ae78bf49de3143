package model

import "time"

const (
	RiskLevelInfo     = "INFO"
	RiskLevelWarning  = "WARNING"
	RiskLevelCritical = "CRITICAL"
)

const (
	RiskActionBlocked       = "blocked"
	RiskActionEmergencyStop = "emergency_stop"
	RiskActionResumed       = "resumed"
)

// RiskEvent is the append-only audit record written for every rejected
// signal and every emergency-stop transition.
type RiskEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Reference  string    `gorm:"size:36;uniqueIndex" json:"reference"`
	AccountID  uint      `gorm:"index" json:"account_id"`
	StrategyID uint      `gorm:"index" json:"strategy_id"`
	Level      string    `gorm:"size:20;not null;index" json:"level"`
	Rule       string    `gorm:"size:50;not null" json:"rule"`
	Action     string    `gorm:"size:50;not null" json:"action"`
	Message    string    `gorm:"size:1024" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (RiskEvent) TableName() string {
	return "risk_events"
}
