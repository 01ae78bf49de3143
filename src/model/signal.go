package model

// Signal is a proposed trade submitted for a pre-trade risk check.
type Signal struct {
	AccountID  uint     `json:"account_id"`
	StrategyID uint     `json:"strategy_id"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Quantity   float64  `json:"quantity"`
	Price      *float64 `json:"price,omitempty"`
}

// RiskCheckResult is consumed by the order-submission collaborator.
type RiskCheckResult struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
	Rule     string `json:"rule,omitempty"`
	// SuggestedQuantity is the signal quantity sized for the current
	// session. Set on approval only.
	SuggestedQuantity *float64 `json:"suggested_quantity,omitempty"`
}
