package risk

import "riskengine/src/model"

// Resolve applies the override precedence strategy -> account -> defaults.
// Either profile may be nil.
func (l Limits) Resolve(strategy, account *model.RiskProfile) Limits {
	out := l
	for _, p := range []*model.RiskProfile{account, strategy} {
		if p == nil {
			continue
		}
		if p.DailyLossLimit != nil {
			out.DailyLossLimit = *p.DailyLossLimit
		}
		if p.MaxDrawdownLimit != nil {
			out.MaxDrawdownLimit = *p.MaxDrawdownLimit
		}
		if p.MaxPositions != nil {
			out.MaxPositions = *p.MaxPositions
		}
		if p.MaxExposure != nil {
			out.MaxExposure = *p.MaxExposure
		}
	}
	return out
}
