package risk

import (
	"riskengine/src/model"
)

// Status reports utilisation against the limits that would apply to a
// signal for this account with no strategy override.
func (g *Gate) Status(snap Snapshot) model.RiskStatus {
	g.mu.Lock()
	stopped := g.state == StateEmergencyStopped
	now := g.now()
	g.mu.Unlock()

	status := model.RiskStatus{
		EmergencyStopped: stopped,
		AsOf:             now,
	}

	session := g.calendar.At(now)
	status.Session = string(session.Session)
	status.NoTradeWindow = session.NoTradeWindow
	status.SizeMultiplier = session.SizeMultiplier.InexactFloat64()

	var profile *model.RiskProfile
	if snap.Account != nil {
		status.AccountID = snap.Account.ID
		profile = &snap.Account.RiskProfile
	}
	limits := g.limits.Resolve(nil, profile)
	status.DailyLossLimit = limits.DailyLossLimit
	status.MaxDrawdownLimit = limits.MaxDrawdownLimit
	status.MaxExposure = limits.MaxExposure
	status.MaxPositions = limits.MaxPositions

	if snap.Account == nil {
		return status
	}

	if net := dailyRealized(snap.Fills, snap.Account.ID, now); net < 0 {
		status.DailyLossUsed = -net
	}
	status.MaxDrawdown = drawdownPct(snap.Account)

	open := openPositions(snap.OpenPositions)
	status.PositionCount = len(open)
	status.TotalExposure = exposure(open)

	return status
}
