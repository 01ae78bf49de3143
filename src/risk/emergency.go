package risk

import (
	"context"
	"errors"
	"fmt"

	"riskengine/src/model"
)

var ErrNotStopped = errors.New("risk gate is not emergency stopped")

// EmergencyStop moves the gate to StateEmergencyStopped and marks every open
// position closed. The transition always happens; marking failures are
// collected and returned together after all positions have been attempted.
func (g *Gate) EmergencyStop(ctx context.Context, reason string) error {
	g.mu.Lock()
	g.state = StateEmergencyStopped
	now := g.now()
	g.mu.Unlock()

	log := g.logger.WithField("reason", reason)
	log.Error("emergency stop activated")

	var errs []error
	attempted, closed := 0, 0
	if g.positions != nil {
		open, err := g.positions.ListOpen(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("list open positions: %w", err))
		}
		for _, p := range open {
			attempted++
			if err := g.positions.MarkClosed(ctx, p.ID, model.CloseReasonEmergencyStop); err != nil {
				log.WithError(err).WithField("position_id", p.ID).Error("failed to close position")
				errs = append(errs, fmt.Errorf("close position %d: %w", p.ID, err))
				continue
			}
			closed++
		}
	}

	msg := fmt.Sprintf("Emergency stop: %s (closed %d of %d open positions)", reason, closed, attempted)
	g.mu.Lock()
	ev := g.newEvent(now, 0, 0, model.RiskLevelCritical, RuleEmergencyStop, model.RiskActionEmergencyStop, msg)
	g.remember(ev)
	g.mu.Unlock()

	g.dispatch(ctx, ev)
	return errors.Join(errs...)
}

// Resume is the operator reset back to StateActive.
func (g *Gate) Resume(ctx context.Context, operator string) error {
	g.mu.Lock()
	if g.state != StateEmergencyStopped {
		g.mu.Unlock()
		return ErrNotStopped
	}
	g.state = StateActive
	ev := g.newEvent(g.now(), 0, 0, model.RiskLevelInfo, RuleEmergencyStop, model.RiskActionResumed, fmt.Sprintf("Trading resumed by %s", operator))
	g.remember(ev)
	g.mu.Unlock()

	g.logger.WithField("operator", operator).Warn("emergency stop cleared")
	g.dispatch(ctx, ev)
	return nil
}
