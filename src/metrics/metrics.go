// Package metrics computes performance statistics over realized trades.
// Every function is pure; trades are expected in exit-time order.
package metrics

import (
	"math"
	"time"

	"riskengine/src/model"
)

const (
	// ReturnScale converts trade PnL into the per-trade return unit.
	ReturnScale = 100000
	// TradingDaysPerYear annualizes per-trade Sharpe and Sortino.
	TradingDaysPerYear = 252
)

// Calculate returns the aggregate statistics of trades. Empty input yields
// the zero value.
func Calculate(trades []model.Trade) model.PerformanceMetrics {
	var m model.PerformanceMetrics
	n := len(trades)
	if n == 0 {
		return m
	}

	var (
		grossWin, grossLoss float64
		holdTotal           time.Duration
		runningWins         int
		runningLosses       int
		returns             = make([]float64, 0, n)
	)

	m.TotalTrades = n
	m.LargestWin = trades[0].PnL
	m.LargestLoss = trades[0].PnL

	for _, t := range trades {
		m.TotalReturn += t.PnL
		m.TotalCommission += t.Commission
		holdTotal += t.ExitTime.Sub(t.EntryTime)
		returns = append(returns, t.PnL/ReturnScale)

		if t.PnL > m.LargestWin {
			m.LargestWin = t.PnL
		}
		if t.PnL < m.LargestLoss {
			m.LargestLoss = t.PnL
		}

		switch {
		case t.PnL > 0:
			m.WinningTrades++
			grossWin += t.PnL
			runningWins++
			runningLosses = 0
		case t.PnL < 0:
			m.LosingTrades++
			grossLoss += t.PnL
			runningLosses++
			runningWins = 0
		default:
			runningWins, runningLosses = 0, 0
		}

		if runningWins > m.ConsecutiveWins {
			m.ConsecutiveWins = runningWins
		}
		if runningLosses > m.ConsecutiveLosses {
			m.ConsecutiveLosses = runningLosses
		}
	}

	m.WinRate = finite(float64(m.WinningTrades) / float64(n) * 100)
	m.AverageTrade = finite(m.TotalReturn / float64(n))
	m.AverageHoldTime = holdTotal / time.Duration(n)

	if m.WinningTrades > 0 && m.LosingTrades > 0 {
		avgWin := grossWin / float64(m.WinningTrades)
		avgLoss := math.Abs(grossLoss / float64(m.LosingTrades))
		m.ProfitFactor = ratio(avgWin, avgLoss)
	}

	m.MaxDrawdown = maxDrawdown(trades)
	m.SharpeRatio = sharpe(returns)
	m.SortinoRatio = sortino(returns)

	m.TotalReturn = finite(m.TotalReturn)
	m.TotalCommission = finite(m.TotalCommission)
	m.LargestWin = finite(m.LargestWin)
	m.LargestLoss = finite(m.LargestLoss)

	return m
}

// maxDrawdown is the largest peak-to-trough fall of the running PnL total,
// as a percentage of ReturnScale. The peak starts at zero.
func maxDrawdown(trades []model.Trade) float64 {
	var running, peak, worst float64
	for _, t := range trades {
		running += t.PnL
		if running > peak {
			peak = running
		}
		if dd := peak - running; dd > worst {
			worst = dd
		}
	}
	return finite(worst / ReturnScale * 100)
}

func sharpe(returns []float64) float64 {
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return finite(mean(returns) / sd * math.Sqrt(TradingDaysPerYear))
}

func sortino(returns []float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	sd := stddev(downside)
	if sd == 0 {
		return 0
	}
	return finite(mean(returns) / sd * math.Sqrt(TradingDaysPerYear))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
