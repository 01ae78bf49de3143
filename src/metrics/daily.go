package metrics

import (
	"sort"
	"time"

	"riskengine/src/model"
)

const dateLayout = "2006-01-02"

// Daily buckets trades by the UTC date of their exit and returns the series
// ordered by date. Drawdown is the fall from the cumulative peak as a percent
// of that peak, and stays 0 while the peak is not positive.
func Daily(trades []model.Trade) []model.DailyReturn {
	if len(trades) == 0 {
		return nil
	}

	byDate := make(map[string]float64)
	for _, t := range trades {
		byDate[t.ExitTime.UTC().Format(dateLayout)] += t.PnL
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]model.DailyReturn, 0, len(dates))
	var cumulative, peak float64
	for _, d := range dates {
		pnl := byDate[d]
		cumulative += pnl
		if cumulative > peak {
			peak = cumulative
		}
		var dd float64
		if peak > 0 {
			dd = finite((peak - cumulative) / peak * 100)
		}
		out = append(out, model.DailyReturn{
			Date:       d,
			PnL:        finite(pnl),
			Cumulative: finite(cumulative),
			Drawdown:   dd,
		})
	}
	return out
}

// Since keeps trades that exited at or after now-lookback. A non-positive
// lookback keeps everything.
func Since(trades []model.Trade, lookback time.Duration, now time.Time) []model.Trade {
	if lookback <= 0 {
		return trades
	}
	cutoff := now.Add(-lookback)
	out := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.ExitTime.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// ByStrategy groups trades per strategy and reports each group, ordered by
// strategy id.
func ByStrategy(trades []model.Trade) []model.StrategyReport {
	groups := make(map[uint][]model.Trade)
	for _, t := range trades {
		groups[t.StrategyID] = append(groups[t.StrategyID], t)
	}

	ids := make([]uint, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reports := make([]model.StrategyReport, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, model.StrategyReport{
			StrategyID: id,
			Metrics:    Calculate(groups[id]),
			Daily:      Daily(groups[id]),
		})
	}
	return reports
}
