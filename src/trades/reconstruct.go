// Package trades turns a time-ordered stream of fills into realized round trips.
package trades

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"riskengine/src/model"
)

const (
	// ContractMultiplier scales a price move on one lot into account currency.
	ContractMultiplier = 100000
	// CloseEpsilon is the net quantity below which a position counts as flat.
	CloseEpsilon = 0.001
)

var (
	contractMultiplier = decimal.NewFromInt(ContractMultiplier)
	closeEpsilon       = decimal.NewFromFloat(CloseEpsilon)
)

type positionKey struct {
	symbol     string
	strategyID uint
}

type openPosition struct {
	accountID  uint
	strategyID uint
	symbol     string
	side       string
	quantity   decimal.Decimal
	entryPrice decimal.Decimal
	entryTime  time.Time
	lastPrice  float64
	fills      []model.Fill
}

func (p *openPosition) commission() float64 {
	total := decimal.Zero
	for _, f := range p.fills {
		total = total.Add(decimal.NewFromFloat(f.Commission))
	}
	return total.InexactFloat64()
}

// book holds the open positions during one scan. Keys are kept in opening
// order so the result of OpenPositions is deterministic.
type book struct {
	open   map[positionKey]*openPosition
	order  []positionKey
	counts map[positionKey]int
	trades []model.Trade
}

func newBook() *book {
	return &book{
		open:   make(map[positionKey]*openPosition),
		counts: make(map[positionKey]int),
	}
}

func (b *book) apply(f model.Fill) {
	if !f.IsFilled() {
		return
	}

	key := positionKey{symbol: f.Symbol, strategyID: f.StrategyID}
	qty := decimal.NewFromFloat(f.Quantity)
	price := decimal.NewFromFloat(f.AvgFillPrice)

	pos, ok := b.open[key]
	if !ok {
		b.open[key] = &openPosition{
			accountID:  f.AccountID,
			strategyID: f.StrategyID,
			symbol:     f.Symbol,
			side:       f.Side,
			quantity:   qty,
			entryPrice: price,
			entryTime:  f.FilledAt,
			lastPrice:  f.AvgFillPrice,
			fills:      []model.Fill{f},
		}
		b.order = append(b.order, key)
		return
	}

	pos.fills = append(pos.fills, f)
	pos.lastPrice = f.AvgFillPrice

	// Scaling in keeps the opening entry price.
	if f.Side == pos.side {
		pos.quantity = pos.quantity.Add(qty)
		return
	}

	remaining := pos.quantity.Sub(qty)
	if remaining.Abs().LessThan(closeEpsilon) {
		b.close(key, pos, f, price)
		return
	}

	if remaining.IsNegative() {
		pos.side = model.OppositeSide(pos.side)
		remaining = remaining.Abs()
	}
	pos.quantity = remaining
}

func (b *book) close(key positionKey, pos *openPosition, exit model.Fill, exitPrice decimal.Decimal) {
	move := exitPrice.Sub(pos.entryPrice)
	if pos.side == model.SideSell {
		move = pos.entryPrice.Sub(exitPrice)
	}
	pnl := move.Mul(pos.quantity).Mul(contractMultiplier)

	b.counts[key]++
	b.trades = append(b.trades, model.Trade{
		ID:           fmt.Sprintf("%d-%d-%s-%d", pos.accountID, pos.strategyID, pos.symbol, b.counts[key]),
		AccountID:    pos.accountID,
		StrategyID:   pos.strategyID,
		Symbol:       pos.symbol,
		Side:         pos.side,
		Quantity:     pos.quantity.InexactFloat64(),
		EntryPrice:   pos.entryPrice.InexactFloat64(),
		ExitPrice:    exitPrice.InexactFloat64(),
		EntryTime:    pos.entryTime,
		ExitTime:     exit.FilledAt,
		PnL:          pnl.InexactFloat64(),
		Commission:   pos.commission(),
		HoldDuration: exit.FilledAt.Sub(pos.entryTime),
	})

	delete(b.open, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func scan(fills []model.Fill) *book {
	b := newBook()
	for _, f := range fills {
		b.apply(f)
	}
	return b
}

// Reconstruct nets fills per (symbol, strategy) in input order and returns one
// Trade for every position whose net quantity returned to zero. Positions
// still open at the end of the input are not realized.
func Reconstruct(fills []model.Fill) []model.Trade {
	return scan(fills).trades
}

// OpenPositions returns the positions left open after netting fills.
// CurrentPrice carries the price of the last fill seen for the position.
func OpenPositions(fills []model.Fill) []model.Position {
	b := scan(fills)
	out := make([]model.Position, 0, len(b.order))
	for _, key := range b.order {
		pos := b.open[key]
		out = append(out, model.Position{
			AccountID:    pos.accountID,
			StrategyID:   pos.strategyID,
			Symbol:       pos.symbol,
			Side:         pos.side,
			Quantity:     pos.quantity.InexactFloat64(),
			EntryPrice:   pos.entryPrice.InexactFloat64(),
			CurrentPrice: pos.lastPrice,
			IsOpen:       true,
			OpenedAt:     pos.entryTime,
		})
	}
	return out
}

// RealizedPnL is the sum of PnL over every round trip closed by fills.
func RealizedPnL(fills []model.Fill) float64 {
	total := decimal.Zero
	for _, t := range Reconstruct(fills) {
		total = total.Add(decimal.NewFromFloat(t.PnL))
	}
	return total.InexactFloat64()
}
