package mark

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/repository"
)

// Mark sets the current price of every open position in Symbol, which is
// what exposure is measured at.
type Mark struct {
	Log    *logger.Entry
	DB     *gorm.DB
	Symbol string
	Price  float64
}

func (m *Mark) Start(ctx context.Context) (int64, error) {
	if m.Log == nil {
		m.Log = logger.WithField("cmd", "mark")
	}
	symbol := strings.ToUpper(strings.TrimSpace(m.Symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	if m.Price <= 0 {
		return 0, fmt.Errorf("price must be positive, got %v", m.Price)
	}

	n, err := repository.NewPositionRepository().WithDB(m.DB).UpdateCurrentPrice(ctx, symbol, m.Price)
	if err != nil {
		return 0, err
	}
	m.Log.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"price":     m.Price,
		"positions": n,
	}).Info("positions marked")
	return n, nil
}
