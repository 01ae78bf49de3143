package handler

import (
	"context"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"riskengine/src/service"
)

type performanceAPI interface {
	Performance(ctx context.Context, accountID uint, lookback time.Duration) (*service.PerformanceReport, error)
}

// PerformanceHandler answers GET /performance/{accountID}?lookback=720h.
// Without lookback the whole history is reported.
func PerformanceHandler(svc performanceAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(r)
		if !ok {
			http.Error(w, "invalid accountID", http.StatusBadRequest)
			return
		}

		var lookback time.Duration
		if raw := r.URL.Query().Get("lookback"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed < 0 {
				http.Error(w, "invalid lookback", http.StatusBadRequest)
				return
			}
			lookback = parsed
		}

		report, err := svc.Performance(r.Context(), accountID, lookback)
		if err != nil {
			logger.WithError(err).WithField("account_id", accountID).Error("failed to build performance report")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if report == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
