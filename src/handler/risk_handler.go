package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"riskengine/src/model"
	"riskengine/src/risk"
)

type riskAPI interface {
	Validate(ctx context.Context, signal model.Signal) (model.RiskCheckResult, error)
	Status(ctx context.Context, accountID uint) (model.RiskStatus, error)
	EmergencyStop(ctx context.Context, reason string) error
	Resume(ctx context.Context, operator string) error
	Stats() risk.Stats
	State() risk.State
	RecentEvents(ctx context.Context, accountID uint, limit int) ([]model.RiskEvent, error)
}

const maxEventLimit = 1000

type stopRequest struct {
	Reason string `json:"reason"`
}

type resumeRequest struct {
	Operator string `json:"operator"`
}

type stopResponse struct {
	State  risk.State `json:"state"`
	Errors []string   `json:"errors,omitempty"`
}

// ValidateHandler answers POST /risk/validate with a RiskCheckResult.
func ValidateHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signal model.Signal
		if err := json.NewDecoder(r.Body).Decode(&signal); err != nil {
			http.Error(w, "invalid signal body", http.StatusBadRequest)
			return
		}
		if signal.AccountID == 0 || signal.Symbol == "" || signal.Quantity <= 0 ||
			(signal.Side != model.SideBuy && signal.Side != model.SideSell) {
			http.Error(w, "signal needs account_id, symbol, side BUY|SELL and a positive quantity", http.StatusBadRequest)
			return
		}

		result, err := svc.Validate(r.Context(), signal)
		if err != nil {
			logger.WithError(err).WithField("account_id", signal.AccountID).Error("risk validation failed")
			writeJSON(w, http.StatusInternalServerError, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// StatusHandler answers GET /risk/status/{accountID}.
func StatusHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(r)
		if !ok {
			http.Error(w, "invalid accountID", http.StatusBadRequest)
			return
		}

		status, err := svc.Status(r.Context(), accountID)
		if err != nil {
			logger.WithError(err).WithField("account_id", accountID).Error("failed to build risk status")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// EmergencyStopHandler answers POST /risk/emergency-stop. The gate is
// stopped even when some positions could not be marked closed; those
// failures are listed in the response.
func EmergencyStopHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
			http.Error(w, "reason is required", http.StatusBadRequest)
			return
		}

		resp := stopResponse{}
		status := http.StatusOK
		if err := svc.EmergencyStop(r.Context(), req.Reason); err != nil {
			resp.Errors = strings.Split(err.Error(), "\n")
			status = http.StatusMultiStatus
		}
		resp.State = svc.State()
		writeJSON(w, status, resp)
	}
}

// ResumeHandler answers POST /risk/resume.
func ResumeHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Operator) == "" {
			http.Error(w, "operator is required", http.StatusBadRequest)
			return
		}

		if err := svc.Resume(r.Context(), req.Operator); err != nil {
			if errors.Is(err, risk.ErrNotStopped) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.WithError(err).Error("failed to resume risk gate")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stopResponse{State: svc.State()})
	}
}

// StatsHandler answers GET /risk/stats with the gate state and block counters.
func StatsHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"state": svc.State(),
			"stats": svc.Stats(),
		})
	}
}

// EventsHandler answers GET /risk/events?account=&limit= with the most recent
// risk events, newest first.
func EventsHandler(svc riskAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var accountID uint
		if raw := q.Get("account"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid account", http.StatusBadRequest)
				return
			}
			accountID = uint(id)
		}
		limit := 0
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxEventLimit {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := svc.RecentEvents(r.Context(), accountID, limit)
		if err != nil {
			logger.WithError(err).WithField("account_id", accountID).Error("failed to list risk events")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []model.RiskEvent{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
