package http

import (
	"net/http"

	"carbon/internal/core"
	"carbon/internal/log"
)

type summaryResponse struct {
	Period        core.Period           `json:"period"`
	Total         float64               `json:"total"`
	Categories    []core.CategoryAmount `json:"categories"`
	DailyTargetKg float64               `json:"daily_target_kg"`
}

// handleAPISummary answers GET /api/summary?period=today|week|month|all.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	categories := s.ledger.CategoryTotals(ctx, period)
	if categories == nil {
		categories = []core.CategoryAmount{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Period:        period,
		Total:         s.ledger.Total(ctx, period),
		Categories:    categories,
		DailyTargetKg: s.dailyTarget,
	})
}

func (s *Server) handleAPIDaily(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	daily := s.ledger.DailyEmissions(r.Context())
	if daily == nil {
		daily = []core.DailyTotal{}
	}
	writeJSON(w, http.StatusOK, daily)
}

// handleAPIActivities lists the ledger on GET and logs an activity on POST.
// POST accepts a JSON object or a form body with category, activity and amount.
func (s *Server) handleAPIActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, s.ledger.History(r.Context()))
	case http.MethodPost:
		s.createActivityJSON(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) createActivityJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := p.ActivityInput()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	record, err := s.ledger.AddActivity(ctx, in)
	if err != nil {
		if isInvalidInput(err) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to add activity", err, log.ComponentHTTP, log.OpAppend, nil)
		writeJSONError(w, http.StatusInternalServerError, msgAddFailed)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
