package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"carbon/internal/core"
	"carbon/internal/log"
	"carbon/internal/onboarding"
)

// User-facing messages.
const (
	msgInvalidActivity = "Please fill out all form fields, and enter an amount greater than zero."
	msgAddFailed       = "Failed to add activity. Please try again."
	msgClearFailed     = "Failed to clear activities. Please try again."
	msgCleared         = "All activities cleared."
	msgUnknownCategory = "Unknown activity type"
)

// isInvalidInput reports whether err was caused by the submitted values
// rather than by the store.
func isInvalidInput(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrUnknownCategory,
		core.ErrUnknownActivity,
		core.ErrEmptyCategory,
		core.ErrEmptyActivity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks that templates are loaded and the ledger store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ledger.Ready(ctx); err != nil {
		checks["ledger"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex shows the onboarding wizard on first run and the tracker
// shell afterwards.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	if !s.ledger.OnboardingDone(r.Context()) {
		s.renderOnboarding(w, r, http.StatusOK, onboarding.New(), "")
		return
	}

	s.render(w, r, http.StatusOK, "index.html", indexView{
		Sections: s.sections,
		Today:    s.ledger.Today(),
	})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	categories := core.Categories()
	view := trackView{Categories: core.CategoryNames()}
	if len(categories) > 0 {
		view.Selected = categories[0].Name
		view.Options = newOptionsView(categories[0])
	}
	s.render(w, r, http.StatusOK, "track.html", view)
}

// handleActivityOptions renders the activity select and amount label for
// the chosen category.
func (s *Server) handleActivityOptions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	category, ok := core.LookupCategory(sanitizeInput(r.URL.Query().Get(fieldCategory)))
	if !ok {
		UnprocessableEntityError(msgUnknownCategory).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "activity_options.html", newOptionsView(category))
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx)

	in, err := ParseActivityInput(r.Form)
	if err != nil {
		logger.InfoContext(ctx, "Rejected activity input",
			log.FieldCategory, in.Category,
			log.FieldActivity, in.Activity,
			log.FieldReason, err.Error())
		UnprocessableEntityError(msgInvalidActivity).Write(w)
		return
	}

	record, err := s.ledger.AddActivity(ctx, in)
	if err != nil {
		if isInvalidInput(err) {
			UnprocessableEntityError(msgInvalidActivity).Write(w)
			return
		}
		log.NewStructuredLogger(logger).LogError(ctx, "Failed to add activity", err, log.ComponentHTTP, log.OpAppend,
			log.NewFields().WithActivity("", in.Category, in.Activity, in.Amount, 0, ""))
		InternalServerError(msgAddFailed).
			TriggerErrorNotification(msgAddFailed).
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerActivityCreated(record.Category, record.Emissions).
		TriggerFormReset().
		TriggerSuccessNotification("Activity added!").
		BodyHTML(`<div class="success">Activity added! This activity generated <strong>` +
			template.HTMLEscapeString(formatKg(record.Emissions)) + ` kg CO₂</strong></div>`).
		Write(w)
}

// handleClearActivities removes every activity. The onboarding flag stays set.
func (s *Server) handleClearActivities(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	removed, err := s.ledger.Clear(r.Context())
	if err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Failed to clear activities", err, log.ComponentHTTP, log.OpClear, nil)
		InternalServerError(msgClearFailed).Write(w)
		return
	}

	SuccessResponse(msgCleared).
		TriggerLedgerCleared(removed).
		TriggerSuccessNotification(msgCleared).
		Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "stats.html", newStatsView(s.ledger.Summary(r.Context()), s.dailyTarget))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "history.html", newHistoryRows(s.ledger.History(r.Context())))
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "tips.html", newTipViews(s.ledger.Tips(r.Context())))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	view := newChartsView(s.ledger.DailyEmissions(ctx), s.ledger.CategoryTotals(ctx, core.PeriodAll))
	s.render(w, r, http.StatusOK, "charts.html", view)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
