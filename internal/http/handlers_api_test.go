package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon/internal/core"
)

func newFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestAPISummary(t *testing.T) {
	srv := newTestServer(t, onboardedStore(seeded()...), Config{})

	rr := do(srv, http.MethodGet, "/api/summary?period=today", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got summaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, core.PeriodToday, got.Period)
	assert.Equal(t, 4.74, got.Total)
	assert.Equal(t, 16.0, got.DailyTargetKg)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Transportation", got.Categories[0].Name)

	rr = do(srv, http.MethodGet, "/api/summary", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, core.PeriodAll, got.Period)
	assert.Equal(t, 5.14, got.Total)
}

func TestAPISummaryEmptyAndInvalid(t *testing.T) {
	srv := newTestServer(t, onboardedStore(), Config{})

	rr := do(srv, http.MethodGet, "/api/summary?period=week", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"categories":[]`)
	assert.Contains(t, rr.Body.String(), `"total":0`)

	rr = do(srv, http.MethodGet, "/api/summary?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error"`)
}

func TestAPIDaily(t *testing.T) {
	srv := newTestServer(t, onboardedStore(seeded()...), Config{})

	rr := do(srv, http.MethodGet, "/api/emissions/daily", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got []core.DailyTotal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, []core.DailyTotal{
		{Date: "2025-03-01", Emissions: 0.4},
		{Date: today, Emissions: 4.74},
	}, got)

	srv = newTestServer(t, onboardedStore(), Config{})
	rr = do(srv, http.MethodGet, "/api/emissions/daily", nil)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAPIActivities(t *testing.T) {
	store := onboardedStore()
	srv := newTestServer(t, store, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/activities",
		strings.NewReader(`{"category":"Hot Shower","activity":"Taking a hot shower","amount":8}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(srv, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created core.ActivityRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 1.44, created.Emissions)
	assert.Equal(t, today, created.Date)

	rr = serve(srv, newFormRequest(http.MethodPost, "/api/activities", url.Values{
		"category": {"Food & Diet"}, "activity": {"Vegan meal"}, "amount": {"2"},
	}))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(srv, http.MethodGet, "/api/activities", nil)
	var listed []core.ActivityRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
}

func TestAPIActivitiesErrors(t *testing.T) {
	store := onboardedStore()
	srv := newTestServer(t, store, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/activities", strings.NewReader(`{"category":`))
	assert.Equal(t, http.StatusBadRequest, serve(srv, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/activities",
		strings.NewReader(`{"category":"Transportation","activity":"Teleport","amount":1}`))
	assert.Equal(t, http.StatusUnprocessableEntity, serve(srv, req).Code)

	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodDelete, "/api/activities", nil).Code)

	store.SaveErr = errors.New("disk full")
	req = httptest.NewRequest(http.MethodPost, "/api/activities",
		strings.NewReader(`{"category":"Transportation","activity":"Bus","amount":1}`))
	assert.Equal(t, http.StatusInternalServerError, serve(srv, req).Code)
	assert.Equal(t, 0, store.Saves())
}
