package http

import (
	"net/http"
	"net/url"

	"carbon/internal/log"
	"carbon/internal/onboarding"
)

const msgOnboardingSaveFailed = "Failed to save onboarding state to disk."

type hiddenField struct {
	Name  string
	Value string
}

type mealInput struct {
	Label string
	Field string
	Value int
}

type vehicleOption struct {
	Name     string
	Selected bool
}

type onboardingView struct {
	Page     int
	Title    string
	IsFirst  bool
	IsLast   bool
	Error    string
	Hidden   []hiddenField
	Traveled bool
	Vehicles []vehicleOption
	Miles    string
	Lights   string
	Meals    []mealInput
	Total    string
	Context  string
}

// handleOnboarding drives the wizard. The draft travels in the form on every
// request, so the server keeps no per-user state until the final commit.
func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if s.ledger.OnboardingDone(r.Context()) {
		s.redirectHome(w, r)
		return
	}

	if r.Method == http.MethodGet {
		draft, _ := ParseDraft(r.URL.Query())
		s.renderOnboarding(w, r, http.StatusOK, onboarding.Wizard{Page: ParsePage(r.URL.Query()), Draft: draft}, "")
		return
	}

	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	draft, err := ParseDraft(r.PostForm)
	wiz := onboarding.Wizard{Page: ParsePage(r.PostForm), Draft: draft}

	switch r.PostForm.Get(fieldAction) {
	case actionBack:
		s.renderOnboarding(w, r, http.StatusOK, wiz.Back(), "")
	case actionNext:
		if err != nil {
			s.renderOnboarding(w, r, http.StatusUnprocessableEntity, wiz, err.Error())
			return
		}
		s.renderOnboarding(w, r, http.StatusOK, wiz.Next(), "")
	case actionFinish:
		if err != nil {
			s.renderOnboarding(w, r, http.StatusUnprocessableEntity, wiz, err.Error())
			return
		}
		if _, err := s.ledger.CompleteOnboarding(r.Context(), draft); err != nil {
			log.NewStructuredLogger(log.FromContext(r.Context())).
				LogError(r.Context(), "Failed to complete onboarding", err, log.ComponentOnboarding, log.OpSave, nil)
			s.renderOnboarding(w, r, http.StatusInternalServerError, wiz, msgOnboardingSaveFailed)
			return
		}
		s.redirectHome(w, r)
	default:
		s.renderOnboarding(w, r, http.StatusOK, wiz, "")
	}
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderOnboarding(w http.ResponseWriter, r *http.Request, status int, wiz onboarding.Wizard, errMsg string) {
	s.render(w, r, status, "onboarding.html", newOnboardingView(wiz, errMsg))
}

func newOnboardingView(wiz onboarding.Wizard, errMsg string) onboardingView {
	page := wiz.Page.Clamp()
	d := wiz.Draft
	v := onboardingView{
		Page:     int(page),
		Title:    page.Title(),
		IsFirst:  wiz.IsFirst(),
		IsLast:   wiz.IsLast(),
		Error:    errMsg,
		Hidden:   hiddenDraftFields(d, page),
		Traveled: d.TraveledToday,
		Miles:    formatNumber(d.Miles),
		Lights:   formatNumber(d.LightsHours),
	}

	vehicles := onboarding.VehicleOptions()
	selected := d.VehicleType
	if selected == "" && len(vehicles) > 0 {
		selected = vehicles[0]
	}
	for _, name := range vehicles {
		v.Vehicles = append(v.Vehicles, vehicleOption{Name: name, Selected: name == selected})
	}
	for _, meal := range onboarding.MealTypes() {
		v.Meals = append(v.Meals, mealInput{Label: meal + " (count)", Field: mealField(meal), Value: d.Meals[meal]})
	}

	if page == onboarding.PageSummary {
		est := d.Estimate()
		v.Total = formatNumber(est.Total)
		v.Context = onboarding.ContextText(est.Total)
	}
	return v
}

// hiddenDraftFields encodes the draft values that are not editable on page.
func hiddenDraftFields(d onboarding.Draft, page onboarding.Page) []hiddenField {
	values := url.Values{}
	if page != onboarding.PageTransportation {
		traveled := "no"
		if d.TraveledToday {
			traveled = "yes"
		}
		values.Set(fieldTraveled, traveled)
		values.Set(fieldVehicle, d.VehicleType)
		values.Set(fieldMiles, formatNumber(d.Miles))
	}
	if page != onboarding.PageHomeEnergy {
		values.Set(fieldLights, formatNumber(d.LightsHours))
	}

	fields := make([]hiddenField, 0, 3+len(d.Meals))
	for _, name := range []string{fieldTraveled, fieldVehicle, fieldMiles, fieldLights} {
		if values.Has(name) {
			fields = append(fields, hiddenField{Name: name, Value: values.Get(name)})
		}
	}
	if page != onboarding.PageFood {
		for _, meal := range onboarding.MealTypes() {
			fields = append(fields, hiddenField{Name: mealField(meal), Value: formatNumberInt(d.Meals[meal])})
		}
	}
	return fields
}
