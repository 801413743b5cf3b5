package http

import "net/http"

// Sections are the tracker pages reachable from the navigation. A nil
// handler renders the section's "coming soon" placeholder instead.
type Sections struct {
	Track   http.HandlerFunc
	Stats   http.HandlerFunc
	History http.HandlerFunc
	Tips    http.HandlerFunc
	Charts  http.HandlerFunc
}

type section struct {
	ID          string
	Path        string
	Nav         string
	Heading     string
	Placeholder string
	handler     http.HandlerFunc
}

// Available reports whether the section has a real handler.
func (s section) Available() bool { return s.handler != nil }

func (s *Server) builtinSections() Sections {
	return Sections{
		Track:   s.handleTrack,
		Stats:   s.handleStats,
		History: s.handleHistory,
		Tips:    s.handleTips,
		Charts:  s.handleCharts,
	}
}

// resolve lists the sections in navigation order.
func (s Sections) resolve() []section {
	return []section{
		{
			ID: "track", Path: "/ui/track", Nav: "Track Activity",
			Heading:     "Track a New Activity",
			Placeholder: "Activity tracking form coming soon.",
			handler:     s.Track,
		},
		{
			ID: "stats", Path: "/ui/stats", Nav: "Statistics",
			Heading:     "Your Carbon Emissions Statistics",
			Placeholder: "Statistics dashboard coming soon.",
			handler:     s.Stats,
		},
		{
			ID: "history", Path: "/ui/history", Nav: "Activity History",
			Heading:     "Your Activity History",
			Placeholder: "Activity history will be shown here.",
			handler:     s.History,
		},
		{
			ID: "tips", Path: "/ui/tips", Nav: "Tips",
			Heading:     "Personalized Carbon Reduction Tips",
			Placeholder: "Tips section coming soon.",
			handler:     s.Tips,
		},
		{
			ID: "charts", Path: "/ui/charts", Nav: "Emissions Over Time",
			Heading:     "Emissions Over Time",
			Placeholder: "Emissions over time chart coming soon.",
			handler:     s.Charts,
		},
	}
}

// sectionHandler serves sec, or its placeholder when it has no handler.
func (s *Server) sectionHandler(sec section) http.HandlerFunc {
	if sec.handler != nil {
		return sec.handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, "placeholder.html", sec)
	}
}
