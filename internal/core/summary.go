package core

// CategoryAmount is emissions aggregated by category name.
type CategoryAmount struct {
	Name      string  `json:"category"`
	Emissions float64 `json:"emissions"`
}

// DailyTotal is the emissions sum for one calendar date.
type DailyTotal struct {
	Date      string  `json:"date"`
	Emissions float64 `json:"emissions"`
}

// Summary is the statistics dashboard payload.
type Summary struct {
	Today      float64          `json:"today"`
	Week       float64          `json:"week"`
	Month      float64          `json:"month"`
	All        float64          `json:"all"`
	TodayByCat []CategoryAmount `json:"today_by_category"`
}
