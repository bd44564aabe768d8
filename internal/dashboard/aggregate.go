// Package dashboard turns visit records into the dashboard: daily totals,
// the charted window, a yearly forecast, per-site habits and a single
// optimization tip. It also renders the chart and exports records as CSV.
package dashboard

import (
	"sort"
	"time"

	"github.com/runnerr0/greentab/internal/footprint"
	"github.com/runnerr0/greentab/internal/storage"
)

const (
	// DefaultWindowDays is the number of most recent recorded days charted.
	DefaultWindowDays = 7
	// DefaultRefreshInterval is how often live views rebuild the snapshot.
	DefaultRefreshInterval = 5 * time.Second

	// breakThresholdMinutes is the average daily screen time above which
	// the break suggestion wins over every other tip.
	breakThresholdMinutes = 60

	dayKeyLayout   = "2006-01-02"
	dayLabelLayout = "Jan 02"
)

// Tips, in priority order.
const (
	TipTakeBreaks = "Try reducing screen time — take short breaks or close unused tabs to cut energy use."
	tipLimitSite  = "Limit time on %s — it's your most energy-consuming site."
	TipGreatJob   = "Great job! Keep browsing efficiently to reduce CO₂ emissions."
)

// Options control how records are aggregated.
type Options struct {
	// Now decides which day is "today". Zero means time.Now().
	Now time.Time
	// Location is used for calendar day boundaries. Nil means time.Local.
	Location *time.Location
	// WindowDays is the number of recorded days charted. Zero or less means
	// DefaultWindowDays.
	WindowDays int
	// Matcher excludes internal pages from site statistics. Nil means
	// footprint.DefaultMatcher().
	Matcher *footprint.Matcher
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Matcher == nil {
		o.Matcher = footprint.DefaultMatcher()
	}
	return o
}

// DayTotal is the carbon and energy recorded on one calendar day.
type DayTotal struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	CarbonKg  float64 `json:"carbonKg"`
	EnergyKWh float64 `json:"energyKWh"`
}

// SiteStat accumulates the records of one site.
type SiteStat struct {
	Site      string  `json:"site"`
	TimeMs    int64   `json:"timeMs"`
	EnergyKWh float64 `json:"energyKWh"`
	Visits    int     `json:"visits"`
}

// Snapshot is the aggregated dashboard state.
type Snapshot struct {
	GeneratedAt    time.Time `json:"generatedAt"`
	Records        int       `json:"records"`
	TodayCarbonKg  float64   `json:"todayCarbonKg"`
	TodayEnergyKWh float64   `json:"todayEnergyKWh"`

	// Window holds the charted days in chronological order.
	Window       []DayTotal `json:"window"`
	DistinctDays int        `json:"distinctDays"`

	ForecastKg float64 `json:"forecastKg"`
	Trees      float64 `json:"trees"`

	// Sites are in first-seen order.
	Sites            []SiteStat `json:"sites"`
	TopUsed          *SiteStat  `json:"topUsed,omitempty"`
	MostEnergy       *SiteStat  `json:"mostEnergy,omitempty"`
	AvgMinutesPerDay float64    `json:"avgMinutesPerDay"`

	Tip string `json:"tip"`
}

// Labels returns the window's day labels.
func (s Snapshot) Labels() []string {
	out := make([]string, len(s.Window))
	for i, d := range s.Window {
		out[i] = d.Label
	}
	return out
}

// CarbonSeries returns the window's daily CO2 sums.
func (s Snapshot) CarbonSeries() []float64 {
	out := make([]float64, len(s.Window))
	for i, d := range s.Window {
		out[i] = d.CarbonKg
	}
	return out
}

// EnergySeries returns the window's daily energy sums.
func (s Snapshot) EnergySeries() []float64 {
	out := make([]float64, len(s.Window))
	for i, d := range s.Window {
		out[i] = d.EnergyKWh
	}
	return out
}

// Build aggregates records into a Snapshot. Records need not be sorted.
func Build(records []storage.Record, opts Options) Snapshot {
	opts = opts.withDefaults()

	snap := Snapshot{
		GeneratedAt: opts.Now,
		Records:     len(records),
		Window:      []DayTotal{},
		Sites:       []SiteStat{},
	}

	today := opts.Now.In(opts.Location).Format(dayKeyLayout)
	days := make(map[string]*DayTotal)
	for _, r := range records {
		t := r.Time().In(opts.Location)
		key := t.Format(dayKeyLayout)
		d, ok := days[key]
		if !ok {
			d = &DayTotal{Key: key, Label: t.Format(dayLabelLayout)}
			days[key] = d
		}
		d.CarbonKg += r.Carbon()
		d.EnergyKWh += r.Energy()

		if key == today {
			snap.TodayCarbonKg += r.Carbon()
			snap.TodayEnergyKWh += r.Energy()
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snap.DistinctDays = len(keys)

	if len(keys) > opts.WindowDays {
		keys = keys[len(keys)-opts.WindowDays:]
	}
	var windowCarbon float64
	for _, k := range keys {
		snap.Window = append(snap.Window, *days[k])
		windowCarbon += days[k].CarbonKg
	}
	if len(snap.Window) > 0 {
		snap.ForecastKg = windowCarbon / float64(len(snap.Window)) * footprint.DaysPerYear
	}
	snap.Trees = footprint.Trees(snap.ForecastKg)

	totalTime := siteStats(&snap, records, opts.Matcher)

	divisor := snap.DistinctDays
	if divisor == 0 {
		divisor = 1
	}
	seconds := float64(totalTime) / float64(time.Second/time.Millisecond)
	snap.AvgMinutesPerDay = seconds / float64(60*divisor)

	snap.Tip = chooseTip(snap)
	return snap
}

// siteStats fills Sites, TopUsed and MostEnergy and returns the total time
// spent on non-internal pages.
func siteStats(snap *Snapshot, records []storage.Record, m *footprint.Matcher) int64 {
	index := make(map[string]int)
	var total int64
	for _, r := range records {
		if m.Internal(r.URL) {
			continue
		}
		site := footprint.SiteKey(r.URL)
		i, ok := index[site]
		if !ok {
			i = len(snap.Sites)
			index[site] = i
			snap.Sites = append(snap.Sites, SiteStat{Site: site})
		}
		snap.Sites[i].TimeMs += r.TimeMs
		snap.Sites[i].EnergyKWh += r.Energy()
		snap.Sites[i].Visits++
		total += r.TimeMs
	}

	// Strict comparisons keep the first-seen site on ties.
	for i := range snap.Sites {
		s := snap.Sites[i]
		if snap.TopUsed == nil || s.Visits > snap.TopUsed.Visits {
			snap.TopUsed = &s
		}
	}
	for i := range snap.Sites {
		s := snap.Sites[i]
		if snap.MostEnergy == nil || s.EnergyKWh > snap.MostEnergy.EnergyKWh {
			snap.MostEnergy = &s
		}
	}
	return total
}

func chooseTip(s Snapshot) string {
	switch {
	case s.AvgMinutesPerDay > breakThresholdMinutes:
		return TipTakeBreaks
	case s.MostEnergy != nil:
		return LimitSiteTip(s.MostEnergy.Site)
	default:
		return TipGreatJob
	}
}
