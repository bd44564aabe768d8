package dashboard

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// None is shown in place of a site when there is nothing to report.
const None = "–"

// Summary holds the snapshot's figures formatted for display.
type Summary struct {
	TodayCarbon   string `json:"todayCarbon"`
	TodayEnergy   string `json:"todayEnergy"`
	Forecast      string `json:"forecast"`
	Trees         string `json:"trees"`
	TopUsed       string `json:"topUsed"`
	MostEnergy    string `json:"mostEnergy"`
	AvgScreenTime string `json:"avgScreenTime"`
	Tip           string `json:"tip"`
}

// Summary formats s for display.
func (s Snapshot) Summary() Summary {
	sum := Summary{
		TodayCarbon:   fmt.Sprintf("%.4f kg CO₂e", s.TodayCarbonKg),
		TodayEnergy:   fmt.Sprintf("%.4f kWh", s.TodayEnergyKWh),
		Forecast:      fmt.Sprintf("%.2f kg CO₂e", s.ForecastKg),
		Trees:         fmt.Sprintf("≈ %.1f trees/year", s.Trees),
		TopUsed:       None,
		MostEnergy:    None,
		AvgScreenTime: fmt.Sprintf("%.2f min/day", s.AvgMinutesPerDay),
		Tip:           Capitalize(s.Tip),
	}
	if s.TopUsed != nil {
		sum.TopUsed = fmt.Sprintf("%s (%d visits)", Capitalize(s.TopUsed.Site), s.TopUsed.Visits)
	}
	if s.MostEnergy != nil {
		sum.MostEnergy = fmt.Sprintf("%s (%.2f Wh)", Capitalize(s.MostEnergy.Site), s.MostEnergy.EnergyKWh*1000)
	}
	return sum
}

// LimitSiteTip suggests spending less time on site.
func LimitSiteTip(site string) string {
	return fmt.Sprintf(tipLimitSite, site)
}

// Capitalize upper-cases the first letter of text.
func Capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
