// Package footprint converts transferred bytes into energy and carbon
// estimates and classifies visited URLs into sites.
package footprint

// Conversion factors. These are fixed and intentionally not configurable.
const (
	// KWhPerMiB is the energy attributed to transferring one MiB.
	KWhPerMiB = 0.00015
	// KgCO2PerKWh is the grid carbon intensity applied to that energy.
	KgCO2PerKWh = 0.475
	// KgCO2PerTreeYear is roughly what one tree absorbs in a year.
	KgCO2PerTreeYear = 21.0
	// DaysPerYear is used to project daily averages onto a year.
	DaysPerYear = 365

	bytesPerMiB = 1024 * 1024
)

// Estimate is the energy and carbon attributed to a page size.
type Estimate struct {
	EnergyKWh float64
	CarbonKg  float64
}

// FromPageSize returns the estimate for pageSize bytes.
func FromPageSize(pageSize int64) Estimate {
	energy := float64(pageSize) / bytesPerMiB * KWhPerMiB
	return Estimate{
		EnergyKWh: energy,
		CarbonKg:  energy * KgCO2PerKWh,
	}
}

// Trees returns how many trees would absorb kg of CO2 over a year.
func Trees(kg float64) float64 {
	return kg / KgCO2PerTreeYear
}
