package storage

import "time"

// MaxRecords caps the persisted history. Appending beyond it drops the
// oldest records first.
const MaxRecords = 1000

// Record is one completed dwell interval on a tab, optionally enriched with
// a page-size derived energy and carbon estimate.
type Record struct {
	ID        int64    `json:"id"`
	SessionID string   `json:"sessionId,omitempty"`
	URL       string   `json:"url"`
	Domain    string   `json:"domain,omitempty"`
	TimeMs    int64    `json:"time"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
	PageSize  *int64   `json:"pageSize,omitempty"`
	EnergyKWh *float64 `json:"energyKWh,omitempty"`
	CarbonKg  *float64 `json:"carbonKg,omitempty"`
}

// Time returns Timestamp as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Enriched reports whether a page size has been merged into the record.
func (r Record) Enriched() bool {
	return r.PageSize != nil
}

// Energy returns EnergyKWh, or 0 when the record is not enriched.
func (r Record) Energy() float64 {
	if r.EnergyKWh == nil {
		return 0
	}
	return *r.EnergyKWh
}

// Carbon returns CarbonKg, or 0 when the record is not enriched.
func (r Record) Carbon() float64 {
	if r.CarbonKg == nil {
		return 0
	}
	return *r.CarbonKg
}

// Size returns PageSize, or 0 when the record is not enriched.
func (r Record) Size() int64 {
	if r.PageSize == nil {
		return 0
	}
	return *r.PageSize
}

// RecordQuery filters ListRecentRecords.
type RecordQuery struct {
	Domain string
	Since  time.Time
	Limit  int
}

// Stats holds aggregate statistics about the record store.
type Stats struct {
	TotalRecords    int64
	EnrichedRecords int64
	TotalTimeMs     int64
	TotalPageBytes  int64
	OldestRecord    time.Time
	NewestRecord    time.Time
	TopDomains      []DomainCount
}

// DomainCount pairs a domain with its record count.
type DomainCount struct {
	Domain string
	Count  int64
}
