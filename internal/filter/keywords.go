package filter

import "time"

// Criteria decides which new postings deserve a full alert
type Criteria struct {
	Locations       []string
	ExcludeKeywords []string
	StartDateMin    time.Time
	StartDateMax    time.Time
}

var (
	DefaultLocations       = []string{"台北", "臺北", "新北", "新北市", "台北市", "桃園", "桃園市"}
	DefaultExcludeKeywords = []string{"小兒", "小兒自費", "pediatric"}
	DefaultStartDateMin    = time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	DefaultStartDateMax    = time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
)

// DefaultCriteria is the Taipei / New Taipei / Taoyuan, non-pediatric, spring 2026 search
func DefaultCriteria() Criteria {
	return Criteria{
		Locations:       append([]string(nil), DefaultLocations...),
		ExcludeKeywords: append([]string(nil), DefaultExcludeKeywords...),
		StartDateMin:    DefaultStartDateMin,
		StartDateMax:    DefaultStartDateMax,
	}
}
