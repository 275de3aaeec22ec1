package filter

import (
	"strings"

	"ot-job-monitor/internal/scraper"
)

// Reason names one failed criterion
type Reason string

const (
	ReasonLocation Reason = "location"
	ReasonExcluded Reason = "excluded_keyword"
	ReasonDate     Reason = "start_date"
)

// SeenSet is the lookup the classifier needs from the seen store
type SeenSet interface {
	Contains(id string) bool
}

// Reasons lists the criteria p fails. An empty result means p matches.
func Reasons(p scraper.Posting, c Criteria) []Reason {
	var reasons []Reason
	if !matchesLocation(p.Location, c.Locations) {
		reasons = append(reasons, ReasonLocation)
	}
	if hasExcludedKeyword(p.FullText, c.ExcludeKeywords) {
		reasons = append(reasons, ReasonExcluded)
	}
	if !InWindow(p.StartDate, c.StartDateMin, c.StartDateMax) {
		reasons = append(reasons, ReasonDate)
	}
	return reasons
}

func Matches(p scraper.Posting, c Criteria) bool {
	return len(Reasons(p, c)) == 0
}

// Classify splits the postings that are not in seen into matched and
// unmatched. A nil seen treats every posting as new. Repeated ids within one
// batch keep only their first occurrence.
func Classify(postings []scraper.Posting, seen SeenSet, c Criteria) (matched, unmatched []scraper.Posting) {
	batch := make(map[string]bool, len(postings))
	for _, p := range postings {
		if seen != nil && seen.Contains(p.ID) {
			continue
		}
		if batch[p.ID] {
			continue
		}
		batch[p.ID] = true

		if Matches(p, c) {
			matched = append(matched, p)
		} else {
			unmatched = append(unmatched, p)
		}
	}
	return matched, unmatched
}

func matchesLocation(location string, accepted []string) bool {
	location = strings.ToLower(location)
	for _, loc := range accepted {
		if loc == "" {
			continue
		}
		if strings.Contains(location, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}

func hasExcludedKeyword(fullText string, keywords []string) bool {
	fullText = strings.ToLower(fullText)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(fullText, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
