package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ot-job-monitor/internal/scraper"
)

type seenIDs map[string]bool

func (s seenIDs) Contains(id string) bool { return s[id] }

func posting(id, location, fullText, startDate string) scraper.Posting {
	return scraper.Posting{ID: id, Title: id, Location: location, FullText: fullText, StartDate: startDate}
}

func TestReasons(t *testing.T) {
	c := DefaultCriteria()

	tests := []struct {
		name     string
		job      scraper.Posting
		expected []Reason
	}{
		{
			name:     "Perfect match",
			job:      posting("a", "台北", "職能治療師 台北 2026/3/1", "2026/3/1"),
			expected: nil,
		},
		{
			name:     "Wrong location",
			job:      posting("b", "台中", "職能治療師 台中 2026/3/1", "2026/3/1"),
			expected: []Reason{ReasonLocation},
		},
		{
			name:     "Empty location",
			job:      posting("c", "", "職能治療師 2026/3/1", "2026/3/1"),
			expected: []Reason{ReasonLocation},
		},
		{
			name:     "Pediatric excluded",
			job:      posting("d", "新北", "小兒職能治療 新北 2026/3/1", "2026/3/1"),
			expected: []Reason{ReasonExcluded},
		},
		{
			name:     "Exclusion is case insensitive",
			job:      posting("e", "桃園", "Pediatric OT 桃園", "2026-03-01"),
			expected: []Reason{ReasonExcluded},
		},
		{
			name:     "Date outside window",
			job:      posting("f", "桃園", "桃園", "2026/5/1"),
			expected: []Reason{ReasonDate},
		},
		{
			name:     "Missing date is rejected",
			job:      posting("g", "桃園", "桃園", ""),
			expected: []Reason{ReasonDate},
		},
		{
			name:     "Everything fails",
			job:      posting("h", "台中", "小兒", "0000-00-00"),
			expected: []Reason{ReasonLocation, ReasonExcluded, ReasonDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reasons(tt.job, c)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, len(tt.expected) == 0, Matches(tt.job, c))
		})
	}
}

func TestMatches_FlippingOneCriterion(t *testing.T) {
	c := DefaultCriteria()
	base := posting("x", "臺北", "臺北 職能治療 2026/2/15", "2026/2/15")
	assert.True(t, Matches(base, c))

	flips := map[string]func(*scraper.Posting){
		"location": func(p *scraper.Posting) { p.Location = "高雄" },
		"keyword":  func(p *scraper.Posting) { p.FullText += " 小兒自費" },
		"date":     func(p *scraper.Posting) { p.StartDate = "2026/2/14" },
	}
	for name, flip := range flips {
		t.Run(name, func(t *testing.T) {
			p := base
			flip(&p)
			matched, unmatched := Classify([]scraper.Posting{p}, nil, c)
			assert.Empty(t, matched)
			assert.Len(t, unmatched, 1)
		})
	}
}

func TestClassify_Partition(t *testing.T) {
	c := DefaultCriteria()
	postings := []scraper.Posting{
		posting("m1", "台北", "台北", "2026/3/1"),
		posting("u1", "台中", "台中", "2026/3/1"),
		posting("s1", "台北", "台北", "2026/3/1"),
		posting("s2", "台中", "台中", ""),
		posting("m2", "桃園", "桃園", "2026-04-15"),
		posting("u2", "", "", ""),
	}
	seen := seenIDs{"s1": true, "s2": true}

	matched, unmatched := Classify(postings, seen, c)

	assert.Equal(t, []string{"m1", "m2"}, scraper.IDs(matched))
	assert.Equal(t, []string{"u1", "u2"}, scraper.IDs(unmatched))

	//every unseen posting lands in exactly one group, seen ones in none
	counts := map[string]int{}
	for _, p := range append(matched, unmatched...) {
		counts[p.ID]++
	}
	for _, p := range postings {
		if seen[p.ID] {
			assert.Zero(t, counts[p.ID], p.ID)
		} else {
			assert.Equal(t, 1, counts[p.ID], p.ID)
		}
	}
}

func TestClassify_DuplicateIDsInBatch(t *testing.T) {
	dup := posting("d", "台北", "台北", "2026/3/1")
	matched, unmatched := Classify([]scraper.Posting{dup, dup}, nil, DefaultCriteria())
	assert.Len(t, matched, 1)
	assert.Empty(t, unmatched)
}

func TestClassify_Empty(t *testing.T) {
	matched, unmatched := Classify(nil, seenIDs{}, DefaultCriteria())
	assert.Empty(t, matched)
	assert.Empty(t, unmatched)
}
