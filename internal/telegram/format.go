package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"ot-job-monitor/internal/scraper"
)

const (
	// MaxMessageRunes keeps every message under Telegram's 4096 limit.
	MaxMessageRunes = 4000
	SummaryLimit    = 20
	debugTextRunes  = 200
)

func esc(s string) string {
	return html.EscapeString(s)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// bilingual renders the original value and, when present, its translation
// on the next line.
func bilingual(src, en string) string {
	out := esc(orNA(src))
	if en != "" {
		out += "\n" + esc(en)
	}
	return out
}

// FormatPosting builds the HTML alert for one matched posting.
func FormatPosting(p scraper.Posting) string {
	var sb strings.Builder
	sb.WriteString("<b>🇹🇼 新工作機會！ | 🇺🇸 New Job Opportunity!</b>\n\n")
	fmt.Fprintf(&sb, "<b>職位 | Position:</b>\n%s\n\n", bilingual(p.Title, p.TitleEN))
	fmt.Fprintf(&sb, "<b>地點 | Location:</b>\n%s\n\n", bilingual(p.Location, p.LocationEN))
	fmt.Fprintf(&sb, "<b>機構 | Organization:</b>\n%s\n\n", bilingual(p.Organization, p.OrganizationEN))
	fmt.Fprintf(&sb, "<b>開始日期 | Start Date:</b> %s\n\n", esc(orNA(p.StartDate)))
	fmt.Fprintf(&sb, "<b>職位類型 | Employment Type:</b>\n%s\n\n", bilingual(p.EmploymentType, p.EmploymentTypeEN))
	fmt.Fprintf(&sb, "<b>薪資 | Salary:</b>\n%s\n\n", bilingual(p.Salary, p.SalaryEN))
	if p.URL != "" {
		fmt.Fprintf(&sb, "<a href=\"%s\">查看詳情 | View Details</a>\n\n", esc(p.URL))
	}
	fmt.Fprintf(&sb, "<code>Job ID: %s</code>", esc(p.ID))
	return sb.String()
}

// FormatDebug renders every extracted field plus the page placement and the
// start of the raw text, for checking extraction by eye.
func FormatDebug(p scraper.Posting) string {
	var sb strings.Builder
	sb.WriteString("<b>🔍 DEBUG: Job Listing</b>\n\n")
	fmt.Fprintf(&sb, "<b>📍 Page %d, Position #%d</b>\n\n", p.PageNumber, p.ListingPosition)
	fmt.Fprintf(&sb, "<b>職位 | Position:</b>\n%s\n\n", bilingual(p.Title, p.TitleEN))
	fmt.Fprintf(&sb, "<b>機構 | Organization:</b>\n%s\n\n", bilingual(p.Organization, p.OrganizationEN))
	fmt.Fprintf(&sb, "<b>地點 | Location:</b>\n%s\n\n", bilingual(p.Location, p.LocationEN))
	fmt.Fprintf(&sb, "<b>開始日期 | Start Date:</b> %s\n\n", esc(orNA(p.StartDate)))
	fmt.Fprintf(&sb, "<b>職位類型 | Employment Type:</b>\n%s\n\n", bilingual(p.EmploymentType, p.EmploymentTypeEN))
	fmt.Fprintf(&sb, "<b>薪資 | Salary:</b>\n%s\n\n", bilingual(p.Salary, p.SalaryEN))
	fmt.Fprintf(&sb, "<b>Full Text (first %d chars):</b>\n<code>%s</code>\n\n", debugTextRunes, esc(firstRunes(p.FullText, debugTextRunes)))
	fmt.Fprintf(&sb, "<b>Job ID:</b> <code>%s</code>", esc(p.ID))
	return sb.String()
}

// FormatSummary lists up to SummaryLimit postings that did not match the
// criteria, with a trailer counting the rest.
func FormatSummary(postings []scraper.Posting) string {
	lines := []string{
		"<b>📋 新發佈的職位摘要 | New Posted Jobs Summary</b>",
		"<i>(不符合篩選條件 | Does not match filter criteria)</i>",
		"",
	}

	for i, p := range postings {
		if i >= SummaryLimit {
			break
		}
		title := p.TitleEN
		if title == "" {
			title = orNA(p.Title)
		}
		location := p.LocationEN
		if location == "" {
			location = orNA(p.Location)
		}

		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, esc(title)),
			fmt.Sprintf("   📍 %s | 📅 %s", esc(location), esc(orNA(p.StartDate))),
			fmt.Sprintf("   📌 Page %d, Listing #%d", p.PageNumber, p.ListingPosition),
			fmt.Sprintf("   🔗 ID: <code>%s</code>", esc(p.ID)),
			"",
		)
	}

	if rest := len(postings) - SummaryLimit; rest > 0 {
		lines = append(lines, fmt.Sprintf("<i>... 及其他 %d 筆職位 | ... and %d more jobs</i>", rest, rest))
	}
	return strings.Join(lines, "\n")
}

// Chunk splits text into pieces of at most size runes, breaking after a
// newline where it can. A line longer than size is cut between runes, never
// inside an HTML tag or entity. Joining the pieces gives back text.
func Chunk(text string, size int) []string {
	if size <= 0 || utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	var chunks []string
	var cur []rune
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) <= size {
			cur = append(cur, r...)
			continue
		}
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = nil
		}
		for len(r) > size {
			cut := safeCut(r, size)
			chunks = append(chunks, string(r[:cut]))
			r = r[cut:]
		}
		cur = append(cur, r...)
	}
	if len(cur) > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}

// safeCut returns the largest cut point up to size that is outside any tag
// or entity, or size when the whole prefix is one.
func safeCut(r []rune, size int) int {
	tag, entity := -1, -1
	for i := 0; i < size; i++ {
		switch r[i] {
		case '<':
			tag = i
		case '>':
			tag = -1
		case '&':
			entity = i
		case ';':
			entity = -1
		}
	}
	cut := size
	for _, open := range []int{tag, entity} {
		if open > 0 && open < cut {
			cut = open
		}
	}
	return cut
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
