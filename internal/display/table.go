// Package display prints postings to the terminal for the show command.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ot-job-monitor/internal/filter"
	"ot-job-monitor/internal/scraper"
)

const titleWidth = 40

// TableRenderer handles the display of postings in the terminal
type TableRenderer struct {
	out      io.Writer
	criteria filter.Criteria
}

func NewTableRenderer(out io.Writer, criteria filter.Criteria) *TableRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &TableRenderer{out: out, criteria: criteria}
}

// RenderTable lists every posting with the criteria it failed.
func (r *TableRenderer) RenderTable(postings []scraper.Posting) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Listings")

	t.AppendHeader(table.Row{"Page", "#", "Title", "Location", "Start Date", "Result", "ID"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleWidth},
		{Name: "Page", Align: text.AlignRight},
		{Name: "#", Align: text.AlignRight},
	})

	matched := 0
	for _, p := range postings {
		result := "✅ match"
		if reasons := filter.Reasons(p, r.criteria); len(reasons) > 0 {
			parts := make([]string, 0, len(reasons))
			for _, reason := range reasons {
				parts = append(parts, string(reason))
			}
			result = "❌ " + strings.Join(parts, ", ")
		} else {
			matched++
		}

		t.AppendRow(table.Row{
			p.PageNumber,
			p.ListingPosition,
			preferEN(p.TitleEN, p.Title),
			orNA(p.Location),
			orNA(p.StartDate),
			result,
			p.ID,
		})
	}

	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d listings", len(postings)), "", "", fmt.Sprintf("%d matched", matched), ""})
	t.Render()
}

// RenderCards prints one bilingual card per posting.
func (r *TableRenderer) RenderCards(postings []scraper.Posting) {
	rule := strings.Repeat("=", 80)
	if len(postings) == 0 {
		fmt.Fprintln(r.out, "\n❌ No matching jobs found")
		return
	}

	fmt.Fprintf(r.out, "\n%s\n📋 Found %d new job listings\n%s\n\n", rule, len(postings), rule)
	for i, p := range postings {
		fmt.Fprintf(r.out, "[%d] 🇹🇼 新工作機會 | 🇺🇸 New Job Opportunity\n", i+1)
		fmt.Fprintln(r.out, strings.Repeat("-", 80))
		r.field("職位 | Position", p.Title, p.TitleEN)
		r.field("機構 | Organization", p.Organization, p.OrganizationEN)
		r.field("地點 | Location", p.Location, p.LocationEN)
		fmt.Fprintf(r.out, "開始日期 | Start Date: %s\n\n", orNA(p.StartDate))
		r.field("職位類型 | Employment Type", p.EmploymentType, p.EmploymentTypeEN)
		r.field("薪資 | Salary", p.Salary, p.SalaryEN)
		fmt.Fprintf(r.out, "📌 Page %d, Listing #%d\n", p.PageNumber, p.ListingPosition)
		fmt.Fprintf(r.out, "🔗 Link: %s\n\n%s\n\n", p.URL, rule)
	}
	fmt.Fprintf(r.out, "✓ Display completed! Total listings: %d\n", len(postings))
}

func (r *TableRenderer) field(label, src, en string) {
	fmt.Fprintf(r.out, "%s:\n  %s\n", label, orNA(src))
	if en != "" {
		fmt.Fprintf(r.out, "  %s\n", en)
	}
	fmt.Fprintln(r.out)
}

func preferEN(en, src string) string {
	if en != "" {
		return en
	}
	return orNA(src)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
