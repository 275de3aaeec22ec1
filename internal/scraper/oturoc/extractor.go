// Package oturoc extracts job postings from the recruit listing of
// oturoc.org.tw. The markup is loosely structured, so every field except the
// title is a regex over the listing's flattened text.
package oturoc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"ot-job-monitor/internal/scraper"
)

const (
	ListingURL = "https://www.oturoc.org.tw/index.php?action=recruit"

	minTitleLen      = 5
	maxTitleLen      = 100
	fallbackTitleLen = 50
	fullTimeMarker   = "正職"
)

var (
	itemClassRegex = regexp.MustCompile(`(?i)recruit|job`)
	locationRegex  = regexp.MustCompile(`(台北|臺北|新北|桃園|新北市|台北市|桃園市)`)
	dateRegex      = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	salaryRegex    = regexp.MustCompile(`[\d,]+.*?[\d,]+`)

	//heading-like tags first, then generic inline text holders
	titleTagGroups = [][]string{{"h3", "h4", "h2"}, {"span", "a"}}

	//tokens carrying these are job descriptions, not employer names
	orgBlacklist = []string{"職", "助理", "治療", "護理"}
)

type Extractor struct {
	url          string
	itemSelector string
	logger       *zap.Logger
}

// NewExtractor builds the extractor. itemSelector overrides the class
// heuristic used to find listing items; url is stamped on every posting.
func NewExtractor(url, itemSelector string, logger *zap.Logger) *Extractor {
	if url == "" {
		url = ListingURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		url:          url,
		itemSelector: itemSelector,
		logger:       logger,
	}
}

func (e *Extractor) Name() string {
	return "oturoc"
}

func (e *Extractor) Extract(html string, pageNumber int) ([]scraper.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page %d: %w", pageNumber, err)
	}

	items := e.findItems(doc)
	e.logger.Debug("found potential job elements", zap.Int("page", pageNumber), zap.Int("count", len(items)))

	var postings []scraper.Posting
	for _, item := range items {
		posting, err := e.extractItem(item)
		if err != nil {
			e.logger.Debug("failed to extract job info", zap.Int("page", pageNumber), zap.Error(err))
			continue
		}
		if posting.Title == "" {
			continue
		}
		posting.PageNumber = pageNumber
		posting.ListingPosition = len(postings) + 1
		postings = append(postings, posting)
	}

	return postings, nil
}

func (e *Extractor) findItems(doc *goquery.Document) []*goquery.Selection {
	if e.itemSelector == "" {
		return listingItems(doc.Selection)
	}
	var items []*goquery.Selection
	doc.Find(e.itemSelector).Each(func(_ int, s *goquery.Selection) {
		items = append(items, s)
	})
	return items
}

// listingItems returns the matching divs under root that each hold one
// listing. A match whose nearest matching divs repeat a class is a list
// wrapper and is searched further; otherwise those divs are fields of it.
func listingItems(root *goquery.Selection) []*goquery.Selection {
	var items []*goquery.Selection
	for _, s := range nearestItems(root) {
		if isWrapper(nearestItems(s)) {
			items = append(items, listingItems(s)...)
			continue
		}
		items = append(items, s)
	}
	return items
}

// nearestItems returns the matching divs under root with no matching div in
// between.
func nearestItems(root *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	root.Find("div").Each(func(_ int, s *goquery.Selection) {
		if itemClass(s) == "" {
			return
		}
		between := s.ParentsUntilSelection(root).FilterFunction(func(_ int, p *goquery.Selection) bool {
			return itemClass(p) != ""
		})
		if between.Length() == 0 {
			out = append(out, s)
		}
	})
	return out
}

func isWrapper(children []*goquery.Selection) bool {
	seen := make(map[string]bool, len(children))
	for _, c := range children {
		class := itemClass(c)
		if seen[class] {
			return true
		}
		seen[class] = true
	}
	return false
}

// itemClass returns the recruit/job class tokens of a div, or "" when it is
// not a listing candidate.
func itemClass(s *goquery.Selection) string {
	if goquery.NodeName(s) != "div" {
		return ""
	}
	var tokens []string
	for _, c := range strings.Fields(s.AttrOr("class", "")) {
		if itemClassRegex.MatchString(c) {
			tokens = append(tokens, c)
		}
	}
	return strings.Join(tokens, " ")
}

func (e *Extractor) extractItem(item *goquery.Selection) (posting scraper.Posting, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract item: %v", r)
		}
	}()

	parts := textParts(item)
	fullText := strings.ToLower(norm.NFKC.String(strings.Join(parts, " ")))

	posting = scraper.Posting{
		Title:          findTitle(item, strings.Join(parts, "")),
		FullText:       fullText,
		Location:       locationRegex.FindString(fullText),
		Organization:   findOrganization(fullText),
		StartDate:      dateRegex.FindString(fullText),
		EmploymentType: findEmploymentType(fullText),
		Salary:         salaryRegex.FindString(fullText),
		URL:            e.url,
	}
	posting.ID = scraper.ComputeID(posting)
	return posting, nil
}

// findTitle takes the first heading (then span/link) with a plausible title
// length, falling back to the head of the item's text.
func findTitle(item *goquery.Selection, itemText string) string {
	for _, group := range titleTagGroups {
		for _, tag := range group {
			title := ""
			item.Find(tag).EachWithBreak(func(_ int, candidate *goquery.Selection) bool {
				text := strings.Join(textParts(candidate), "")
				n := utf8.RuneCountInString(text)
				if n > minTitleLen && n < maxTitleLen {
					title = text
					return false
				}
				return true
			})
			if title != "" {
				return title
			}
		}
	}
	return truncateRunes(itemText, fallbackTitleLen)
}

func findOrganization(fullText string) string {
	for _, token := range strings.Fields(fullText) {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if containsAny(token, orgBlacklist) {
			continue
		}
		return token
	}
	return ""
}

func findEmploymentType(fullText string) string {
	if strings.Contains(fullText, fullTimeMarker) {
		return fullTimeMarker
	}
	return ""
}

// textParts returns the trimmed, non-empty text nodes under sel in document order
func textParts(sel *goquery.Selection) []string {
	var parts []string
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			if text := strings.TrimSpace(node.Text()); text != "" {
				parts = append(parts, text)
			}
		case "#comment", "script", "style":
		default:
			parts = append(parts, textParts(node)...)
		}
	})
	return parts
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
