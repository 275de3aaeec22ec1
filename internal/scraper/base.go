// Define the posting model and the interfaces every listing site plugs into.
// Site-specific markup knowledge stays behind Extractor so a layout change
// only touches one package.

package scraper

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Posting is one job listing scraped from the site
type Posting struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	FullText        string `json:"full_text"`
	Location        string `json:"location"`
	Organization    string `json:"organization"`
	StartDate       string `json:"start_date"`
	EmploymentType  string `json:"employment_type"`
	Salary          string `json:"salary"`
	URL             string `json:"url"`
	PageNumber      int    `json:"page_number"`
	ListingPosition int    `json:"listing_position"`

	//filled by the translator
	TitleEN          string `json:"title_en,omitempty"`
	LocationEN       string `json:"location_en,omitempty"`
	OrganizationEN   string `json:"organization_en,omitempty"`
	EmploymentTypeEN string `json:"employment_type_en,omitempty"`
	SalaryEN         string `json:"salary_en,omitempty"`
}

// Extractor turns the markup of one listing page into postings.
type Extractor interface {
	//Extract parses html and tags every posting with pageNumber and its 1-indexed position
	Extract(html string, pageNumber int) ([]Posting, error)

	//Name is the site name (oturoc, ...)
	Name() string
}

// PageDriver is the browser capability the paginator needs
type PageDriver interface {
	//Open navigates to url and waits for the network to go idle
	Open(ctx context.Context, url string) error

	//Content returns the current page markup
	Content() (string, error)

	//ClickNext activates the control matching selector. It reports false when no control exists.
	ClickNext(ctx context.Context, selector string) (bool, error)
}

// ComputeID fingerprints the extracted fields. Page number and position are
// left out so an unchanged listing keeps its id when it moves between pages.
func ComputeID(p Posting) string {
	fields := map[string]string{
		"title":           p.Title,
		"full_text":       p.FullText,
		"location":        p.Location,
		"organization":    p.Organization,
		"start_date":      p.StartDate,
		"employment_type": p.EmploymentType,
		"salary":          p.Salary,
		"url":             p.URL,
	}

	//encoding/json writes map keys sorted, so field order never matters
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		//a map of strings always encodes
		panic(err)
	}

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])[:16]
}

// IDs returns the ids of postings in order
func IDs(postings []Posting) []string {
	ids := make([]string, 0, len(postings))
	for _, p := range postings {
		ids = append(ids, p.ID)
	}
	return ids
}
