package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ot-job-monitor/internal/scraper"
)

const (
	PostingsFile  = "all_postings.json"
	AnomaliesFile = "extraction_anomalies.json"
)

// Screenshotter is anything that can save a full-page capture.
type Screenshotter interface {
	Screenshot(path string) error
}

// Recorder writes debug output for one run: raw page markup, the extracted
// postings and the extraction anomalies report.
type Recorder struct {
	outputDir string
	logger    *zap.Logger
}

type MissingLocation struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	PageNumber      int    `json:"page_number"`
	ListingPosition int    `json:"listing_position"`
}

type Anomalies struct {
	MissingLocationCount int               `json:"missing_location_count"`
	MissingLocation      []MissingLocation `json:"missing_location"`
}

func New(dir string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	return &Recorder{outputDir: dir, logger: logger}, nil
}

func (r *Recorder) Dir() string {
	return r.outputDir
}

// RecordPage saves the markup of one listing page as page_<n>_raw.html.
func (r *Recorder) RecordPage(pageNumber int, html string) {
	path := filepath.Join(r.outputDir, fmt.Sprintf("page_%d_raw.html", pageNumber))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		r.logger.Warn("⚠️ Failed to save page html", zap.Int("page", pageNumber), zap.Error(err))
		return
	}
	r.logger.Debug("Saved page html", zap.String("path", path))
}

func (r *Recorder) SavePostings(postings []scraper.Posting) error {
	if postings == nil {
		postings = []scraper.Posting{}
	}
	return r.writeJSON(PostingsFile, postings)
}

// SaveAnomalies reports postings whose location could not be extracted and
// returns how many there were.
func (r *Recorder) SaveAnomalies(postings []scraper.Posting) (int, error) {
	report := Anomalies{MissingLocation: []MissingLocation{}}
	for _, p := range postings {
		if strings.TrimSpace(p.Location) != "" {
			continue
		}
		report.MissingLocation = append(report.MissingLocation, MissingLocation{
			ID:              p.ID,
			Title:           p.Title,
			PageNumber:      p.PageNumber,
			ListingPosition: p.ListingPosition,
		})
	}
	report.MissingLocationCount = len(report.MissingLocation)

	if err := r.writeJSON(AnomaliesFile, report); err != nil {
		return report.MissingLocationCount, err
	}
	return report.MissingLocationCount, nil
}

// CaptureAndLog takes a timestamped screenshot named after name.
func (r *Recorder) CaptureAndLog(s Screenshotter, name, message string) error {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	r.logger.Info("📸 "+message, zap.String("path", path))

	if err := s.Screenshot(path); err != nil {
		r.logger.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return err
	}
	return nil
}

func (r *Recorder) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	r.logger.Info("💾 Saved debug file", zap.String("path", path))
	return nil
}
