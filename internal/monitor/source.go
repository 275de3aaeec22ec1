package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ot-job-monitor/internal/artifacts"
	"ot-job-monitor/internal/browser"
	"ot-job-monitor/internal/config"
	"ot-job-monitor/internal/scraper"
	"ot-job-monitor/internal/scraper/oturoc"
)

// BrowserSource scrapes the listing with a real browser. Every Fetch starts
// and tears down its own browser.
type BrowserSource struct {
	cfg      *config.Config
	recorder *artifacts.Recorder
	logger   *zap.Logger
}

// NewBrowserSource builds a source from cfg. recorder may be nil; when set,
// raw pages and failure screenshots are written to it.
func NewBrowserSource(cfg *config.Config, recorder *artifacts.Recorder, logger *zap.Logger) *BrowserSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserSource{cfg: cfg, recorder: recorder, logger: logger}
}

func (s *BrowserSource) Fetch(ctx context.Context) ([]scraper.Posting, error) {
	cookies, err := browser.LoadCookies(s.cfg.CookiesPath)
	if err != nil {
		s.logger.Warn("⚠️ Could not load cookies, continuing without", zap.Error(err))
		cookies = nil
	}

	pm, err := browser.NewPlaywright(ctx, browser.Options{
		Headless: s.cfg.HeadlessMode(browser.DetectHeadless),
	}, s.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pm.Close(); err != nil {
			s.logger.Warn("⚠️ Failed to close browser", zap.Error(err))
		}
	}()

	page, err := pm.NewPage(cookies)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	opts := scraper.PaginatorOptions{
		NextSelector: s.cfg.NextSelector,
		OpenSettle:   s.cfg.OpenSettle,
		ClickSettle:  s.cfg.ClickSettle,
	}
	if s.recorder != nil {
		opts.Recorder = s.recorder
	}

	extractor := oturoc.NewExtractor(s.cfg.ListingURL, s.cfg.ItemSelector, s.logger)
	paginator := scraper.NewPaginator(page, extractor, opts, s.logger)

	postings, err := paginator.Run(ctx, s.cfg.ListingURL)
	if err != nil {
		if s.recorder != nil {
			_ = s.recorder.CaptureAndLog(page, "pagination_error", "Pagination failed, capturing page")
		}
		return postings, fmt.Errorf("paginate: %w", err)
	}
	return postings, nil
}
