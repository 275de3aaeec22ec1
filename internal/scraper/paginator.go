package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultNextSelector = "a.arrow.next"
	DefaultOpenSettle   = 2000 * time.Millisecond
	DefaultClickSettle  = 2500 * time.Millisecond
)

// PageRecorder receives the raw markup of every consumed page (debug mode).
type PageRecorder interface {
	RecordPage(pageNumber int, html string)
}

type PaginatorOptions struct {
	NextSelector string
	OpenSettle   time.Duration
	ClickSettle  time.Duration
	Recorder     PageRecorder
}

// Paginator walks a listing page by page and hands every page to the extractor.
type Paginator struct {
	driver    PageDriver
	extractor Extractor
	opts      PaginatorOptions
	logger    *zap.Logger
}

func NewPaginator(driver PageDriver, extractor Extractor, opts PaginatorOptions, logger *zap.Logger) *Paginator {
	if opts.NextSelector == "" {
		opts.NextSelector = DefaultNextSelector
	}
	if opts.OpenSettle == 0 {
		opts.OpenSettle = DefaultOpenSettle
	}
	if opts.ClickSettle == 0 {
		opts.ClickSettle = DefaultClickSettle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{
		driver:    driver,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
	}
}

// Run traverses every page reachable from url. Traversal ends when the markup
// stops changing or the next control disappears. On error the postings
// gathered from earlier pages are returned alongside it.
func (p *Paginator) Run(ctx context.Context, url string) ([]Posting, error) {
	log := p.logger.With(zap.String("site", p.extractor.Name()))
	log.Info("📋 Opening listing", zap.String("url", url))

	if err := p.driver.Open(ctx, url); err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := settle(ctx, p.opts.OpenSettle); err != nil {
		return nil, err
	}

	var (
		all      []Posting
		previous string
		havePrev bool
	)

	for pageNum := 1; ; pageNum++ {
		log.Info("📄 Fetching page", zap.Int("page", pageNum))

		current, err := p.driver.Content()
		if err != nil {
			return all, fmt.Errorf("page %d content: %w", pageNum, err)
		}

		//same markup as the page before: the click did nothing, we are past the end
		if havePrev && current == previous {
			log.Info("🏁 Content unchanged, reached end of pagination", zap.Int("pages", pageNum-1))
			break
		}
		previous, havePrev = current, true

		if p.opts.Recorder != nil {
			p.opts.Recorder.RecordPage(pageNum, current)
		}

		postings, err := p.extractor.Extract(current, pageNum)
		if err != nil {
			return all, fmt.Errorf("page %d extract: %w", pageNum, err)
		}
		log.Info("📦 Extracted postings", zap.Int("page", pageNum), zap.Int("count", len(postings)))
		all = append(all, postings...)

		clicked, err := p.driver.ClickNext(ctx, p.opts.NextSelector)
		if err != nil {
			return all, fmt.Errorf("page %d next: %w", pageNum, err)
		}
		if !clicked {
			log.Info("🏁 No next button, reached last page", zap.Int("pages", pageNum))
			break
		}

		log.Debug("➡️ Clicked next", zap.Int("to_page", pageNum+1))
		if err := settle(ctx, p.opts.ClickSettle); err != nil {
			return all, err
		}
	}

	return all, nil
}

// settle waits d unless ctx ends first
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
