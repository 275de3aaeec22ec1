// Package monitor runs one scrape-classify-deliver cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ot-job-monitor/internal/filter"
	"ot-job-monitor/internal/metrics"
	"ot-job-monitor/internal/scraper"
)

type Mode string

const (
	// ModeCheck delivers new postings and marks them seen.
	ModeCheck Mode = "check"
	// ModeTest resends everything in debug format and leaves the seen set alone.
	ModeTest Mode = "test"
	// ModeShow prints new postings to the terminal without delivering anything.
	ModeShow Mode = "show"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCheck, ModeTest, ModeShow:
		return Mode(s), nil
	case "":
		return ModeCheck, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

var ErrNoNotifier = errors.New("mode requires a telegram notifier")

// Source yields every posting currently on the listing. On failure it may
// return the postings collected so far together with the error.
type Source interface {
	Fetch(ctx context.Context) ([]scraper.Posting, error)
}

type Notifier interface {
	SendMatched(ctx context.Context, postings []scraper.Posting) int
	SendUnmatchedSummary(ctx context.Context, postings []scraper.Posting) int
	SendDebug(ctx context.Context, postings []scraper.Posting) int
}

type Translator interface {
	Postings(ctx context.Context, postings []scraper.Posting) []scraper.Posting
}

type SeenStore interface {
	filter.SeenSet
	Save(postings []scraper.Posting) int
	Len() int
}

type Renderer interface {
	RenderTable(postings []scraper.Posting)
	RenderCards(postings []scraper.Posting)
}

// DebugRecorder stores the postings and extraction report of a run.
type DebugRecorder interface {
	SavePostings(postings []scraper.Posting) error
	SaveAnomalies(postings []scraper.Posting) (int, error)
}

type Deps struct {
	Source   Source
	Notifier Notifier
	Store    SeenStore
	Renderer Renderer
	Recorder DebugRecorder
	Metrics  *metrics.Metrics
	Criteria filter.Criteria

	// NewTranslator is called once per run so caches never outlive a run.
	// Nil disables translation.
	NewTranslator func(logger *zap.Logger) Translator
}

type Monitor struct {
	deps   Deps
	logger *zap.Logger
}

// Result summarizes one run.
type Result struct {
	RunID       string
	Mode        Mode
	Total       int
	Matched     int
	Unmatched   int
	Skipped     int
	Sent        int
	SummarySent int
	NewlyMarked int
	Partial     bool
	Duration    time.Duration
}

func New(deps Deps, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{deps: deps, logger: logger}
}

// Run executes one cycle in the given mode.
func (m *Monitor) Run(ctx context.Context, mode Mode) (res Result, err error) {
	start := time.Now()
	res = Result{RunID: uuid.NewString(), Mode: mode}
	log := m.logger.With(zap.String("run_id", res.RunID), zap.String("mode", string(mode)))

	defer func() {
		res.Duration = time.Since(start)
		m.deps.Metrics.ObserveRun(string(mode), err, res.Duration)
		if err != nil {
			log.Error("❌ Run failed", zap.Error(err), zap.Duration("took", res.Duration))
			return
		}
		log.Info("✅ Run completed",
			zap.Int("total", res.Total),
			zap.Int("matched", res.Matched),
			zap.Int("unmatched", res.Unmatched),
			zap.Int("sent", res.Sent),
			zap.Duration("took", res.Duration))
	}()

	if (mode == ModeCheck || mode == ModeTest) && m.deps.Notifier == nil {
		return res, ErrNoNotifier
	}

	log.Info("🚀 Starting run")
	postings, fetchErr := m.deps.Source.Fetch(ctx)
	if fetchErr != nil {
		if len(postings) == 0 {
			return res, fmt.Errorf("scrape listing: %w", fetchErr)
		}
		res.Partial = true
		log.Warn("⚠️ Pagination stopped early, continuing with partial results",
			zap.Int("postings", len(postings)), zap.Error(fetchErr))
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Total = len(postings)
	m.deps.Metrics.AddPages(lastPage(postings))
	log.Info("📋 Found postings", zap.Int("count", res.Total))
	m.recordDebug(log, postings)

	if res.Total == 0 {
		log.Info("ℹ️ No postings found, nothing to deliver")
		return res, nil
	}

	var seen filter.SeenSet
	if mode != ModeTest && m.deps.Store != nil {
		seen = m.deps.Store
	}
	matched, unmatched := filter.Classify(postings, seen, m.deps.Criteria)
	res.Matched = len(matched)
	res.Unmatched = len(unmatched)
	res.Skipped = res.Total - res.Matched - res.Unmatched
	m.deps.Metrics.AddPostings("matched", res.Matched)
	m.deps.Metrics.AddPostings("unmatched", res.Unmatched)
	m.deps.Metrics.AddPostings("seen", res.Skipped)
	log.Info("🔍 Classified postings",
		zap.Int("matched", res.Matched),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("already_seen", res.Skipped))
	for _, p := range unmatched {
		log.Debug("Posting did not match",
			zap.String("id", p.ID),
			zap.String("title", p.Title),
			zap.Any("reasons", filter.Reasons(p, m.deps.Criteria)))
	}

	if res.Matched == 0 && res.Unmatched == 0 {
		log.Info("ℹ️ No new postings")
		return res, nil
	}

	matched, unmatched = m.translate(ctx, log, matched, unmatched)

	switch mode {
	case ModeCheck:
		res.Sent = m.deps.Notifier.SendMatched(ctx, matched)
		res.SummarySent = m.deps.Notifier.SendUnmatchedSummary(ctx, unmatched)
		m.deps.Metrics.AddMessages("matched", res.Sent)
		m.deps.Metrics.AddMessages("summary", res.SummarySent)

		if err := ctx.Err(); err != nil {
			log.Warn("⚠️ Run cancelled before delivery finished, seen set left unchanged", zap.Error(err))
			return res, err
		}
		if m.deps.Store != nil {
			candidates := append(append([]scraper.Posting{}, matched...), unmatched...)
			res.NewlyMarked = m.deps.Store.Save(candidates)
			m.deps.Metrics.SetSeen(m.deps.Store.Len())
		}

	case ModeTest:
		res.Sent = m.deps.Notifier.SendDebug(ctx, matched)
		res.SummarySent = m.deps.Notifier.SendUnmatchedSummary(ctx, unmatched)
		m.deps.Metrics.AddMessages("debug", res.Sent)
		m.deps.Metrics.AddMessages("summary", res.SummarySent)

	case ModeShow:
		if m.deps.Renderer != nil {
			m.deps.Renderer.RenderTable(append(append([]scraper.Posting{}, matched...), unmatched...))
			m.deps.Renderer.RenderCards(matched)
		}

	default:
		return res, fmt.Errorf("unknown mode %q", mode)
	}

	return res, ctx.Err()
}

func (m *Monitor) translate(ctx context.Context, log *zap.Logger, matched, unmatched []scraper.Posting) ([]scraper.Posting, []scraper.Posting) {
	if m.deps.NewTranslator == nil {
		return matched, unmatched
	}
	log.Info("🌐 Translating postings to English", zap.Int("count", len(matched)+len(unmatched)))
	tr := m.deps.NewTranslator(log)
	return tr.Postings(ctx, matched), tr.Postings(ctx, unmatched)
}

func (m *Monitor) recordDebug(log *zap.Logger, postings []scraper.Posting) {
	if m.deps.Recorder == nil {
		return
	}
	if err := m.deps.Recorder.SavePostings(postings); err != nil {
		log.Warn("⚠️ Failed to save postings", zap.Error(err))
	}
	missing, err := m.deps.Recorder.SaveAnomalies(postings)
	if err != nil {
		log.Warn("⚠️ Failed to save extraction anomalies", zap.Error(err))
		return
	}
	if missing > 0 {
		log.Warn("⚠️ Postings without a location", zap.Int("count", missing))
	}
}

func lastPage(postings []scraper.Posting) int {
	n := 0
	for _, p := range postings {
		n = max(n, p.PageNumber)
	}
	return n
}
