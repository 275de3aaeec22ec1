package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ot-job-monitor/internal/filter"
	"ot-job-monitor/internal/metrics"
	"ot-job-monitor/internal/scraper"
)

type fakeSource struct {
	postings []scraper.Posting
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]scraper.Posting, error) {
	return f.postings, f.err
}

type fakeNotifier struct {
	matched []scraper.Posting
	summary []scraper.Posting
	debug   []scraper.Posting
}

func (f *fakeNotifier) SendMatched(ctx context.Context, ps []scraper.Posting) int {
	f.matched = append(f.matched, ps...)
	return len(ps)
}

func (f *fakeNotifier) SendUnmatchedSummary(ctx context.Context, ps []scraper.Posting) int {
	if len(ps) == 0 {
		return 0
	}
	f.summary = append(f.summary, ps...)
	return 1
}

func (f *fakeNotifier) SendDebug(ctx context.Context, ps []scraper.Posting) int {
	f.debug = append(f.debug, ps...)
	return len(ps)
}

type memStore struct {
	ids   map[string]bool
	saves int
}

func newMemStore(ids ...string) *memStore {
	s := &memStore{ids: map[string]bool{}}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s
}

func (s *memStore) Contains(id string) bool { return s.ids[id] }
func (s *memStore) Len() int { return len(s.ids) }

func (s *memStore) Save(ps []scraper.Posting) int {
	s.saves++
	added := 0
	for _, p := range ps {
		if !s.ids[p.ID] {
			s.ids[p.ID] = true
			added++
		}
	}
	return added
}

type suffixTranslator struct{}

func (suffixTranslator) Postings(ctx context.Context, ps []scraper.Posting) []scraper.Posting {
	out := make([]scraper.Posting, len(ps))
	for i, p := range ps {
		p.TitleEN = p.Title + " (en)"
		out[i] = p
	}
	return out
}

// cancellingTranslator cancels the run while translating.
type cancellingTranslator struct {
	cancel context.CancelFunc
}

func (c cancellingTranslator) Postings(ctx context.Context, ps []scraper.Posting) []scraper.Posting {
	c.cancel()
	return ps
}

// ctxNotifier delivers nothing once ctx is done.
type ctxNotifier struct {
	fakeNotifier
}

func (f *ctxNotifier) SendMatched(ctx context.Context, ps []scraper.Posting) int {
	if ctx.Err() != nil {
		return 0
	}
	return f.fakeNotifier.SendMatched(ctx, ps)
}

func (f *ctxNotifier) SendUnmatchedSummary(ctx context.Context, ps []scraper.Posting) int {
	if ctx.Err() != nil {
		return 0
	}
	return f.fakeNotifier.SendUnmatchedSummary(ctx, ps)
}

type fakeRenderer struct {
	table []scraper.Posting
	cards []scraper.Posting
}

func (r *fakeRenderer) RenderTable(ps []scraper.Posting) { r.table = ps }
func (r *fakeRenderer) RenderCards(ps []scraper.Posting) { r.cards = ps }

type fakeRecorder struct {
	postings  []scraper.Posting
	anomalies int
}

func (r *fakeRecorder) SavePostings(ps []scraper.Posting) error {
	r.postings = ps
	return nil
}

func (r *fakeRecorder) SaveAnomalies(ps []scraper.Posting) (int, error) {
	r.anomalies++
	return 0, nil
}

func criteria() filter.Criteria {
	return filter.Criteria{
		Locations:       []string{"台北"},
		ExcludeKeywords: []string{"小兒"},
		StartDateMin:    time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		StartDateMax:    time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
	}
}

func listing() []scraper.Posting {
	return []scraper.Posting{
		{ID: "m1", Title: "職能治療師A", Location: "台北", StartDate: "2026-03-01", FullText: "台北 職能治療師a", PageNumber: 1, ListingPosition: 1},
		{ID: "u1", Title: "職能治療師B", Location: "台中", StartDate: "2026-03-01", FullText: "台中 職能治療師b", PageNumber: 1, ListingPosition: 2},
		{ID: "m2", Title: "職能治療師C", Location: "台北", StartDate: "2026-04-15", FullText: "台北 職能治療師c", PageNumber: 2, ListingPosition: 1},
		{ID: "s1", Title: "職能治療師D", Location: "台北", StartDate: "2026-03-01", FullText: "台北 職能治療師d", PageNumber: 2, ListingPosition: 2},
	}
}

func ids(ps []scraper.Posting) []string {
	return scraper.IDs(ps)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCheck, "check": ModeCheck, "test": ModeTest, "show": ModeShow} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("loop")
	assert.Error(t, err)
}

func TestRun_Check(t *testing.T) {
	store := newMemStore("s1")
	notifier := &fakeNotifier{}
	reg := prometheus.NewRegistry()
	m := New(Deps{
		Source:        &fakeSource{postings: listing()},
		Notifier:      notifier,
		Store:         store,
		Metrics:       metrics.NewMetrics(reg),
		Criteria:      criteria(),
		NewTranslator: func(*zap.Logger) Translator { return suffixTranslator{} },
	}, nil)

	res, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.SummarySent)
	assert.Equal(t, 3, res.NewlyMarked)

	assert.Equal(t, []string{"m1", "m2"}, ids(notifier.matched))
	assert.Equal(t, "職能治療師A (en)", notifier.matched[0].TitleEN)
	assert.Equal(t, []string{"u1"}, ids(notifier.summary))
	assert.Equal(t, "職能治療師B (en)", notifier.summary[0].TitleEN)
	assert.Empty(t, notifier.debug)

	for _, id := range []string{"m1", "m2", "u1", "s1"} {
		assert.True(t, store.Contains(id), id)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.deps.Metrics.RunsTotal.WithLabelValues("check", "success")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.deps.Metrics.SeenSetSize))
}

func TestRun_CheckTwiceDeliversOnce(t *testing.T) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	m := New(Deps{
		Source:   &fakeSource{postings: listing()},
		Notifier: notifier,
		Store:    store,
		Criteria: criteria(),
	}, nil)

	_, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)
	res, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)

	assert.Zero(t, res.Matched)
	assert.Zero(t, res.Unmatched)
	assert.Equal(t, 4, res.Skipped)
	assert.Len(t, notifier.matched, 3)
	assert.Equal(t, 1, store.saves)
}

func TestRun_TestModeIgnoresSeen(t *testing.T) {
	store := newMemStore("s1", "m1")
	notifier := &fakeNotifier{}
	m := New(Deps{
		Source:   &fakeSource{postings: listing()},
		Notifier: notifier,
		Store:    store,
		Criteria: criteria(),
	}, nil)

	res, err := m.Run(context.Background(), ModeTest)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, []string{"m1", "m2", "s1"}, ids(notifier.debug))
	assert.Equal(t, []string{"u1"}, ids(notifier.summary))
	assert.Empty(t, notifier.matched)
	assert.Zero(t, store.saves)
	assert.Equal(t, 2, store.Len())
}

func TestRun_ShowRendersWithoutDelivery(t *testing.T) {
	store := newMemStore("s1")
	renderer := &fakeRenderer{}
	m := New(Deps{
		Source:   &fakeSource{postings: listing()},
		Store:    store,
		Renderer: renderer,
		Criteria: criteria(),
	}, nil)

	res, err := m.Run(context.Background(), ModeShow)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, []string{"m1", "m2", "u1"}, ids(renderer.table))
	assert.Equal(t, []string{"m1", "m2"}, ids(renderer.cards))
	assert.Zero(t, store.saves)
}

func TestRun_PartialResultsContinue(t *testing.T) {
	notifier := &fakeNotifier{}
	m := New(Deps{
		Source:   &fakeSource{postings: listing()[:1], err: errors.New("click timeout")},
		Notifier: notifier,
		Store:    newMemStore(),
		Criteria: criteria(),
	}, nil)

	res, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Equal(t, []string{"m1"}, ids(notifier.matched))
}

func TestRun_FetchFailureNoDelivery(t *testing.T) {
	notifier := &fakeNotifier{}
	store := newMemStore()
	m := New(Deps{
		Source:   &fakeSource{err: errors.New("browser crashed")},
		Notifier: notifier,
		Store:    store,
		Criteria: criteria(),
	}, nil)

	_, err := m.Run(context.Background(), ModeCheck)
	assert.Error(t, err)
	assert.Empty(t, notifier.matched)
	assert.Empty(t, notifier.summary)
	assert.Zero(t, store.saves)
}

func TestRun_NoPostings(t *testing.T) {
	notifier := &fakeNotifier{}
	store := newMemStore()
	m := New(Deps{
		Source:   &fakeSource{},
		Notifier: notifier,
		Store:    store,
		Criteria: criteria(),
	}, nil)

	res, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, notifier.matched)
	assert.Zero(t, store.saves)
}

func TestRun_RequiresNotifier(t *testing.T) {
	m := New(Deps{Source: &fakeSource{postings: listing()}, Criteria: criteria()}, nil)

	_, err := m.Run(context.Background(), ModeCheck)
	assert.ErrorIs(t, err, ErrNoNotifier)
}

func TestRun_RecordsDebugArtifacts(t *testing.T) {
	rec := &fakeRecorder{}
	m := New(Deps{
		Source:   &fakeSource{postings: listing()},
		Notifier: &fakeNotifier{},
		Store:    newMemStore(),
		Recorder: rec,
		Criteria: criteria(),
	}, nil)

	_, err := m.Run(context.Background(), ModeCheck)
	require.NoError(t, err)
	assert.Len(t, rec.postings, 4)
	assert.Equal(t, 1, rec.anomalies)
}

func TestRun_CancelledCheckLeavesSeenSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore("s1")
	notifier := &ctxNotifier{}
	m := New(Deps{
		Source:        &fakeSource{postings: listing()},
		Notifier:      notifier,
		Store:         store,
		Criteria:      criteria(),
		NewTranslator: func(*zap.Logger) Translator { return cancellingTranslator{cancel: cancel} },
	}, nil)

	res, err := m.Run(ctx, ModeCheck)
	require.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, res.Sent)
	assert.Zero(t, res.NewlyMarked)
	assert.Empty(t, notifier.matched)
	assert.Zero(t, store.saves)
	for _, id := range []string{"m1", "m2", "u1"} {
		assert.False(t, store.Contains(id), id)
	}
}
