package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"ot-job-monitor/internal/scraper"
)

const (
	DefaultEndpoint = "https://translate.google.com/translate_a/single"
	DefaultTimeout  = 10 * time.Second
	DefaultCapacity = 512

	maxQueryRunes = 500
	cacheKeyRunes = 50

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var errEmptyTranslation = errors.New("empty translation")

type Options struct {
	Endpoint   string
	Source     string
	Target     string
	Timeout    time.Duration
	Capacity   int
	Disabled   bool
	HTTPClient *http.Client
}

// Translator turns Chinese listing fields into English on a best-effort
// basis. Create one per run; the cache lives as long as the Translator.
type Translator struct {
	client   *http.Client
	endpoint string
	source   string
	target   string
	disabled bool
	cache    *cache
	logger   *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Translator {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Source == "" {
		opts.Source = "zh-CN"
	}
	if opts.Target == "" {
		opts.Target = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Translator{
		client:   client,
		endpoint: opts.Endpoint,
		source:   opts.Source,
		target:   opts.Target,
		disabled: opts.Disabled,
		cache:    newCache(opts.Capacity),
		logger:   logger,
	}
}

func (t *Translator) Disabled() bool {
	return t.disabled
}

// Text returns the translation of text, or text itself when it is empty or
// the remote call fails.
func (t *Translator) Text(ctx context.Context, text string) string {
	out, err := t.lookup(ctx, text)
	if err != nil {
		t.logger.Debug("Translation failed, keeping original", zap.Error(err))
		return text
	}
	return out
}

// Posting returns a copy of p with the English fields filled in. A field is
// only set when its source is non-empty and the translation succeeded.
func (t *Translator) Posting(ctx context.Context, p scraper.Posting) scraper.Posting {
	if t.disabled {
		return p
	}

	fields := []struct {
		src string
		dst *string
	}{
		{p.Title, &p.TitleEN},
		{p.Location, &p.LocationEN},
		{p.Organization, &p.OrganizationEN},
		{p.EmploymentType, &p.EmploymentTypeEN},
		{p.Salary, &p.SalaryEN},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.src) == "" {
			continue
		}
		out, err := t.lookup(ctx, f.src)
		if err != nil {
			t.logger.Debug("Translation failed, keeping original",
				zap.String("id", p.ID), zap.Error(err))
			continue
		}
		*f.dst = out
	}
	return p
}

func (t *Translator) Postings(ctx context.Context, postings []scraper.Posting) []scraper.Posting {
	if t.disabled || len(postings) == 0 {
		return postings
	}
	out := make([]scraper.Posting, 0, len(postings))
	for _, p := range postings {
		out = append(out, t.Posting(ctx, p))
	}
	return out
}

func (t *Translator) lookup(ctx context.Context, text string) (string, error) {
	if t.disabled {
		return "", errors.New("translation disabled")
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyTranslation
	}

	key := truncateRunes(text, cacheKeyRunes)
	if out, ok := t.cache.get(key); ok {
		return out, nil
	}

	out, err := t.fetch(ctx, text)
	if err != nil {
		return "", err
	}
	t.cache.put(key, out)
	return out, nil
}

func (t *Translator) fetch(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", t.source)
	q.Set("tl", t.target)
	q.Set("dt", "t")
	q.Set("q", truncateRunes(text, maxQueryRunes))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return parseResponse(body)
}

// parseResponse concatenates the translated segments of a response shaped
// like [[["part", "source", ...], ...], ...].
func parseResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(root) == 0 {
		return "", errEmptyTranslation
	}

	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}

	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", errEmptyTranslation
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
