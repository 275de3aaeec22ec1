package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const navigationTimeout = 60000

// Page drives one listing page. It satisfies scraper.PageDriver.
type Page struct {
	ctx    playwright.BrowserContext
	page   playwright.Page
	logger *zap.Logger
}

func (p *Page) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("🔍 Navigating", zap.String("url", url))
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(navigationTimeout),
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *Page) Content() (string, error) {
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

// ClickNext clicks the first element matching selector. It returns false
// without error when no such element exists.
func (p *Page) ClickNext(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	next := p.page.Locator(selector)
	count, err := next.Count()
	if err != nil {
		return false, fmt.Errorf("locate %q: %w", selector, err)
	}
	if count == 0 {
		return false, nil
	}

	if err := next.First().Click(); err != nil {
		return false, fmt.Errorf("click %q: %w", selector, err)
	}
	return true, nil
}

// Screenshot saves a full-page PNG to path.
func (p *Page) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

func (p *Page) Close() error {
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Close()
	p.ctx = nil
	return err
}
