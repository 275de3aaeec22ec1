package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Headless  bool
	UserAgent string
	// Install downloads the chromium build before starting the driver.
	Install bool
}

// DetectHeadless reports whether we run under CI, where no display exists.
func DetectHeadless() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// PlaywrightManager owns the driver process and the browser. Close releases
// both and is safe to call more than once.
type PlaywrightManager struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	userAgent string
	logger    *zap.Logger
}

func NewPlaywright(ctx context.Context, opts Options, logger *zap.Logger) (*PlaywrightManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("could not install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	logger.Info("🌐 Browser launched", zap.Bool("headless", opts.Headless))
	return &PlaywrightManager{
		pw:        pw,
		browser:   browser,
		userAgent: ua,
		logger:    logger,
	}, nil
}

// NewPage opens a fresh browser context, seeds it with cookies and returns
// a driver for its single page.
func (pm *PlaywrightManager) NewPage(cookies []playwright.OptionalCookie) (*Page, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(pm.userAgent),
		Locale:    playwright.String("zh-TW"),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &Page{ctx: bctx, page: page, logger: pm.logger}, nil
}

func (pm *PlaywrightManager) Close() error {
	var firstErr error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			firstErr = fmt.Errorf("close browser: %w", err)
		}
		pm.browser = nil
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop playwright: %w", err)
		}
		pm.pw = nil
	}
	return firstErr
}
