package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/burns-20/bwrank/internal/config"
	pw "github.com/playwright-community/playwright-go"
)

// Browser opens isolated sessions, one per server, so cookies of one realm
// never leak into the next login.
type Browser interface {
	Open(ctx context.Context) (Session, error)
	Close() error
}

// Session is a logged-in (or logging-in) browser tab.
type Session interface {
	Login(ctx context.Context, server config.Server, cred Credentials) error
	// RankPage returns the HTML of leaderboard page n (1-based).
	RankPage(ctx context.Context, server config.Server, n int) (string, error)
	Close() error
}

// BrowserOptions configures the playwright browser.
type BrowserOptions struct {
	Engine    string // chromium, firefox or webkit
	Headless  bool
	TimeoutMS float64
}

// PlaywrightBrowser drives a real browser through playwright.
type PlaywrightBrowser struct {
	pw      *pw.Playwright
	browser pw.Browser
	timeout float64
}

// LaunchBrowser starts playwright and the configured engine.
func LaunchBrowser(opts BrowserOptions) (*PlaywrightBrowser, error) {
	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var engine pw.BrowserType
	switch strings.ToLower(opts.Engine) {
	case "", "firefox":
		engine = instance.Firefox
	case "chromium", "chrome":
		engine = instance.Chromium
	case "webkit":
		engine = instance.WebKit
	default:
		_ = instance.Stop()
		return nil, fmt.Errorf("unknown browser %q", opts.Engine)
	}

	browser, err := engine.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
	})
	if err != nil {
		_ = instance.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return &PlaywrightBrowser{pw: instance, browser: browser, timeout: opts.TimeoutMS}, nil
}

// Open creates a fresh browser context and page.
func (b *PlaywrightBrowser) Open(_ context.Context) (Session, error) {
	bctx, err := b.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	if b.timeout > 0 {
		page.SetDefaultTimeout(b.timeout)
		page.SetDefaultNavigationTimeout(b.timeout)
	}
	return &playwrightSession{bctx: bctx, page: page}, nil
}

// Close shuts the browser and the playwright driver down.
func (b *PlaywrightBrowser) Close() error {
	if err := b.browser.Close(); err != nil {
		_ = b.pw.Stop()
		return fmt.Errorf("close browser: %w", err)
	}
	return b.pw.Stop()
}

type playwrightSession struct {
	bctx pw.BrowserContext
	page pw.Page
}

const (
	loginField    = "[name=login]"
	passwordField = "[name=password]"
	realmSelect   = "#i_realm"
	submitButton  = "input[type=submit]"
	continueLink  = "Cliquez ici"
)

func (s *playwrightSession) Login(_ context.Context, server config.Server, cred Credentials) error {
	p := s.page
	if _, err := p.Goto(server.PortalURL); err != nil {
		return fmt.Errorf("%w: open portal: %v", ErrLoginFailed, err)
	}
	if err := p.Locator(loginField).WaitFor(); err != nil {
		return fmt.Errorf("%w: no login form: %v", ErrLoginFailed, err)
	}

	realm := []string{server.Realm}
	if _, err := p.Locator(realmSelect).SelectOption(pw.SelectOptionValues{Values: &realm}); err != nil {
		return fmt.Errorf("%w: select realm %s: %v", ErrLoginFailed, server.Realm, err)
	}
	if err := p.Locator(loginField).Fill(cred.Login); err != nil {
		return fmt.Errorf("%w: fill login: %v", ErrLoginFailed, err)
	}
	if err := p.Locator(passwordField).Fill(cred.Password); err != nil {
		return fmt.Errorf("%w: fill password: %v", ErrLoginFailed, err)
	}
	if err := p.Locator(submitButton).First().Click(); err != nil {
		return fmt.Errorf("%w: submit: %v", ErrLoginFailed, err)
	}
	_ = p.WaitForLoadState()

	// some realms show an interstitial before redirecting to the server
	link := p.GetByText(continueLink).First()
	if n, _ := link.Count(); n > 0 {
		if err := link.Click(); err == nil {
			_ = p.WaitForLoadState()
		}
	}

	if !strings.HasPrefix(p.URL(), server.ServerURL) {
		return fmt.Errorf("%w: landed on %s", ErrLoginFailed, p.URL())
	}
	for _, sel := range []string{loginField, passwordField} {
		if n, _ := p.Locator(sel).Count(); n > 0 {
			return fmt.Errorf("%w: login form still present", ErrLoginFailed)
		}
	}
	return nil
}

func (s *playwrightSession) RankPage(_ context.Context, server config.Server, n int) (string, error) {
	if _, err := s.page.Goto(RankURL(server, n)); err != nil {
		return "", fmt.Errorf("open rank page %d: %w", n, err)
	}
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("read rank page %d: %w", n, err)
	}
	return html, nil
}

func (s *playwrightSession) Close() error {
	return s.bctx.Close()
}

// RankURL returns the address of leaderboard page n.
func RankURL(server config.Server, n int) string {
	return fmt.Sprintf("%s/?a=rank&page=%d", strings.TrimRight(server.ServerURL, "/"), n)
}
