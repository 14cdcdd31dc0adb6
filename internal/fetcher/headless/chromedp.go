// Package headless drives a real browser through chromedp. A Session owns
// the browser process and its randomized identity; Pages are tabs derived
// from it that navigate and return the rendered DOM.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/stealth"
)

const defaultNavigationTimeout = 30 * time.Second

// Config controls the browser process.
type Config struct {
	Headless          bool
	NoSandbox         bool
	ExecPath          string
	NavigationTimeout time.Duration
}

// Response is the rendered result of one navigation.
type Response struct {
	Status   int
	FinalURL string
	HTML     string
}

// Session is one browser process presenting a single stealth identity.
type Session struct {
	cfg             Config
	identity        stealth.Identity
	logger          *zap.Logger
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	closeOnce       sync.Once
}

// Open launches the browser and waits for it to come up. The returned
// Session must be closed.
func Open(ctx context.Context, cfg Config, identity stealth.Identity, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}

	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(identity.Viewport.Width, identity.Viewport.Height),
	)
	if identity.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(identity.UserAgent))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	stopForward := forwardCancel(ctx, browserCancel)
	defer stopForward()
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	logger.Info("browser session opened",
		zap.String("user_agent", truncate(identity.UserAgent, 80)),
		zap.Int("viewport_width", identity.Viewport.Width),
		zap.Int("viewport_height", identity.Viewport.Height),
		zap.String("timezone", identity.Timezone),
	)
	return &Session{
		cfg:             cfg,
		identity:        identity,
		logger:          logger,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
	}, nil
}

// Identity returns the presentation the session was opened with.
func (s *Session) Identity() stealth.Identity {
	return s.identity
}

// NewPage opens a tab and applies the stealth overrides to it.
func (s *Session) NewPage(ctx context.Context) (*Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	stopForward := forwardCancel(ctx, cancelTab)
	defer stopForward()
	if err := chromedp.Run(tabCtx, s.stealthSetup()); err != nil {
		cancelTab()
		return nil, fmt.Errorf("prepare page: %w", err)
	}
	return &Page{
		tabCtx:  tabCtx,
		cancel:  cancelTab,
		timeout: s.cfg.NavigationTimeout,
		logger:  s.logger,
	}, nil
}

func (s *Session) stealthSetup() chromedp.Action {
	id := s.identity
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if id.UserAgent != "" {
			override := emulation.SetUserAgentOverride(id.UserAgent)
			if id.AcceptLanguage != "" {
				override = override.WithAcceptLanguage(id.AcceptLanguage)
			}
			if err := override.Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if id.Viewport.Width > 0 && id.Viewport.Height > 0 {
			metrics := emulation.SetDeviceMetricsOverride(int64(id.Viewport.Width), int64(id.Viewport.Height), 1, false)
			if err := metrics.Do(ctx); err != nil {
				return fmt.Errorf("set viewport: %w", err)
			}
		}
		if id.Timezone != "" {
			if err := emulation.SetTimezoneOverride(id.Timezone).Do(ctx); err != nil {
				return fmt.Errorf("set timezone: %w", err)
			}
		}
		if id.Locale != "" {
			if err := emulation.SetLocaleOverride().WithLocale(id.Locale).Do(ctx); err != nil {
				return fmt.Errorf("set locale: %w", err)
			}
		}
		headers := id.Headers()
		headers.Del("User-Agent")
		if len(headers) > 0 {
			if err := network.SetExtraHTTPHeaders(toNetworkHeaders(headers)).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(stealth.SpoofScript).Do(ctx); err != nil {
			return fmt.Errorf("add init script: %w", err)
		}
		return nil
	})
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.browserCancel()
		s.allocatorCancel()
		s.logger.Debug("browser session closed")
	})
	return nil
}

// Page is a single browser tab. It is not safe for concurrent use.
type Page struct {
	tabCtx    context.Context
	cancel    context.CancelFunc
	timeout   time.Duration
	logger    *zap.Logger
	closeOnce sync.Once
}

// Navigate loads rawURL, waits for the body and returns the rendered HTML.
// A navigation that exceeds the page timeout wraps post.ErrNavigationTimeout.
func (p *Page) Navigate(ctx context.Context, rawURL string) (Response, error) {
	taskCtx, cancelTask := context.WithTimeout(p.tabCtx, p.timeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	var html, finalURL string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() == nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("navigate %s: %w", rawURL, post.ErrNavigationTimeout)
		}
		return Response{}, fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	status, resolved := meta.snapshot(rawURL, finalURL)
	p.logger.Debug("page rendered",
		zap.String("url", rawURL),
		zap.String("final_url", resolved),
		zap.Int("status", status),
		zap.Int("bytes", len(html)),
	)
	return Response{Status: status, FinalURL: resolved, HTML: html}, nil
}

// Close closes the tab. It is safe to call more than once.
func (p *Page) Close() error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(p.cancel)
	return nil
}

type responseMeta struct {
	mu     sync.Mutex
	status int
	url    string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// the last document response is the one after redirects
	m.status = int(resp.Response.Status)
	m.url = resp.Response.URL
}

func (m *responseMeta) snapshot(requestURL, finalURL string) (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	switch {
	case finalURL != "":
		return status, finalURL
	case m.url != "":
		return status, m.url
	default:
		return status, requestURL
	}
}

// forwardCancel cancels a chromedp context when parent is done, so caller
// cancellation reaches contexts that are not derived from it.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func toNetworkHeaders(h http.Header) network.Headers {
	headers := network.Headers{}
	for key, values := range h {
		switch len(values) {
		case 0:
		case 1:
			headers[key] = values[0]
		default:
			headers[key] = append([]string(nil), values...)
		}
	}
	return headers
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
