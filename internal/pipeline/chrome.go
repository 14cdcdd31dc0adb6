package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/fetcher/headless"
	"github.com/sivamaran/reddit-scraper/internal/stealth"
)

// ChromeOpener opens chromedp-backed sessions.
type ChromeOpener struct {
	cfg    headless.Config
	logger *zap.Logger
}

// NewChromeOpener builds a ChromeOpener.
func NewChromeOpener(cfg headless.Config, logger *zap.Logger) *ChromeOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeOpener{cfg: cfg, logger: logger}
}

// Open implements SessionOpener.
func (c *ChromeOpener) Open(ctx context.Context, identity stealth.Identity) (Session, error) {
	s, err := headless.Open(ctx, c.cfg, identity, c.logger)
	if err != nil {
		return nil, err
	}
	return chromeSession{Session: s}, nil
}

type chromeSession struct {
	*headless.Session
}

func (c chromeSession) NewPage(ctx context.Context) (Page, error) {
	p, err := c.Session.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}
