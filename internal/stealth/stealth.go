// Package stealth picks the randomized browser identity a batch presents to
// the target site: user agent, viewport, timezone, request headers and the
// navigator overrides injected into every page.
package stealth

import (
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// DefaultUserAgents is the desktop user-agent pool.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// DefaultTimezones is the timezone pool.
var DefaultTimezones = []string{
	"America/Los_Angeles",
	"Europe/London",
	"Asia/Kolkata",
	"America/New_York",
}

// Header values sent with every request.
const (
	DefaultAcceptLanguage = "en-US,en;q=0.9"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
	DefaultLocale         = "en-US"
)

// SpoofScript runs before any page script and hides common automation markers.
const SpoofScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});`

// Config bounds the randomized identity. Seed 0 seeds from the clock.
type Config struct {
	UserAgents     []string
	MinWidth       int
	MaxWidth       int
	MinHeight      int
	MaxHeight      int
	Timezones      []string
	Locale         string
	AcceptLanguage string
	Accept         string
	Seed           int64
}

// DefaultConfig returns the stock identity bounds.
func DefaultConfig() Config {
	return Config{
		UserAgents:     append([]string(nil), DefaultUserAgents...),
		MinWidth:       1200,
		MaxWidth:       1400,
		MinHeight:      700,
		MaxHeight:      900,
		Timezones:      append([]string(nil), DefaultTimezones...),
		Locale:         DefaultLocale,
		AcceptLanguage: DefaultAcceptLanguage,
		Accept:         DefaultAccept,
	}
}

// Viewport is the emulated window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Identity is one concrete draw from a Config.
type Identity struct {
	UserAgent      string
	Viewport       Viewport
	Timezone       string
	Locale         string
	AcceptLanguage string
	Accept         string
}

// Headers returns the extra request headers for the identity, including the
// user agent.
func (i Identity) Headers() http.Header {
	h := http.Header{}
	if i.UserAgent != "" {
		h.Set("User-Agent", i.UserAgent)
	}
	if i.AcceptLanguage != "" {
		h.Set("Accept-Language", i.AcceptLanguage)
	}
	if i.Accept != "" {
		h.Set("Accept", i.Accept)
	}
	return h
}

// Generator draws identities and delays from a single seeded source. It is
// safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	cfg Config
}

// NewGenerator builds a Generator, filling unset bounds from DefaultConfig.
func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = def.UserAgents
	}
	if len(cfg.Timezones) == 0 {
		cfg.Timezones = def.Timezones
	}
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = def.MinWidth
	}
	if cfg.MaxWidth < cfg.MinWidth {
		cfg.MaxWidth = max(def.MaxWidth, cfg.MinWidth)
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = def.MinHeight
	}
	if cfg.MaxHeight < cfg.MinHeight {
		cfg.MaxHeight = max(def.MaxHeight, cfg.MinHeight)
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = def.AcceptLanguage
	}
	if cfg.Accept == "" {
		cfg.Accept = def.Accept
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // presentation jitter only
		cfg: cfg,
	}
}

// Identity draws a user agent, viewport and timezone.
func (g *Generator) Identity() Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Identity{
		UserAgent: g.cfg.UserAgents[g.rng.Intn(len(g.cfg.UserAgents))],
		Viewport: Viewport{
			Width:  g.cfg.MinWidth + g.rng.Intn(g.cfg.MaxWidth-g.cfg.MinWidth+1),
			Height: g.cfg.MinHeight + g.rng.Intn(g.cfg.MaxHeight-g.cfg.MinHeight+1),
		},
		Timezone:       g.cfg.Timezones[g.rng.Intn(len(g.cfg.Timezones))],
		Locale:         g.cfg.Locale,
		AcceptLanguage: g.cfg.AcceptLanguage,
		Accept:         g.cfg.Accept,
	}
}

// Uniform returns a duration drawn uniformly from [lo, hi).
func (g *Generator) Uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + time.Duration(g.rng.Int63n(int64(hi-lo)))
}

// Fork returns an independent source seeded from g, for consumers such as
// the navigation backoff that want their own *rand.Rand.
func (g *Generator) Fork() *rand.Rand {
	g.mu.Lock()
	defer g.mu.Unlock()
	return rand.New(rand.NewSource(g.rng.Int63())) //nolint:gosec // presentation jitter only
}
