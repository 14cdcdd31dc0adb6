package extract

import (
	"time"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

// Rules is the selector set one strategy uses for every field.
type Rules struct {
	Title     FieldRule
	Subreddit FieldRule
	Author    FieldRule
	Timestamp FieldRule
	Upvotes   FieldRule
	Comments  FieldRule
	Content   ParagraphRule
}

// Limits bounds the link scan.
type Limits struct {
	// AnchorScanLimit is how many anchors are inspected, in document order.
	AnchorScanLimit int
	// MaxLinks caps the outbound links kept per record.
	MaxLinks int
}

// DefaultLimits scans the first 100 anchors and keeps at most 20 links.
var DefaultLimits = Limits{AnchorScanLimit: 100, MaxLinks: 20}

// Clock supplies the scrape timestamp.
type Clock interface {
	Now() time.Time
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Extractor turns a Document into a PartialRecord.
type Extractor struct {
	strategy post.Strategy
	rules    Rules
	family   HostMatcher
	limits   Limits
	clock    Clock
}

// NewExtractor builds an Extractor. A nil clock uses time.Now; zero limits
// fall back to DefaultLimits.
func NewExtractor(strategy post.Strategy, rules Rules, family HostMatcher, limits Limits, clock Clock) *Extractor {
	if limits.AnchorScanLimit <= 0 {
		limits.AnchorScanLimit = DefaultLimits.AnchorScanLimit
	}
	if limits.MaxLinks <= 0 {
		limits.MaxLinks = DefaultLimits.MaxLinks
	}
	if clock == nil {
		clock = clockFunc(time.Now)
	}
	return &Extractor{
		strategy: strategy,
		rules:    rules,
		family:   family,
		limits:   limits,
		clock:    clock,
	}
}

// Strategy returns the strategy stamped on produced records.
func (e *Extractor) Strategy() post.Strategy {
	return e.strategy
}

// ScrapedAt returns the current scrape timestamp in unix seconds.
func (e *Extractor) ScrapedAt() int64 {
	return e.clock.Now().Unix()
}

// Extract applies every rule to doc. The record carries ErrTextExtraction
// when neither a title nor a body was found. A nil doc yields that error too.
func (e *Extractor) Extract(doc *Document, rawURL string) post.PartialRecord {
	rec := post.PartialRecord{
		URL:           rawURL,
		Strategy:      e.strategy,
		ExternalLinks: []string{},
		Emails:        []string{},
		Phones:        []string{},
		ScrapedAt:     e.ScrapedAt(),
	}
	if doc == nil {
		rec.Error = post.String(post.ErrTextExtraction)
		return rec
	}

	title := e.rules.Title.Apply(doc)
	content := e.rules.Content.Apply(doc)
	rec.Title = post.String(title)
	rec.Content = post.String(content)
	rec.Subreddit = post.String(e.rules.Subreddit.Apply(doc))
	rec.Author = post.String(e.rules.Author.Apply(doc))
	rec.TimestampText = post.String(e.rules.Timestamp.Apply(doc))

	if upvotes := e.rules.Upvotes.Apply(doc); upvotes != "" {
		rec.UpvotesRaw = post.String(upvotes)
		rec.UpvotesNum = CompactToInt(upvotes)
	}
	if comments := e.rules.Comments.Apply(doc); comments != "" {
		rec.CommentsRaw = post.String(comments)
		rec.CommentsNum = CompactToInt(CountToken(comments))
	}

	rec.ExternalLinks = OutboundLinks(doc.Hrefs(e.limits.AnchorScanLimit), e.family, e.limits.MaxLinks)
	contacts := FindContacts(title, content)
	rec.Emails = contacts.Emails
	rec.Phones = contacts.Phones

	if !rec.HasText() {
		rec.Error = post.String(post.ErrTextExtraction)
	}
	return rec
}
