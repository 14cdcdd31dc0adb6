// Package post defines the records shared by the extraction pipeline: the
// per-strategy partial view of a post, the reconciled record keyed by URL, and
// the flat document handed to storage.
package post

// Strategy identifies which extractor produced a PartialRecord. The numeric
// value is the fold precedence used by the reconciler: lower folds first.
type Strategy int

// Known strategies, in precedence order.
const (
	StrategyInteractive Strategy = iota
	StrategyPassive
)

// String returns the label used in logs and metrics.
func (s Strategy) String() string {
	switch s {
	case StrategyInteractive:
		return "interactive"
	case StrategyPassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Constant document tags.
const (
	ContentTypePost = "post"

	// ErrTextExtraction is recorded when no selector produced a title or body.
	ErrTextExtraction = "Failed to extract"
	// ErrTextNavigationTimeout is recorded when every navigation attempt timed out.
	ErrTextNavigationTimeout = "Navigation timeout"
)

// PartialRecord is one strategy's view of one URL. Optional scalars are nil
// when the strategy found nothing; an empty string is never stored.
type PartialRecord struct {
	URL           string
	Strategy      Strategy
	Title         *string
	Author        *string
	Subreddit     *string
	Content       *string
	UpvotesRaw    *string
	UpvotesNum    *int64
	CommentsRaw   *string
	CommentsNum   *int64
	TimestampText *string
	ExternalLinks []string
	Emails        []string
	Phones        []string
	ScrapedAt     int64
	Error         *string
}

// HasText reports whether the record carries a usable title or body.
func (r PartialRecord) HasText() bool {
	return NonEmpty(r.Title) || NonEmpty(r.Content)
}

// MergedRecord is the fold of every PartialRecord sharing a canonical URL.
type MergedRecord struct {
	URL           string
	Title         *string
	Author        *string
	Subreddit     *string
	Content       *string
	UpvotesRaw    *string
	UpvotesNum    *int64
	CommentsRaw   *string
	CommentsNum   *int64
	TimestampText *string
	ExternalLinks []string
	Emails        []string
	Phones        []string
	ScrapedAt     int64
	Error         *string
}

// Document is the fixed output shape persisted downstream, one per URL.
type Document struct {
	URL           string      `json:"url"`
	Platform      string      `json:"platform"`
	ContentType   string      `json:"content_type"`
	Source        string      `json:"source"`
	Profile       Profile     `json:"profile"`
	Post          Body        `json:"post"`
	Engagement    Engagement  `json:"engagement"`
	ContactInfo   ContactInfo `json:"contact_info"`
	ExternalLinks []string    `json:"external_links"`
	Posted        string      `json:"posted"`
	Error         *string     `json:"error,omitempty"`
}

// Profile describes the post author.
type Profile struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
}

// Body holds the post text.
type Body struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Subreddit string `json:"subreddit"`
}

// Engagement counts are null unless a count parsed to an integer.
type Engagement struct {
	NumComments *int64 `json:"num_comments"`
	NumUpvotes  *int64 `json:"num_upvotes"`
}

// ContactInfo lists contact strings found in the post text.
type ContactInfo struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64 returns a pointer to n.
func Int64(n int64) *int64 {
	return &n
}

// NonEmpty reports whether p points at a non-empty string.
func NonEmpty(p *string) bool {
	return p != nil && *p != ""
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
