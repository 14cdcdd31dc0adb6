// Package schema projects merged records onto the persisted document shape.
package schema

import "github.com/sivamaran/reddit-scraper/internal/post"

// Mapper stamps the platform and source tags onto every document.
type Mapper struct {
	Platform string
	Source   string
}

// NewMapper builds a Mapper.
func NewMapper(platform, source string) Mapper {
	return Mapper{Platform: platform, Source: source}
}

// Map is total: absent strings become "", counts stay nil unless parsed, and
// lists are never nil.
func (m Mapper) Map(rec post.MergedRecord) post.Document {
	doc := post.Document{
		URL:         rec.URL,
		Platform:    m.Platform,
		ContentType: post.ContentTypePost,
		Source:      m.Source,
		Profile: post.Profile{
			Username: post.Deref(rec.Author),
		},
		Post: post.Body{
			Title:     post.Deref(rec.Title),
			Body:      post.Deref(rec.Content),
			Subreddit: post.Deref(rec.Subreddit),
		},
		Engagement: post.Engagement{
			NumComments: copyInt(rec.CommentsNum),
			NumUpvotes:  copyInt(rec.UpvotesNum),
		},
		ContactInfo: post.ContactInfo{
			Emails: nonNil(rec.Emails),
			Phones: nonNil(rec.Phones),
		},
		ExternalLinks: nonNil(rec.ExternalLinks),
		Posted:        post.Deref(rec.TimestampText),
	}
	if post.NonEmpty(rec.Error) {
		msg := *rec.Error
		doc.Error = &msg
	}
	return doc
}

// MapAll maps every record, preserving order.
func (m Mapper) MapAll(recs []post.MergedRecord) []post.Document {
	out := make([]post.Document, 0, len(recs))
	for _, rec := range recs {
		out = append(out, m.Map(rec))
	}
	return out
}

func copyInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNil(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
