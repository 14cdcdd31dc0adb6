// Package reconcile folds the partial records of every strategy into one
// record per URL.
//
// Scalars keep the first non-empty value in strategy order (interactive
// before passive), sets take the ordered union, and the error survives only
// when no contribution supplied a title or body. Strategy order is fixed, so
// the result does not depend on which strategy finished first.
package reconcile

import (
	"sort"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

// Merge groups records by URL and folds each group. Output order is the
// first-seen order of URLs in records.
func Merge(records []post.PartialRecord) []post.MergedRecord {
	var order []string
	groups := make(map[string][]post.PartialRecord)
	for _, rec := range records {
		if _, ok := groups[rec.URL]; !ok {
			order = append(order, rec.URL)
		}
		groups[rec.URL] = append(groups[rec.URL], rec)
	}

	out := make([]post.MergedRecord, 0, len(order))
	for _, u := range order {
		out = append(out, Fold(groups[u]))
	}
	return out
}

// Fold merges contributions for a single URL. The input slice is not
// modified.
func Fold(group []post.PartialRecord) post.MergedRecord {
	sorted := append([]post.PartialRecord(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Strategy < sorted[j].Strategy
	})

	merged := post.MergedRecord{
		ExternalLinks: []string{},
		Emails:        []string{},
		Phones:        []string{},
	}
	var firstErr *string
	for _, rec := range sorted {
		if merged.URL == "" {
			merged.URL = rec.URL
		}
		merged.Title = firstString(merged.Title, rec.Title)
		merged.Author = firstString(merged.Author, rec.Author)
		merged.Subreddit = firstString(merged.Subreddit, rec.Subreddit)
		merged.Content = firstString(merged.Content, rec.Content)
		merged.UpvotesRaw = firstString(merged.UpvotesRaw, rec.UpvotesRaw)
		merged.UpvotesNum = firstInt(merged.UpvotesNum, rec.UpvotesNum)
		merged.CommentsRaw = firstString(merged.CommentsRaw, rec.CommentsRaw)
		merged.CommentsNum = firstInt(merged.CommentsNum, rec.CommentsNum)
		merged.TimestampText = firstString(merged.TimestampText, rec.TimestampText)
		merged.ExternalLinks = union(merged.ExternalLinks, rec.ExternalLinks)
		merged.Emails = union(merged.Emails, rec.Emails)
		merged.Phones = union(merged.Phones, rec.Phones)
		if merged.ScrapedAt == 0 {
			merged.ScrapedAt = rec.ScrapedAt
		}
		firstErr = firstString(firstErr, rec.Error)
	}

	if !post.NonEmpty(merged.Title) && !post.NonEmpty(merged.Content) {
		merged.Error = firstErr
	}
	return merged
}

func firstString(current, candidate *string) *string {
	if post.NonEmpty(current) {
		return current
	}
	if post.NonEmpty(candidate) {
		v := *candidate
		return &v
	}
	return current
}

func firstInt(current, candidate *int64) *int64 {
	if current != nil {
		return current
	}
	if candidate != nil {
		v := *candidate
		return &v
	}
	return nil
}

func union(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
