// Package extract holds the field extraction rules shared by both fetch
// strategies. A Document wraps parsed HTML; ordered FieldRules pull text out of
// it, and the normalizers turn raw text into counts, contacts and links.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a queryable, already-rendered HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from an HTML body.
func Parse(body []byte) (*Document, error) {
	return FromReader(bytes.NewReader(body))
}

// FromReader builds a Document from r.
func FromReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// First returns the trimmed text of the first node matching selector, or "".
func (d *Document) First(selector string) string {
	if d == nil {
		return ""
	}
	return cleanText(d.doc.Find(selector).First().Text())
}

// Texts returns the non-empty texts of the first limit nodes matching
// selector, in document order. Only the ends are trimmed; inner line breaks
// survive. limit <= 0 means no limit.
func (d *Document) Texts(selector string, limit int) []string {
	if d == nil {
		return nil
	}
	sel := d.doc.Find(selector)
	if limit > 0 && sel.Length() > limit {
		sel = sel.Slice(0, limit)
	}
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// Attr returns the first non-empty value of attribute name among nodes
// matching selector.
func (d *Document) Attr(selector, name string) string {
	if d == nil {
		return ""
	}
	var value string
	d.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(name); ok {
			value = strings.TrimSpace(v)
		}
		return value == ""
	})
	return value
}

// Hrefs returns the absolute hrefs among the first limit anchors. Relative
// and protocol-relative hrefs are skipped, as are hrefs that do not parse.
func (d *Document) Hrefs(limit int) []string {
	if d == nil {
		return nil
	}
	sel := d.doc.Find("a[href]")
	if limit > 0 && sel.Length() > limit {
		sel = sel.Slice(0, limit)
	}
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if u, err := url.Parse(href); err != nil || !u.IsAbs() {
			return
		}
		out = append(out, href)
	})
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
