package extract

import "strings"

// Query pulls one candidate value out of a Document. An empty result means
// the query did not match.
type Query func(*Document) string

// FieldRule is an ordered list of queries. The first non-empty result wins.
type FieldRule []Query

// Apply evaluates the rule against d.
func (r FieldRule) Apply(d *Document) string {
	for _, q := range r {
		if v := q(d); v != "" {
			return v
		}
	}
	return ""
}

// Selector matches the text of the first node for sel.
func Selector(sel string) Query {
	return func(d *Document) string {
		return d.First(sel)
	}
}

// Selectors is shorthand for a FieldRule of Selector queries.
func Selectors(sels ...string) FieldRule {
	rule := make(FieldRule, 0, len(sels))
	for _, s := range sels {
		rule = append(rule, Selector(s))
	}
	return rule
}

// Attr matches the first non-empty attribute name on nodes for sel.
func Attr(sel, name string) Query {
	return func(d *Document) string {
		return d.Attr(sel, name)
	}
}

// Meta matches a <meta property=...> or <meta name=...> content value.
func Meta(property string) Query {
	return func(d *Document) string {
		if v := d.Attr(`meta[property="`+property+`"]`, "content"); v != "" {
			return v
		}
		return d.Attr(`meta[name="`+property+`"]`, "content")
	}
}

// ParagraphRule concatenates paragraph-like nodes. The first selector that
// yields any non-empty text wins; its texts are newline-joined in document
// order, limited to the first Limit nodes.
type ParagraphRule struct {
	Selectors []string
	Limit     int
}

// Apply evaluates the rule against d.
func (p ParagraphRule) Apply(d *Document) string {
	for _, sel := range p.Selectors {
		if texts := d.Texts(sel, p.Limit); len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	return ""
}
