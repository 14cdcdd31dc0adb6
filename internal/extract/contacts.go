package extract

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{8,}\d`)
)

// Contacts holds the contact strings found in a post.
type Contacts struct {
	Emails []string
	Phones []string
}

// FindContacts scans the given texts, joined by newlines, for email-like and
// phone-like substrings. Each list is de-duplicated in first-seen order.
func FindContacts(texts ...string) Contacts {
	blob := strings.Join(texts, "\n")
	return Contacts{
		Emails: OrderedSet(emailPattern.FindAllString(blob, -1)),
		Phones: OrderedSet(trimAll(phonePattern.FindAllString(blob, -1))),
	}
}

func trimAll(in []string) []string {
	for i, s := range in {
		in[i] = strings.TrimSpace(s)
	}
	return in
}

// OrderedSet drops empty and repeated entries, keeping first-seen order. The
// result is never nil.
func OrderedSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
