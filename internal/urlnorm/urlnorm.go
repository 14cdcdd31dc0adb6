// Package urlnorm prepares input URLs for extraction: it de-duplicates the
// batch and computes the mirror-host fallback for the platform's domain family.
package urlnorm

import (
	"net/url"
	"slices"
	"strings"
)

// Dedupe trims every entry, drops empties and removes duplicates while keeping
// the first-seen order.
func Dedupe(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Family is a platform's set of registrable domains plus its mirror host.
// Only the mirror-eligible subset of the domains is rewritten by MirrorOf;
// the rest (short-link and media hosts) serve paths the mirror does not.
type Family struct {
	domains    []string
	mirrorable []string
	mirror     string
}

// NewFamily builds a Family. Domains match themselves and any subdomain;
// leading "*." or "." prefixes are accepted and ignored. The mirror-eligible
// domains default to those the mirror host itself belongs to.
func NewFamily(domains []string, mirrorHost string) Family {
	f := Family{
		domains: normalizeDomains(domains),
		mirror:  strings.ToLower(strings.TrimSpace(mirrorHost)),
	}
	if f.mirror != "" {
		for _, d := range f.domains {
			if hostUnder(f.mirror, d) {
				f.mirrorable = append(f.mirrorable, d)
			}
		}
	}
	return f
}

// WithMirrorDomains returns a copy of f whose mirror-eligible domains are
// replaced by domains. An empty list keeps the current set.
func (f Family) WithMirrorDomains(domains []string) Family {
	if d := normalizeDomains(domains); len(d) > 0 {
		f.mirrorable = d
	}
	return f
}

func normalizeDomains(raw []string) []string {
	var out []string
	for _, r := range raw {
		d := strings.TrimSpace(strings.ToLower(r))
		d = strings.TrimPrefix(d, "*.")
		d = strings.TrimPrefix(d, ".")
		if d == "" || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func hostUnder(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func matchHost(host string, domains []string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if host == "" {
		return false
	}
	for _, d := range domains {
		if hostUnder(host, d) {
			return true
		}
	}
	return false
}

// MirrorHost returns the configured mirror host.
func (f Family) MirrorHost() string {
	return f.mirror
}

// Contains reports whether host (optionally with a port) belongs to the family.
func (f Family) Contains(host string) bool {
	return matchHost(host, f.domains)
}

// ContainsURL reports whether rawURL parses and its host belongs to the family.
func (f Family) ContainsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return f.Contains(u.Host)
}

// MirrorOf rewrites rawURL onto the mirror host when its host is
// mirror-eligible and is not already the mirror. Anything else, including unparseable input,
// is returned unchanged. MirrorOf(MirrorOf(u)) == MirrorOf(u).
func (f Family) MirrorOf(rawURL string) string {
	if f.mirror == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	if !matchHost(u.Host, f.mirrorable) || strings.EqualFold(u.Hostname(), f.mirror) {
		return rawURL
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = f.mirror
	return u.String()
}
