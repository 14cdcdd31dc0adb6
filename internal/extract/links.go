package extract

import (
	"net/url"
	"strings"
)

// HostMatcher reports whether a host belongs to the platform. urlnorm.Family
// satisfies it.
type HostMatcher interface {
	Contains(host string) bool
}

// OutboundLinks keeps absolute http(s) links whose host is outside the
// platform family, de-duplicated in order and capped at limit (limit <= 0
// means uncapped).
func OutboundLinks(hrefs []string, family HostMatcher, limit int) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, href := range hrefs {
		if limit > 0 && len(out) >= limit {
			break
		}
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			continue
		}
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			continue
		}
		if family != nil && family.Contains(u.Host) {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, href)
	}
	return out
}
