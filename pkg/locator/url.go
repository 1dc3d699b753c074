package locator

import (
	"net/netip"
	"regexp"
	"strings"
)

// urlPattern matches absolute http(s) URLs up to the first character that
// cannot be part of a literal URL inside serialized JSON or an expression.
var urlPattern = regexp.MustCompile("(?i)\\bhttps?://[^\\s\"'<>\\\\{}$`]+")

// urlStart marks where a URL begins, including URLs embedded in another
// URL's path or query.
var urlStart = regexp.MustCompile(`(?i)\bhttps?://`)

const trailingPunctuation = ".,;:!?)"

// urlTerminators are the characters urlPattern never consumes.
const urlTerminators = "\t\n\f\r \"'<>\\{}$`"

// URLs returns the absolute URLs found in text, excluding loopback hosts and
// hosts on the keep list. The result is deduplicated by exact string and
// ordered by first occurrence.
func URLs(text []byte, keep []string) []string {
	return findURLs(text, func(host string) bool {
		return !IsLoopbackHost(host) && !keepHost(host, keep)
	})
}

// LoopbackURLs returns the URLs found in text whose host is a loopback host.
func LoopbackURLs(text []byte) []string {
	return findURLs(text, IsLoopbackHost)
}

func findURLs(text []byte, include func(host string) bool) []string {
	var urls []string
	seen := map[string]struct{}{}
	for _, match := range urlPattern.FindAll(text, -1) {
		for _, candidate := range embeddedURLs(string(match)) {
			u := strings.TrimRight(candidate, trailingPunctuation)
			host := Host(u)
			if host == "" || !include(host) {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// embeddedURLs returns match followed by every URL nested inside it, such as
// a redirect target in the query string. Each nested URL runs to the end of
// match and is classified by its own host.
func embeddedURLs(match string) []string {
	starts := urlStart.FindAllStringIndex(match, -1)
	if len(starts) == 0 {
		return []string{match}
	}
	out := make([]string, 0, len(starts))
	for _, loc := range starts {
		out = append(out, match[loc[0]:])
	}
	return out
}

// Bounded reports whether text[start:end] stands as a whole URL rather than
// a fragment of a longer one. It must not follow a word character and must be
// followed by the end of a URL or by one of / ? # :.
func Bounded(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end >= len(text) || strings.IndexByte("/?#:", text[end]) >= 0 {
		return true
	}
	i := end
	for i < len(text) && strings.IndexByte(trailingPunctuation, text[i]) >= 0 {
		i++
	}
	return i == len(text) || strings.IndexByte(urlTerminators, text[i]) >= 0
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// Host returns the lower-cased host of an absolute URL without scheme,
// userinfo and port. IPv6 hosts are returned without brackets.
func Host(rawURL string) string {
	_, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return ""
		}
		return strings.ToLower(rest[1:end])
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return strings.ToLower(rest)
}

// IsLoopbackHost reports whether host points at the local machine.
func IsLoopbackHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsUnspecified()
}

// IsIP reports whether host is a bare IP address.
func IsIP(host string) bool {
	_, err := netip.ParseAddr(host)
	return err == nil
}

func keepHost(host string, keep []string) bool {
	for _, k := range keep {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if host == k || strings.HasSuffix(host, "."+k) {
			return true
		}
	}
	return false
}
