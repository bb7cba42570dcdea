package dataset

import (
	"fmt"
	"net/url"
	"strings"
)

// IdentityParser derives an ArticleIdentity from a snapshot or article URL.
//
// Accepted shapes:
//
//	http(s)://web.archive.org/web/<timestamp>[modifier]/http(s)://<category>.<domain>/.../c/<index>/...
//	http(s)://<category>.<domain>/.../c/<index>/...
//
// The category is the single host label in front of Domain and the index is
// the all-digit path segment following a "c" segment. A URL with zero or
// several index segments, a host outside Domain, or a host with no (or more
// than one) label in front of Domain is rejected with ErrIdentity.
type IdentityParser struct {
	Domain string
}

// NewIdentityParser returns a parser for articles served under domain.
func NewIdentityParser(domain string) IdentityParser {
	return IdentityParser{Domain: strings.ToLower(strings.Trim(domain, ". "))}
}

// Parse derives the identity of rawURL.
func (p IdentityParser) Parse(rawURL string) (ArticleIdentity, error) {
	target, err := p.articleURL(strings.TrimSpace(rawURL))
	if err != nil {
		return ArticleIdentity{}, err
	}
	category, err := p.category(target.Hostname())
	if err != nil {
		return ArticleIdentity{}, err
	}
	index, err := articleIndex(target.EscapedPath())
	if err != nil {
		return ArticleIdentity{}, err
	}
	return ArticleIdentity{Index: index, Category: category}, nil
}

// articleURL unwraps the archived target from a wayback snapshot URL, or
// returns the URL itself when it already is an article URL.
func (p IdentityParser) articleURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty url", ErrIdentity)
	}
	outer, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrIdentity, raw, err)
	}
	if !isHTTPScheme(outer.Scheme) {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrIdentity, raw)
	}
	if !strings.HasPrefix(outer.Path, "/web/") {
		return outer, nil
	}

	// /web/<timestamp>/<target...>; the target keeps its own scheme.
	rest := raw[strings.Index(raw, "/web/")+len("/web/"):]
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 {
		return nil, fmt.Errorf("%w: snapshot without target in %q", ErrIdentity, raw)
	}
	if !isSnapshotTimestamp(rest[:slash]) {
		return nil, fmt.Errorf("%w: malformed snapshot timestamp in %q", ErrIdentity, raw)
	}
	inner, err := url.Parse(rest[slash+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: parse archived target of %q: %v", ErrIdentity, raw, err)
	}
	if !isHTTPScheme(inner.Scheme) || inner.Host == "" {
		return nil, fmt.Errorf("%w: archived target is not an absolute url in %q", ErrIdentity, raw)
	}
	return inner, nil
}

func (p IdentityParser) category(host string) (string, error) {
	host = strings.ToLower(host)
	suffix := "." + p.Domain
	if p.Domain == "" || !strings.HasSuffix(host, suffix) {
		return "", fmt.Errorf("%w: host %q is outside %q", ErrIdentity, host, p.Domain)
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") {
		return "", fmt.Errorf("%w: host %q has no single category label", ErrIdentity, host)
	}
	return label, nil
}

func articleIndex(escapedPath string) (string, error) {
	segments := strings.Split(strings.Trim(escapedPath, "/"), "/")
	var found []string
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "c" && segments[i+1] != "" {
			found = append(found, segments[i+1])
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no article index in path %q", ErrIdentity, escapedPath)
	case 1:
	default:
		return "", fmt.Errorf("%w: %d article indexes in path %q", ErrIdentity, len(found), escapedPath)
	}
	if !isDigits(found[0]) {
		return "", fmt.Errorf("%w: non-numeric article index %q", ErrIdentity, found[0])
	}
	return found[0], nil
}

func isHTTPScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

// isSnapshotTimestamp accepts 1-14 digits optionally followed by a replay
// modifier such as "id_" or "if_".
func isSnapshotTimestamp(s string) bool {
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 14 {
		return false
	}
	modifier := s[digits:]
	return modifier == "" || (strings.HasSuffix(modifier, "_") && len(modifier) <= 4)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
