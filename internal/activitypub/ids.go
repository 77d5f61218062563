package activitypub

import (
	"net/url"
	"strings"
)

// ExtractID returns the last path segment of uri after trailing slashes are
// removed. A uri without slashes is returned as is.
func ExtractID(uri string) string {
	uri = strings.TrimRight(strings.TrimSpace(uri), "/")
	if uri == "" {
		return ""
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// MediaID is the filename an attachment URL points to, with query and
// fragment removed.
func MediaID(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return ExtractID(rawURL)
}

// boostBaseID strips the "/activity" suffix some servers append to Announce ids
// so the synthesized boost id keeps the status number.
func boostBaseID(activityID string) string {
	id := strings.TrimRight(strings.TrimSpace(activityID), "/")
	id = strings.TrimSuffix(id, "/activity")
	return ExtractID(id)
}

// archivePath turns an href from the actor document into a path inside the
// archive. Absolute URLs keep only their path.
func archivePath(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		href = u.Path
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	for strings.HasPrefix(href, "./") {
		href = href[2:]
	}
	return strings.TrimLeft(href, "/")
}
