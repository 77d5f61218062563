package activitypub

import (
	"net/url"
	"strings"

	"github.com/mrlokans/fediarchive/internal/entities"
)

// ClassifyVisibility derives a post's visibility from its audience:
// public in to, public in cc, a followers collection in to, else direct.
func ClassifyVisibility(to, cc []string) entities.Visibility {
	if containsPublic(to) {
		return entities.VisibilityPublic
	}
	if containsPublic(cc) {
		return entities.VisibilityUnlisted
	}
	for _, addr := range to {
		if isFollowersCollection(addr) {
			return entities.VisibilityPrivate
		}
	}
	return entities.VisibilityDirect
}

func containsPublic(addrs []string) bool {
	for _, addr := range addrs {
		if publicAliases[strings.TrimSpace(addr)] {
			return true
		}
	}
	return false
}

func isFollowersCollection(addr string) bool {
	if u, err := url.Parse(addr); err == nil && u.Path != "" {
		return strings.Contains(u.Path, "followers")
	}
	return strings.Contains(addr, "followers")
}
