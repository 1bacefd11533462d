package service

import (
	"regexp"
	"strings"
)

var tmePattern = regexp.MustCompile(`t\.me/([^/?]+)`)

// ExtractGroupRef normalizes a group link to the reference the platform API
// resolves: t.me URLs and @-prefixed names become bare usernames, numeric
// chat ids pass through untouched.
func ExtractGroupRef(link string) (string, error) {
	link = strings.TrimSpace(link)

	if strings.Contains(link, "t.me/") {
		if m := tmePattern.FindStringSubmatch(link); m != nil {
			link = m[1]
		}
	}

	link = strings.TrimPrefix(link, "@")

	if link == "" {
		return "", ErrInvalidGroupLink
	}

	return link, nil
}
