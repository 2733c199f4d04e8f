package authc

import "strings"

const (
	// MatchAll accepts every group
	MatchAll = "*"

	wildcard = "*"
)

// GroupFilter is a comma separated list of group names. A name ending
// with '*' matches every group starting with the rest of it. The empty
// filter turns membership retrieval off.
type GroupFilter string

// Enabled reports whether memberships should be retrieved at all
func (f GroupFilter) Enabled() bool {
	return len(f) != 0
}

// Accept reports whether any pattern matches the group name
func (f GroupFilter) Accept(name string) bool {
	if string(f) == MatchAll {
		return true
	}

	accept := false
	for _, pattern := range strings.Split(string(f), ",") {
		pattern = strings.TrimSpace(pattern)
		if strings.HasSuffix(pattern, wildcard) {
			if strings.HasPrefix(name, strings.TrimSuffix(pattern, wildcard)) {
				accept = true
			}
		} else if name == pattern {
			accept = true
		}
	}

	return accept
}
