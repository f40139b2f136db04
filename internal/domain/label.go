package domain

import (
	"regexp"
	"strconv"
)

// DefaultLabelPrefix is the prefix of auto-generated key labels.
const DefaultLabelPrefix = "ssh-key-"

var defaultLabelPattern = regexp.MustCompile(`^ssh-key-([0-9]+)$`)

// NextLabel returns the next free default label given a user's existing
// labels. It scans for labels of the form ssh-key-<n> and returns
// ssh-key-<max+1>; labels not matching the pattern are ignored. With no
// matches the first default label is ssh-key-1.
//
// NextLabel is a pure function: callers that allocate concurrently must
// serialize the surrounding read-allocate-insert sequence themselves.
func NextLabel(labels []string) string {
	max := 0
	for _, label := range labels {
		m := defaultLabelPattern.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Matched digits that overflow int are not usable as a suffix.
			continue
		}
		if n > max {
			max = n
		}
	}
	return DefaultLabelPrefix + strconv.Itoa(max+1)
}
