package analysis

import "strconv"

// MajorVersion returns the major version of a semver range such as "^16.14.0".
// A single leading ^ or ~ is ignored. ok is false when the constraint does not
// start with a number ("latest", "*", "github:foo/bar", "").
func MajorVersion(constraint string) (major int, ok bool) {
	s := constraint
	if len(s) > 0 && (s[0] == '^' || s[0] == '~') {
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// majorBelow reports whether constraint has a known major version under limit.
func majorBelow(constraint string, limit int) bool {
	major, ok := MajorVersion(constraint)
	return ok && major < limit
}
