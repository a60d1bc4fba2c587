package service

import "regexp"

// validName matches spec.md §3: 1..=64 codepoints, [A-Za-z0-9_-]+,
// case-sensitive.
var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateName reports whether name satisfies spec.md §3's naming rule
// for both project and handler names.
func ValidateName(name string) bool {
	return validName.MatchString(name)
}
