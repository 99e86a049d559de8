// Package pattern scores candidate addresses against a vanity pattern.
package pattern

import "strings"

// Score counts the positions i < len(pattern) where candidate and pattern
// hold the same byte. Comparison is exact, so casing is significant.
// Positions past the end of candidate never match.
func Score(candidate, pattern string) int {
	n := len(pattern)
	if len(candidate) < n {
		n = len(candidate)
	}
	s := 0
	for i := 0; i < n; i++ {
		if candidate[i] == pattern[i] {
			s++
		}
	}
	return s
}

// IsFullMatch reports whether every character of pattern matches the
// leading characters of candidate.
func IsFullMatch(candidate, pattern string) bool {
	return Score(candidate, pattern) == len(pattern)
}

// IsPossiblePattern reports whether pattern only uses lowercase hex digits.
// Callers should check this before starting a search: the miner does not,
// and an impossible pattern never matches.
func IsPossiblePattern(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Normalize trims whitespace and an optional 0x prefix.
func Normalize(pattern string) string {
	p := strings.TrimSpace(pattern)
	if len(p) >= 2 && (p[0:2] == "0x" || p[0:2] == "0X") {
		p = p[2:]
	}
	return p
}

// Matcher binds a pattern and a casing mode for repeated matching.
type Matcher struct {
	pattern    string
	ignoreCase bool
}

// NewMatcher creates a Matcher. With ignoreCase the pattern is lowercased
// once and compared against the lowercase address.
func NewMatcher(pattern string, ignoreCase bool) *Matcher {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}
	return &Matcher{pattern: pattern, ignoreCase: ignoreCase}
}

// Pattern returns the pattern as compared.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// IgnoreCase reports whether checksum casing is ignored.
func (m *Matcher) IgnoreCase() bool {
	return m.ignoreCase
}

// Score scores an address given in lowercase without 0x. checksummed
// returns the EIP-55 form of the same address and is only called when
// casing matters, so callers can defer computing it.
func (m *Matcher) Score(lower string, checksummed func() string) int {
	if m.ignoreCase {
		return Score(lower, m.pattern)
	}
	return Score(checksummed(), m.pattern)
}

// Len returns the number of characters a full match needs.
func (m *Matcher) Len() int {
	return len(m.pattern)
}
