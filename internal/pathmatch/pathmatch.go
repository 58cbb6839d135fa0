// Package pathmatch provides the shared exclusion-list matcher used by the
// auth and rate-limit middlewares.
package pathmatch

import "strings"

type mode int

const (
	modePrefix mode = iota
	modeRoute
)

// Matcher checks request paths against a static exclusion list. The zero
// value matches nothing.
type Matcher struct {
	paths []string
	mode  mode
}

// Prefixes builds a matcher that matches any path starting with one of the
// configured prefixes.
func Prefixes(paths []string) Matcher {
	return Matcher{paths: clean(paths), mode: modePrefix}
}

// Routes builds a matcher that matches a configured path exactly, or any of
// its sub-paths ("/health" matches "/health" and "/health/ready" but not
// "/healthz").
func Routes(paths []string) Matcher {
	return Matcher{paths: clean(paths), mode: modeRoute}
}

// Matches reports whether the given request path is on the exclusion list.
func (m Matcher) Matches(path string) bool {
	for _, p := range m.paths {
		switch m.mode {
		case modePrefix:
			if strings.HasPrefix(path, p) {
				return true
			}
		case modeRoute:
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
	}
	return false
}

func clean(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
