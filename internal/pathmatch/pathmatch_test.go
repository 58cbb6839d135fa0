package pathmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixMatching(t *testing.T) {
	m := Prefixes([]string{"/health", "/auth/login"})

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/live", true},
		{"/healthz", true},
		{"/auth/login", true},
		{"/auth/login/extra", true},
		{"/auth/refresh", false},
		{"/", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Matches(tt.path), "path %q", tt.path)
	}
}

func TestRouteMatching(t *testing.T) {
	m := Routes([]string{"/health", "/docs"})

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/live", true},
		{"/healthz", false},
		{"/docs", true},
		{"/docs/openapi.json", true},
		{"/documents", false},
		{"/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Matches(tt.path), "path %q", tt.path)
	}
}

func TestZeroValueMatchesNothing(t *testing.T) {
	var m Matcher
	assert.False(t, m.Matches("/anything"))
}

func TestBlankEntriesIgnored(t *testing.T) {
	m := Prefixes([]string{" ", "", "/ok"})
	assert.False(t, m.Matches("/other"))
	assert.True(t, m.Matches("/ok"))
}
