package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	t.Run("chrome on linux", func(t *testing.T) {
		got := ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, got, "Chrome on ")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", ParseUserAgent(""))
	})

	t.Run("whitespace only", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", ParseUserAgent("   "))
	})
}

func TestParseUserAgentGarbage(t *testing.T) {
	got := ParseUserAgent("definitely not a user agent")
	assert.Contains(t, got, " on ")
}
