// Package device turns raw User-Agent strings into human-readable client
// descriptions for audit events and login logging.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a User-Agent as "Browser on Platform". Unknown or
// empty agents degrade to stable placeholder strings instead of failing.
func ParseUserAgent(rawUserAgent string) string {
	if strings.TrimSpace(rawUserAgent) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()
	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if platform == "" {
		platform = "Unknown Platform"
	}
	return browser + " on " + platform
}
