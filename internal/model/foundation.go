package model

import (
	"fmt"
	"net/url"
	"strings"
)

// Foundation is a grant-making organization, the unit of partition for all
// per-entity caps and dedupe keys.
type Foundation struct {
	ID         string `json:"foundation_id"`
	Name       string `json:"foundation_name"`
	WebsiteURL string `json:"website_url"`
	Domain     string `json:"domain"`
}

// FoundationID formats a 1-based ordinal as a stable foundation ID (F001, F002, ...).
func FoundationID(ordinal int) string {
	return fmt.Sprintf("F%03d", ordinal)
}

// RegistrableDomain extracts a registrable domain like "example.org" from a
// website URL. Returns "" when the URL has no usable host.
func RegistrableDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	// Keep three labels for two-part public suffixes like org.uk, otherwise two.
	if len(parts) >= 3 {
		secondLevel := parts[len(parts)-2]
		switch secondLevel {
		case "co", "org", "ac", "gov", "edu", "net", "com":
			if len(parts[len(parts)-1]) == 2 {
				return strings.Join(parts[len(parts)-3:], ".")
			}
		}
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
