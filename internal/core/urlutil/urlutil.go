// SPDX-License-Identifier: MIT

// Package urlutil holds URL helpers shared across packages.
package urlutil

import (
	"net/url"
)

// SanitizeURL strips credentials, query and fragment from a URL so it can be
// logged. Video URLs often carry tracking or session parameters in the query.
func SanitizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	parsedURL.RawQuery = ""
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""
	return parsedURL.String()
}
