// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"net/url"
)

var (
	// ErrURLMissing is returned when no URL was supplied.
	ErrURLMissing = errors.New("url not found")
	// ErrURLInvalid is returned when the URL does not parse or is not an absolute http(s) URL.
	ErrURLInvalid = errors.New("invalid url")
)

// VideoURL is the single URL rule shared by the info and download endpoints:
// non-empty, parseable, http or https scheme, non-empty host.
func VideoURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrURLMissing
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrURLInvalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrURLInvalid
	}
	if u.Host == "" {
		return nil, ErrURLInvalid
	}
	return u, nil
}
