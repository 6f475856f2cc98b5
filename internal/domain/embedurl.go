package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidEmbedURL is returned when a URL fails the analytics allow-list.
	ErrInvalidEmbedURL = errors.New("invalid embed url")
	// ErrValidation marks admin input that cannot be persisted.
	ErrValidation = errors.New("validation failed")
)

// EmbedHosts lists the hosts allowed to serve analytics embeds.
var EmbedHosts = []string{"dune.com", "dune.xyz"}

// EmbedPathPrefix is the required path prefix of an analytics embed.
const EmbedPathPrefix = "/embeds/"

// ValidateEmbedURL checks raw against the analytics embed allow-list.
// The admin API and the renderer both call it, so a URL accepted at
// authoring time is also accepted at render time.
func ValidateEmbedURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmbedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmbedURL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidEmbedURL, u.Scheme)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !isEmbedHost(host) {
		return fmt.Errorf("%w: host %q not allowed", ErrInvalidEmbedURL, u.Hostname())
	}
	if !strings.HasPrefix(u.Path, EmbedPathPrefix) {
		return fmt.Errorf("%w: path %q must start with %s", ErrInvalidEmbedURL, u.Path, EmbedPathPrefix)
	}
	return nil
}

// IsValidEmbedURL is the boolean form of ValidateEmbedURL.
func IsValidEmbedURL(raw string) bool {
	return ValidateEmbedURL(raw) == nil
}

func isEmbedHost(host string) bool {
	for _, h := range EmbedHosts {
		if host == h {
			return true
		}
	}
	return false
}
