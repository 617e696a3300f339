// Package validation checks user-supplied watchlist feed URLs before the
// importer fetches them.
package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrLocalhost      = errors.New("localhost URLs are not permitted")
	ErrPrivateAddress = errors.New("private IP addresses are not permitted")
)

// FeedURLValidator validates watchlist feed URLs
type FeedURLValidator struct {
	// AllowLocalhost permits loopback hosts
	AllowLocalhost bool
	// AllowPrivateIPs permits private, link-local and unspecified addresses
	AllowPrivateIPs bool
	MaxLength       int
}

// NewFeedURLValidator creates a validator with secure defaults
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: 2048}
}

// NewPermissiveFeedURLValidator creates a validator that allows local servers
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a feed URL and returns the normalized
// version: https is assumed when no scheme is given, the host is
// lowercased and any fragment is dropped.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", ErrEmptyURL
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if u.User != nil {
		return "", fmt.Errorf("URL must not embed credentials")
	}

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func (v *FeedURLValidator) checkHost(hostname string) error {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		if !v.AllowLocalhost {
			return ErrLocalhost
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// dotted numbers that are not an address, e.g. 999.1.1.1
		if strings.Trim(host, "0123456789.") == "" {
			return fmt.Errorf("invalid host %q", hostname)
		}
		return nil
	}
	addr = addr.Unmap()

	if addr.IsLoopback() && !v.AllowLocalhost {
		return ErrLocalhost
	}
	if !v.AllowPrivateIPs && !addr.IsLoopback() && isInternal(addr) {
		return ErrPrivateAddress
	}
	return nil
}

func isInternal(addr netip.Addr) bool {
	return addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() ||
		addr == netip.AddrFrom4([4]byte{255, 255, 255, 255})
}
