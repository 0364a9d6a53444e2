package webhook

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ValidateEndpoint checks that a webhook destination is a plausible delivery
// target: an absolute http(s) URL whose host either carries a recognized
// public suffix or appears in allowHosts (for internal receivers without a
// public DNS name).
func ValidateEndpoint(endpoint string, allowHosts []string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint scheme must be http or https, got %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("endpoint host is required")
	}

	for _, allowed := range allowHosts {
		if host == strings.ToLower(strings.TrimSpace(allowed)) {
			return nil
		}
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || etld1 == "" {
		return fmt.Errorf("endpoint host %q has no recognized public suffix", host)
	}
	return nil
}
