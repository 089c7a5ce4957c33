package prober

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var portSuffixRegex = regexp.MustCompile(`:(\d+)`)

// Endpoint extracts the host and port a URL points at. Without an explicit
// port the scheme default is used (https 443, http 80).
func Endpoint(rawURL string) (string, int, bool) {
	u, err := url.Parse(rawURL)
	if err == nil && u.Hostname() != "" {
		host := u.Hostname()
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return "", 0, false
			}
			return host, port, true
		}

		switch strings.ToLower(u.Scheme) {
		case "https":
			return host, 443, true
		case "http":
			return host, 80, true
		default:
			return "", 0, false
		}
	}

	// unparseable input: only trust a bare port on a loopback URL
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "localhost") || strings.Contains(lower, "127.0.0.1") {
		if m := portSuffixRegex.FindStringSubmatch(rawURL); m != nil {
			if port, err := strconv.Atoi(m[1]); err == nil {
				return "localhost", port, true
			}
		}
	}

	return "", 0, false
}
