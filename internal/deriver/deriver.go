package deriver

import (
	"fmt"
	"project-portal/internal/domain"
	"regexp"
	"strconv"
)

var loopbackRegex = regexp.MustCompile(`(?i)https?://(?:localhost|127\.0\.0\.1):(\d+)`)

// Config controls which network variants are produced
type Config struct {
	LANIP         string
	VPNIP         string
	ShowLocalhost bool
	ShowLAN       bool
	ShowVPN       bool
}

// Deriver expands loopback URLs into localhost, LAN and VPN variants
type Deriver struct {
	config Config
}

// NewDeriver creates a new URL deriver
func NewDeriver(config Config) *Deriver {
	return &Deriver{config: config}
}

// Expand returns the network-scoped variants of urls in input order.
// Loopback entries fan out into localhost/LAN/VPN; everything else is external.
func (d *Deriver) Expand(urls []domain.URLEntry) []domain.URLEntry {
	expanded := make([]domain.URLEntry, 0, len(urls))

	for _, entry := range urls {
		if entry.Network == domain.NetworkExternal {
			expanded = append(expanded, entry)
			continue
		}

		port, ok := loopbackPort(entry.URL)
		if !ok {
			entry.Network = domain.NetworkExternal
			expanded = append(expanded, entry)
			continue
		}

		if d.config.ShowLocalhost {
			expanded = append(expanded, variant(entry, "localhost", port, domain.NetworkLocalhost, "localhost"))
		}
		if d.config.ShowLAN && d.config.LANIP != "" {
			expanded = append(expanded, variant(entry, d.config.LANIP, port, domain.NetworkLAN, "LAN"))
		}
		if d.config.ShowVPN && d.config.VPNIP != "" {
			expanded = append(expanded, variant(entry, d.config.VPNIP, port, domain.NetworkVPN, "VPN"))
		}
	}

	return expanded
}

func loopbackPort(rawURL string) (int, bool) {
	m := loopbackRegex.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return port, true
}

func variant(entry domain.URLEntry, host string, port int, network domain.Network, suffix string) domain.URLEntry {
	label := entry.Label
	if label == "" {
		label = string(entry.Type)
	}
	if label == "" {
		label = "Port"
	}

	return domain.URLEntry{
		Type:    entry.Type,
		URL:     fmt.Sprintf("http://%s:%d", host, port),
		Label:   fmt.Sprintf("%s (%s)", label, suffix),
		Port:    port,
		Source:  entry.Source,
		Network: network,
	}
}
