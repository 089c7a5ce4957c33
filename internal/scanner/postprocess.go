package scanner

import (
	"fmt"
	"net/url"
	"project-portal/internal/classifier"
	"project-portal/internal/domain"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var loopbackPortRegex = regexp.MustCompile(`:(\d+)`)

// finalize applies the fixed post-processing steps in order
func (a *analysis) finalize(defaultPort int) {
	if len(a.info.Ports) == 0 {
		a.info.Ports = append(a.info.Ports, defaultPort)
	}
	sort.Ints(a.info.Ports)

	if len(a.info.URLs) == 0 {
		for _, port := range a.info.Ports {
			a.addURL(domain.URLEntry{
				Type:  domain.URLMain,
				URL:   localURL(port),
				Label: fmt.Sprintf("Main (port %d)", port),
				Port:  port,
			})
		}
	}

	for i := range a.info.URLs {
		if a.info.URLs[i].Port == 0 {
			if port, ok := explicitPort(a.info.URLs[i].URL); ok {
				a.info.URLs[i].Port = port
			}
		}
	}

	a.info.URLs = DedupeURLs(a.info.URLs)
	SortURLs(a.info.URLs)
}

// explicitPort reads a port written in the URL itself, never a scheme default
func explicitPort(rawURL string) (int, bool) {
	if u, err := url.Parse(rawURL); err == nil && u.Port() != "" {
		port, err := strconv.Atoi(u.Port())
		return port, err == nil
	}
	if !strings.Contains(rawURL, "localhost") {
		return 0, false
	}
	match := loopbackPortRegex.FindStringSubmatch(rawURL)
	if match == nil {
		return 0, false
	}
	port, err := strconv.Atoi(match[1])
	return port, err == nil
}

// DedupeURLs keeps one entry per (url, type) at the position of the first
// occurrence, preferring an entry that records its source file
func DedupeURLs(urls []domain.URLEntry) []domain.URLEntry {
	type key struct {
		url     string
		urlType domain.URLType
	}

	result := make([]domain.URLEntry, 0, len(urls))
	seen := make(map[key]int, len(urls))
	for _, entry := range urls {
		k := key{url: entry.URL, urlType: entry.Type}
		idx, ok := seen[k]
		if !ok {
			seen[k] = len(result)
			result = append(result, entry)
			continue
		}
		if entry.Source != "" && result[idx].Source == "" {
			result[idx] = entry
		}
	}
	return result
}

// SortURLs orders entries by category priority, then by ascending port
func SortURLs(urls []domain.URLEntry) {
	sort.SliceStable(urls, func(i, j int) bool {
		pi, pj := classifier.Priority(urls[i].Type), classifier.Priority(urls[j].Type)
		if pi != pj {
			return pi < pj
		}
		return urls[i].Port < urls[j].Port
	})
}
