package discovery

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/linkengine/internal/domain"
)

// governmentTLDs are second-level suffixes used by national administrations.
var governmentTLDs = []string{
	".gov", ".gouv.fr", ".gov.uk", ".gc.ca", ".admin.ch",
	".bund.de", ".gob.es", ".gov.it", ".gov.pl", ".europa.eu",
}

// referenceDomains host encyclopedic or standards material.
var referenceDomains = []string{
	"wikipedia.org", "britannica.com", "iso.org", "oecd.org",
}

// newsDomains are recognized news publishers.
var newsDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk",
	"lemonde.fr", "spiegel.de", "elpais.com",
}

// classifySource maps a URL onto a source type with a base authority score.
// Heuristics only; the score feeds the minimum-authority filter, not ranking
// inside a type.
func classifySource(rawURL string) (domain.SourceType, int) {
	host := hostOf(rawURL)
	if host == "" {
		return domain.SourceAuthority, 0
	}

	for _, tld := range governmentTLDs {
		if host == strings.TrimPrefix(tld, ".") || strings.HasSuffix(host, tld) {
			return domain.SourceGovernment, 95
		}
	}
	// Known publishers before the generic .org suffix so wikipedia.org and
	// friends keep their own type.
	for _, d := range referenceDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return domain.SourceReference, 75
		}
	}
	for _, d := range newsDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return domain.SourceNews, 70
		}
	}
	if strings.HasSuffix(host, ".int") || strings.HasSuffix(host, ".org") {
		return domain.SourceOrganization, 80
	}

	return domain.SourceAuthority, 50
}

// hostOf returns the lowercased host without a www prefix, empty when the
// URL does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}
