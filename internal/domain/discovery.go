package domain

import "time"

// DiscoveredSource is one external URL returned by source discovery.
type DiscoveredSource struct {
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Domain         string     `json:"domain"`
	SourceType     SourceType `json:"source_type"`
	AuthorityScore int        `json:"authority_score"`
}

// DiscoveryCacheEntry is the cached result set for one discovery query key.
type DiscoveryCacheEntry struct {
	Theme     string             `json:"theme"`
	Country   string             `json:"country"`
	Pattern   string             `json:"pattern"`
	Sources   []DiscoveredSource `json:"sources"`
	ExpiresAt time.Time          `json:"expires_at"`
}
