package geoip

import (
	"context"
	"net"
	"strings"
	"sync"
)

const (
	locationUnknown = "Unknown"
	locationLocal   = "Local Network"
)

// StaticResolver maps IP addresses to coarse location labels from a static
// table, with sentinel labels for private and unparseable addresses. It keeps
// session enrichment deterministic without an external geo service; a lookup
// never fails.
type StaticResolver struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewStaticResolver creates a resolver seeded with the given ip-to-location
// table. A nil table is valid; everything resolves to a sentinel.
func NewStaticResolver(entries map[string]string) *StaticResolver {
	table := make(map[string]string, len(entries))
	for ip, location := range entries {
		table[strings.TrimSpace(ip)] = location
	}
	return &StaticResolver{entries: table}
}

func (r *StaticResolver) Resolve(_ context.Context, ipAddress string) string {
	ipAddress = strings.TrimSpace(ipAddress)
	if ipAddress == "" {
		return locationUnknown
	}

	r.mu.RLock()
	location, ok := r.entries[ipAddress]
	r.mu.RUnlock()
	if ok {
		return location
	}

	parsed := net.ParseIP(ipAddress)
	if parsed == nil {
		return locationUnknown
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return locationLocal
	}
	return locationUnknown
}

// Add registers a mapping at runtime. Used by operational tooling and tests.
func (r *StaticResolver) Add(ipAddress, location string) {
	r.mu.Lock()
	r.entries[strings.TrimSpace(ipAddress)] = location
	r.mu.Unlock()
}
