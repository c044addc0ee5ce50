package connectors

import (
	"net/url"
	"strings"
)

// Registry dispatches a URL to the connector registered for the platform
// it matches, falling back to a generic connector when nothing matches.
// Specific third-party connectors (GitHub, npm, etc.) are out of scope
// here; the fallback is the only entry registered by default, but the
// dispatch contract itself is part of the scanner's interface.
type Registry struct {
	patterns []patternEntry
	fallback Connector
}

type patternEntry struct {
	hostSuffix string
	connector  Connector
}

// NewRegistry builds a Registry backed by fallback for any URL that
// matches no registered host pattern.
func NewRegistry(fallback Connector) *Registry {
	return &Registry{fallback: fallback}
}

// Register associates a host suffix (e.g. "github.com") with a connector.
// Later registrations take priority over earlier ones for overlapping
// suffixes.
func (r *Registry) Register(hostSuffix string, c Connector) {
	r.patterns = append([]patternEntry{{hostSuffix: strings.ToLower(hostSuffix), connector: c}}, r.patterns...)
}

// PlatformName identifies the registry itself; the platform a given Fetch
// actually reports comes from the dispatched connector's Result.
func (r *Registry) PlatformName() string { return "registry" }

// Fetch dispatches rawURL to the first connector whose host pattern
// matches, or the fallback connector if none does.
func (r *Registry) Fetch(rawURL string) (Result, error) {
	return r.connectorFor(rawURL).Fetch(rawURL)
}

func (r *Registry) connectorFor(rawURL string) Connector {
	host := strings.ToLower(hostOf(rawURL))
	for _, p := range r.patterns {
		if p.hostSuffix != "" && strings.HasSuffix(host, p.hostSuffix) {
			return p.connector
		}
	}
	return r.fallback
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
