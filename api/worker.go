package api

import (
	"context"

	"isnad/scanner"
)

// ScanDiscoveredAgents sweeps the declared "platform" endpoint of every
// agent in the discovery registry and records the outcomes the same way
// triggerScan does for an explicit request. Returns the number of targets
// swept, for the caller's own logging. Grounded on the teacher's periodic
// reconciliation workers (fixed-interval sweep over a registry) adapted to
// the scanner/discovery packages.
func (a *App) ScanDiscoveredAgents(ctx context.Context) int {
	a.discoveryMu.RLock()
	profiles := a.Discovery.All()
	a.discoveryMu.RUnlock()
	targets := make([]scanner.Target, 0, len(profiles))
	for _, p := range profiles {
		url, ok := p.Endpoints["platform"]
		if !ok || url == "" {
			continue
		}
		targets = append(targets, scanner.Target{AgentID: p.AgentID, URL: url})
	}
	if len(targets) == 0 {
		return 0
	}

	outcomes := a.Scanner.Scan(ctx, targets)
	a.upsertPlatformData(outcomes)
	a.Bus.Publish(newEvent("platform.scanned", outcomes))
	return len(targets)
}
