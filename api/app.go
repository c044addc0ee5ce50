// Package api exposes the ledger, trust engine, and supporting services
// over HTTP (spec §6's REST surface) using a chi router, grounded on the
// teacher's gateway/routes package for request shape and error handling.
package api

import (
	"path/filepath"
	"sync"
	"time"

	"isnad/config"
	"isnad/delegation"
	"isnad/discovery"
	"isnad/eventbus"
	"isnad/identity"
	"isnad/ledger"
	"isnad/monitoring"
	"isnad/policy"
	"isnad/scanner"
	"isnad/scanner/connectors"
	"isnad/storage"
	"isnad/storage/jsonlstore"
	"isnad/storage/leveldbstore"
	"isnad/storage/memstore"
	"isnad/storage/sqlstore"
	"isnad/trust"
)

// App holds every wired service the HTTP surface dispatches to. Its
// fields are safe for concurrent use: the ledger and delegation registry
// guard themselves, discoveryMu/policyMu/platformMu guard the registries
// that don't.
type App struct {
	cfg *config.Config

	backend    storage.Backend
	Ledger     *ledger.Ledger
	Trust      *trust.Engine
	Delegation *delegation.Registry

	discoveryMu sync.RWMutex
	Discovery   *discovery.Registry

	policyMu sync.RWMutex
	Policies map[string]*policy.Policy

	platformMu sync.RWMutex
	platform   map[string]map[string]scanner.PlatformDatum // agentID -> platform_url -> datum

	Scanner *scanner.Scanner
	Bus     *eventbus.Bus
	Monitor *monitoring.HealthMonitor
	Metrics *monitoring.Exporter

	Identity *identity.Identity
}

// New wires every service from cfg. It opens the configured storage
// backend, bootstraps (or loads) the service's own signing identity, and
// seeds the policy store with the three standard presets.
func New(cfg *config.Config) (*App, error) {
	backend, err := openBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}

	l := ledger.New(backend)

	id, err := identity.LoadOrCreate(filepath.Join(cfg.DataDir, "node_identity.json"))
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(eventbus.DefaultHistoryCap)
	if cfg.Webhook.Enabled && cfg.Webhook.Endpoint != "" {
		dispatcher, err := eventbus.NewWebhookDispatcher(cfg.Webhook.Endpoint, []byte(cfg.Webhook.Secret))
		if err != nil {
			return nil, err
		}
		bus.Subscribe("*", dispatcher.Handler())
	}

	window := time.Duration(cfg.Monitoring.WindowSeconds) * time.Second
	monitor := monitoring.NewHealthMonitor(window, nil)
	exporter := monitoring.NewExporter(monitor)

	timeout := time.Duration(cfg.Scanner.TimeoutSeconds) * time.Second
	connectorRegistry := connectors.NewRegistry(connectors.NewGenericConnector(timeout))
	sc := scanner.New(connectorRegistry, cfg.Scanner.RequestsPerSecond, cfg.Scanner.Concurrency)

	app := &App{
		cfg:        cfg,
		backend:    backend,
		Ledger:     l,
		Trust:      trust.NewEngine(l),
		Delegation: delegation.NewRegistry(l),
		Discovery:  discovery.NewRegistry(),
		Policies:   defaultPolicies(),
		platform:   make(map[string]map[string]scanner.PlatformDatum),
		Scanner:    sc,
		Bus:        bus,
		Monitor:    monitor,
		Metrics:    exporter,
		Identity:   id,
	}
	return app, nil
}

func defaultPolicies() map[string]*policy.Policy {
	return map[string]*policy.Policy{
		"strict-commerce":  policy.StrictCommercePolicy(),
		"open-discovery":   policy.OpenDiscoveryPolicy(),
		"scoped-delegation": policy.ScopedDelegationPolicy(nil),
	}
}

func openBackend(cfg config.Storage) (storage.Backend, error) {
	switch cfg.Backend {
	case "sqlite":
		return sqlstore.Open(cfg.Path)
	case "jsonl":
		return jsonlstore.Open(cfg.Path)
	case "leveldb":
		return leveldbstore.Open(cfg.Path)
	default:
		return memstore.New(), nil
	}
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.backend.Close()
}

// EraseAgent performs the compliance erasure operation (spec §4.2/§6):
// every ledger record referencing agentID as subject, witness, target, or
// revoker is removed from the backend, and its platform scan data is
// dropped from memory alongside it.
func (a *App) EraseAgent(agentID string) error {
	if err := a.Ledger.Erase(agentID); err != nil {
		return err
	}
	a.platformMu.Lock()
	delete(a.platform, agentID)
	a.platformMu.Unlock()
	return nil
}
