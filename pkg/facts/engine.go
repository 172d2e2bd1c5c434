package facts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mensylisir/hostboard/pkg/connector"
	"github.com/mensylisir/hostboard/pkg/logger"
)

// Engine gathers normalized host facts over a Connector. It is stateless
// between calls: every snapshot probes tools and parses output fresh, so
// a tool installed or removed mid-flight is simply picked up on the next
// pass. All public methods honor the data-or-placeholder contract and
// never return an error.
type Engine struct {
	conn connector.Connector
	log  *logger.Logger

	// rateSampleInterval controls the second counter sample used to
	// derive instantaneous interface rates. Zero disables rate
	// sampling and leaves the rate fields at zero.
	rateSampleInterval time.Duration

	// dockerUnitsFn lists containers through the daemon API. Separated
	// out so tests can substitute it without a live daemon.
	dockerUnitsFn func(ctx context.Context) ([]ComputeUnit, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRateSampling enables interface rate derivation with the given
// sampling interval between the two counter reads.
func WithRateSampling(interval time.Duration) Option {
	return func(e *Engine) { e.rateSampleInterval = interval }
}

// NewEngine returns an Engine bound to the given connector.
func NewEngine(conn connector.Connector, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{conn: conn, log: log}
	e.dockerUnitsFn = e.dockerAPIUnits
	for _, o := range opts {
		o(e)
	}
	return e
}

// Snapshot collects every fact family in parallel. Families are
// independent; a slow or absent backend for one never delays or degrades
// another beyond its own placeholder.
func (e *Engine) Snapshot(ctx context.Context) *Snapshot {
	s := &Snapshot{
		CollectedAt: time.Now(),
		Backends:    make(map[string]string),
	}
	var mu sync.Mutex
	record := func(family, backend string) {
		mu.Lock()
		s.Backends[family] = backend
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ifaces, backend := e.collectInterfaces(gctx)
		mu.Lock()
		s.Interfaces = ifaces
		mu.Unlock()
		record("interfaces", backend)
		return nil
	})
	g.Go(func() error {
		conns, backend := e.collectConnections(gctx)
		mu.Lock()
		s.Connections = conns
		mu.Unlock()
		record("connections", backend)
		return nil
	})
	g.Go(func() error {
		ports, backend := e.collectPorts(gctx)
		mu.Lock()
		s.Ports = ports
		mu.Unlock()
		record("ports", backend)
		return nil
	})
	g.Go(func() error {
		rules, backend := e.collectFirewall(gctx)
		mu.Lock()
		s.Firewall = rules
		mu.Unlock()
		record("firewall", backend)
		return nil
	})
	g.Go(func() error {
		vols, backend := e.collectVolumes(gctx)
		mu.Lock()
		s.Volumes = vols
		mu.Unlock()
		record("volumes", backend)
		return nil
	})
	g.Go(func() error {
		units, backend := e.collectUnits(gctx)
		mu.Lock()
		s.Units = units
		mu.Unlock()
		record("units", backend)
		return nil
	})
	g.Go(func() error {
		load, backend := e.collectLoad(gctx)
		mu.Lock()
		s.Load = load
		mu.Unlock()
		record("load", backend)
		return nil
	})
	_ = g.Wait()

	e.log.Infof("facts: snapshot complete, backends: %v", s.Backends)
	return s
}

// Interfaces returns the normalized interface table.
func (e *Engine) Interfaces(ctx context.Context) []NetworkInterface {
	ifaces, _ := e.collectInterfaces(ctx)
	return ifaces
}

// Connections returns the active socket table.
func (e *Engine) Connections(ctx context.Context) []Connection {
	conns, _ := e.collectConnections(ctx)
	return conns
}

// Ports returns the listening port table.
func (e *Engine) Ports(ctx context.Context) []ListeningPort {
	ports, _ := e.collectPorts(ctx)
	return ports
}

// FirewallRules returns the normalized firewall rule set.
func (e *Engine) FirewallRules(ctx context.Context) []FirewallRule {
	rules, _ := e.collectFirewall(ctx)
	return rules
}

// Volumes returns mounted storage volumes.
func (e *Engine) Volumes(ctx context.Context) []StorageVolume {
	vols, _ := e.collectVolumes(ctx)
	return vols
}

// ComputeUnits returns VMs, containers, or the process fallback.
func (e *Engine) ComputeUnits(ctx context.Context) []ComputeUnit {
	units, _ := e.collectUnits(ctx)
	return units
}

// Load returns the current system load reading.
func (e *Engine) Load(ctx context.Context) HostLoad {
	load, _ := e.collectLoad(ctx)
	return load
}
