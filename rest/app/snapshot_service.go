package app

import (
	"context"

	"github.com/mensylisir/hostboard/pkg/facts"
	"github.com/mensylisir/hostboard/pkg/logger"
)

// SnapshotService exposes the introspection engine to the HTTP layer.
// The engine's data-or-placeholder contract means none of these methods
// can fail; the service exists so handlers depend on one application
// boundary instead of the engine directly.
type SnapshotService struct {
	engine *facts.Engine
	log    *logger.Logger
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(engine *facts.Engine, log *logger.Logger) *SnapshotService {
	return &SnapshotService{
		engine: engine,
		log:    log.With("component", "snapshot-service"),
	}
}

func (s *SnapshotService) Interfaces(ctx context.Context) []facts.NetworkInterface {
	return s.engine.Interfaces(ctx)
}

func (s *SnapshotService) Connections(ctx context.Context) []facts.Connection {
	return s.engine.Connections(ctx)
}

func (s *SnapshotService) Ports(ctx context.Context) []facts.ListeningPort {
	return s.engine.Ports(ctx)
}

func (s *SnapshotService) FirewallRules(ctx context.Context) []facts.FirewallRule {
	return s.engine.FirewallRules(ctx)
}

func (s *SnapshotService) Volumes(ctx context.Context) []facts.StorageVolume {
	return s.engine.Volumes(ctx)
}

func (s *SnapshotService) ComputeUnits(ctx context.Context) []facts.ComputeUnit {
	return s.engine.ComputeUnits(ctx)
}

func (s *SnapshotService) Load(ctx context.Context) facts.HostLoad {
	return s.engine.Load(ctx)
}

func (s *SnapshotService) Snapshot(ctx context.Context) *facts.Snapshot {
	return s.engine.Snapshot(ctx)
}
