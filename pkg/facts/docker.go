package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// dockerAPIUnits lists containers through the daemon socket. A missing
// or unreachable daemon is an ordinary chain-advance condition, not a
// failure of the units family.
func (e *Engine) dockerAPIUnits(ctx context.Context) ([]ComputeUnit, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	units := make([]ComputeUnit, 0, len(containers))
	for _, c := range containers {
		name := c.ID
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		units = append(units, ComputeUnit{
			ID:         id,
			Name:       name,
			Kind:       UnitContainer,
			Backend:    "docker",
			Status:     containerStatus(c.State),
			Image:      c.Image,
			Confidence: ConfidenceObserved,
		})
	}
	return units, nil
}
