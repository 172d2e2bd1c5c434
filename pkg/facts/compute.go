package facts

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mensylisir/hostboard/pkg/connector"
)

const vboxRunningMarker = "### RUNNING"

var vboxVMRe = regexp.MustCompile(`^"([^"]+)"\s+\{([0-9a-fA-F-]+)\}`)

// collectUnits resolves compute units through three tiers: hypervisor
// CLIs, then the container daemon (API first, CLI second), then top-CPU
// host processes. The process tier is suppressed when the engine itself
// runs inside a container, where host process listings would be
// misleading noise.
func (e *Engine) collectUnits(ctx context.Context) ([]ComputeUnit, string) {
	vmChain := []candidate[ComputeUnit]{
		{Tool: "virsh", Source: commandSource("virsh list --all"), Parse: parseVirsh},
		{Tool: "VBoxManage", Source: vboxSource, Parse: parseVBox},
	}
	if units, backend := tryChain(ctx, e, "units", vmChain); units != nil {
		return units, backend
	}

	if units, err := e.dockerUnitsFn(ctx); err == nil && len(units) > 0 {
		e.log.Debugf("facts: units: served by docker-api (%d records)", len(units))
		return units, "docker-api"
	} else if err != nil {
		e.log.Debugf("facts: units: docker daemon API unavailable: %v", err)
	}
	cliChain := []candidate[ComputeUnit]{
		{Tool: "docker", Source: commandSource(`docker ps -a --format '{{json .}}'`), Parse: parseDockerPS},
	}
	if units, backend := tryChain(ctx, e, "units", cliChain); units != nil {
		return units, backend
	}

	if e.runningInContainer(ctx) {
		e.log.Debugf("facts: units: containerized environment detected, skipping process fallback")
		return placeholderUnits(), ""
	}
	psChain := []candidate[ComputeUnit]{
		{Tool: "ps", Source: commandSource("ps aux --sort=-%cpu"), Parse: parseTopProcesses},
	}
	if units, backend := tryChain(ctx, e, "units", psChain); units != nil {
		return units, backend
	}
	e.log.Warnf("facts: units: all candidates exhausted, using placeholder data")
	return placeholderUnits(), ""
}

// parseVirsh parses "virsh list --all" table rows into VM records.
func parseVirsh(output string) ([]ComputeUnit, error) {
	var units []ComputeUnit
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] == "Id" || strings.HasPrefix(fields[0], "-") {
			continue
		}
		id := fields[0]
		if id == "-" {
			id = ""
		}
		state := strings.Join(fields[2:], " ")
		units = append(units, ComputeUnit{
			ID:         id,
			Name:       fields[1],
			Kind:       UnitVM,
			Backend:    "libvirt",
			Status:     virshStatus(state),
			Confidence: ConfidenceObserved,
		})
	}
	if len(units) == 0 {
		return nil, parseError("virsh", "no domain rows recognized")
	}
	return units, nil
}

func virshStatus(state string) UnitStatus {
	switch state {
	case "running":
		return StatusRunning
	case "paused":
		return StatusPaused
	case "shut off", "shutoff", "crashed":
		return StatusStopped
	}
	return StatusUnknown
}

// vboxSource combines the registered and running VM lists so one parse
// pass can assign per-VM status.
func vboxSource(ctx context.Context, conn connector.Connector) (string, error) {
	all, _, err := conn.Exec(ctx, "VBoxManage list vms", nil)
	if err != nil && len(strings.TrimSpace(string(all))) == 0 {
		return "", err
	}
	running, _, _ := conn.Exec(ctx, "VBoxManage list runningvms", nil)
	return string(all) + "\n" + vboxRunningMarker + "\n" + string(running), nil
}

func parseVBox(output string) ([]ComputeUnit, error) {
	allPart, runningPart, _ := strings.Cut(output, vboxRunningMarker)
	running := make(map[string]bool)
	for _, line := range strings.Split(runningPart, "\n") {
		if m := vboxVMRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			running[m[2]] = true
		}
	}
	var units []ComputeUnit
	for _, line := range strings.Split(allPart, "\n") {
		m := vboxVMRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		status := StatusStopped
		if running[m[2]] {
			status = StatusRunning
		}
		units = append(units, ComputeUnit{
			ID:         m[2],
			Name:       m[1],
			Kind:       UnitVM,
			Backend:    "virtualbox",
			Status:     status,
			Confidence: ConfidenceObserved,
		})
	}
	if len(units) == 0 {
		return nil, parseError("VBoxManage", "no vm rows recognized")
	}
	return units, nil
}

// parseDockerPS parses the one-JSON-object-per-line output of
// "docker ps -a --format '{{json .}}'".
func parseDockerPS(output string) ([]ComputeUnit, error) {
	var units []ComputeUnit
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !gjson.Valid(line) {
			continue
		}
		name := gjson.Get(line, "Names").String()
		id := gjson.Get(line, "ID").String()
		if name == "" && id == "" {
			continue
		}
		units = append(units, ComputeUnit{
			ID:         id,
			Name:       strings.TrimPrefix(name, "/"),
			Kind:       UnitContainer,
			Backend:    "docker",
			Status:     containerStatus(gjson.Get(line, "State").String()),
			Image:      gjson.Get(line, "Image").String(),
			Confidence: ConfidenceObserved,
		})
	}
	if len(units) == 0 {
		return nil, parseError("docker", "no container rows recognized")
	}
	return units, nil
}

func containerStatus(state string) UnitStatus {
	switch strings.ToLower(state) {
	case "running", "up":
		return StatusRunning
	case "paused":
		return StatusPaused
	case "exited", "created", "dead":
		return StatusStopped
	}
	return StatusUnknown
}

// topProcessLimit caps the process fallback to the heaviest consumers;
// a full process table is not a compute-unit inventory.
const topProcessLimit = 5

// parseTopProcesses turns the head of "ps aux --sort=-%cpu" into
// process-kind units.
func parseTopProcesses(output string) ([]ComputeUnit, error) {
	var units []ComputeUnit
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 11 || fields[0] == "USER" {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		cpu, _ := strconv.ParseFloat(fields[2], 64)
		rssKB, _ := strconv.ParseUint(fields[5], 10, 64)
		command := fields[10]
		if i := strings.LastIndexByte(command, '/'); i >= 0 && i+1 < len(command) {
			command = command[i+1:]
		}
		units = append(units, ComputeUnit{
			ID:         fields[1],
			Name:       command,
			Kind:       UnitProcess,
			Backend:    "ps",
			Status:     StatusRunning,
			CPUPercent: cpu,
			MemoryMB:   rssKB / 1024,
			PID:        pid,
			Confidence: ConfidenceObserved,
		})
		if len(units) == topProcessLimit {
			break
		}
	}
	if len(units) == 0 {
		return nil, parseError("ps", "no process rows recognized")
	}
	return units, nil
}

// runningInContainer detects a containerized environment from cgroup
// membership or the runtime marker files.
func (e *Engine) runningInContainer(ctx context.Context) bool {
	if data, err := e.conn.ReadFile(ctx, "/proc/1/cgroup"); err == nil {
		content := string(data)
		for _, marker := range []string{"docker", "containerd", "kubepods", "podman", "lxc"} {
			if strings.Contains(content, marker) {
				return true
			}
		}
	}
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := e.conn.ReadFile(ctx, marker); err == nil {
			return true
		}
	}
	return false
}

func placeholderUnits() []ComputeUnit {
	return []ComputeUnit{{
		ID:         Unknown,
		Name:       "host",
		Kind:       UnitProcess,
		Backend:    Unknown,
		Status:     StatusUnknown,
		Confidence: ConfidenceAssumed,
	}}
}
