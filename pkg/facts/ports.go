package facts

import (
	"context"
	"sort"
	"strconv"
)

func (e *Engine) collectPorts(ctx context.Context) ([]ListeningPort, string) {
	chain := []candidate[ListeningPort]{
		{Tool: "ss", Source: commandSource("ss -tlnup"), Parse: portsFrom(parseSS)},
		{Tool: "netstat", Source: commandSource("netstat -tlnup"), Parse: portsFrom(parseNetstat)},
		{Source: procNetSource, Parse: portsFrom(parseProcNet)},
	}
	ports, backend := collectFirst(ctx, e, "ports", chain)
	if ports == nil {
		return placeholderPorts(), ""
	}
	ports = dedupePorts(ports)
	e.resolveServices(ctx, ports)
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Port != ports[j].Port {
			return ports[i].Port < ports[j].Port
		}
		return ports[i].Protocol < ports[j].Protocol
	})
	return ports, backend
}

// portsFrom adapts a socket-table parser into a port parser: LISTEN
// tcp sockets and unconnected udp sockets map to "listening", every
// other socket state maps to "open". The fallback sources list all
// socket states, so an established connection still reports its local
// port.
func portsFrom(parse func(string) ([]Connection, error)) func(string) ([]ListeningPort, error) {
	return func(output string) ([]ListeningPort, error) {
		conns, err := parse(output)
		if err != nil {
			return nil, err
		}
		var ports []ListeningPort
		for _, c := range conns {
			if c.LocalPort <= 0 || c.LocalPort > 65535 {
				continue
			}
			state := PortOpen
			if (c.Protocol == ProtoTCP && c.State == "LISTEN") ||
				(c.Protocol == ProtoUDP && c.State == "UNCONN") {
				state = PortListening
			}
			ports = append(ports, ListeningPort{
				Port:       c.LocalPort,
				Protocol:   c.Protocol,
				State:      state,
				Service:    Unknown,
				Process:    c.Process,
				PID:        c.PID,
				Confidence: ConfidenceObserved,
			})
		}
		return ports, nil
	}
}

// dedupePorts collapses duplicate port/protocol pairs (one socket bound
// on both 0.0.0.0 and [::] shows up twice, and a server port appears
// once per established peer). A listening row wins over an open row for
// the same pair; process attribution is kept from whichever row has it.
func dedupePorts(ports []ListeningPort) []ListeningPort {
	seen := make(map[string]int, len(ports))
	out := ports[:0]
	for _, p := range ports {
		key := strconv.Itoa(p.Port) + "/" + string(p.Protocol)
		if idx, ok := seen[key]; ok {
			if out[idx].State != PortListening && p.State == PortListening {
				out[idx].State = PortListening
			}
			if out[idx].Process == Unknown && p.Process != Unknown {
				out[idx].Process = p.Process
				out[idx].PID = p.PID
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, p)
	}
	return out
}

// resolveServices fills the service name per port: the built-in table
// first, then /etc/services, then the unknown sentinel stays.
func (e *Engine) resolveServices(ctx context.Context, ports []ListeningPort) {
	var etcServices map[string]string
	etcLoaded := false
	for i := range ports {
		if name, ok := wellKnownServices[ports[i].Port]; ok {
			ports[i].Service = name
			continue
		}
		if !etcLoaded {
			etcLoaded = true
			if data, err := e.conn.ReadFile(ctx, "/etc/services"); err == nil {
				etcServices = parseEtcServices(string(data))
			}
		}
		key := strconv.Itoa(ports[i].Port) + "/" + string(ports[i].Protocol)
		if name, ok := etcServices[key]; ok {
			ports[i].Service = name
		}
	}
}

// placeholderPorts is the assumed baseline injected when no socket
// backend is available. The assumed confidence tag keeps these from
// being mistaken for probed facts.
func placeholderPorts() []ListeningPort {
	assumed := []struct {
		port    int
		service string
	}{
		{22, "ssh"},
		{80, "http"},
		{443, "https"},
	}
	ports := make([]ListeningPort, 0, len(assumed))
	for _, a := range assumed {
		ports = append(ports, ListeningPort{
			Port:       a.port,
			Protocol:   ProtoTCP,
			State:      PortListening,
			Service:    a.service,
			Process:    Unknown,
			Confidence: ConfidenceAssumed,
		})
	}
	return ports
}
