package facts

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ipAddrHeaderRe = regexp.MustCompile(`^\d+:\s+([^:@\s]+)(?:@\S+)?:\s+<([^>]*)>\s+mtu\s+(\d+)`)
	ipAddrStateRe  = regexp.MustCompile(`\bstate\s+(\S+)`)
	ipAddrInetRe   = regexp.MustCompile(`^\s*inet\s+(\d+\.\d+\.\d+\.\d+)/(\d+)`)
	ipAddrEtherRe  = regexp.MustCompile(`^\s*link/(\S+)\s+([0-9a-fA-F:]+)`)

	ifconfigHeaderRe  = regexp.MustCompile(`^(\S+?):?\s+flags=\d+<([^>]*)>\s+mtu\s+(\d+)`)
	ifconfigInetRe    = regexp.MustCompile(`inet\s+(\d+\.\d+\.\d+\.\d+)\s+netmask\s+(\S+)`)
	ifconfigEtherRe   = regexp.MustCompile(`ether\s+([0-9a-fA-F:]+)`)
	ifconfigCounterRe = regexp.MustCompile(`^(RX|TX)\s+packets\s+(\d+)\s+bytes\s+(\d+)`)
	ifconfigErrorsRe  = regexp.MustCompile(`^(RX|TX)\s+errors\s+(\d+)`)

	defaultRouteRe = regexp.MustCompile(`^default\s+via\s+(\d+\.\d+\.\d+\.\d+)\s+dev\s+(\S+)`)
)

func (e *Engine) collectInterfaces(ctx context.Context) ([]NetworkInterface, string) {
	chain := []candidate[NetworkInterface]{
		{Tool: "ip", Source: commandSource("ip addr show"), Parse: parseIPAddr},
		{Tool: "ifconfig", Source: commandSource("ifconfig -a"), Parse: parseIfconfig},
	}
	ifaces, backend := collectFirst(ctx, e, "interfaces", chain)
	if ifaces == nil {
		return placeholderInterfaces(), ""
	}

	first := e.readInterfaceCounters(ctx)
	ifaces = mergeInterfaces(ifaces, counterPartials(first))
	if e.rateSampleInterval > 0 && len(first) > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(e.rateSampleInterval):
			second := e.readInterfaceCounters(ctx)
			applyRates(ifaces, first, second, e.rateSampleInterval)
		}
	}

	e.fillGateways(ctx, ifaces)
	e.fillLinkDetails(ctx, ifaces)

	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })
	return ifaces, backend
}

// parseIPAddr parses the block output of "ip addr show". Loopback
// devices are dropped; everything else becomes one record keyed by
// interface name.
func parseIPAddr(output string) ([]NetworkInterface, error) {
	var ifaces []NetworkInterface
	var cur *NetworkInterface
	loopback := false
	flush := func() {
		if cur != nil && !loopback {
			ifaces = append(ifaces, *cur)
		}
		cur = nil
		loopback = false
	}
	for _, line := range strings.Split(output, "\n") {
		if m := ipAddrHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			mtu, _ := strconv.Atoi(m[3])
			ni := newInterface(m[1])
			ni.MTU = mtu
			ni.State = linkStateFromIP(line, m[2])
			cur = &ni
			continue
		}
		if cur == nil {
			continue
		}
		if m := ipAddrEtherRe.FindStringSubmatch(line); m != nil {
			if m[1] == "loopback" {
				loopback = true
			} else if cur.MAC == Unknown {
				cur.MAC = strings.ToLower(m[2])
			}
			continue
		}
		if m := ipAddrInetRe.FindStringSubmatch(line); m != nil && cur.IPv4 == Unknown {
			cur.IPv4 = m[1]
			if prefix, err := strconv.Atoi(m[2]); err == nil {
				cur.Netmask = prefixToNetmask(prefix)
			}
		}
	}
	flush()
	if cur == nil && len(ifaces) == 0 {
		return nil, parseError("ip", "no interface blocks recognized")
	}
	return ifaces, nil
}

// parseIfconfig parses net-tools "ifconfig -a" blocks, including the
// inline RX/TX counter lines when present.
func parseIfconfig(output string) ([]NetworkInterface, error) {
	var ifaces []NetworkInterface
	var cur *NetworkInterface
	loopback := false
	flush := func() {
		if cur != nil && !loopback {
			ifaces = append(ifaces, *cur)
		}
		cur = nil
		loopback = false
	}
	for _, line := range strings.Split(output, "\n") {
		if m := ifconfigHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			mtu, _ := strconv.Atoi(m[3])
			ni := newInterface(m[1])
			ni.MTU = mtu
			if strings.Contains(m[2], "RUNNING") {
				ni.State = LinkUp
			} else if strings.Contains(m[2], "UP") {
				ni.State = LinkDisconnected
			} else {
				ni.State = LinkDown
			}
			if strings.Contains(m[2], "LOOPBACK") {
				loopback = true
			}
			cur = &ni
			continue
		}
		if cur == nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if m := ifconfigInetRe.FindStringSubmatch(trimmed); m != nil && cur.IPv4 == Unknown {
			cur.IPv4 = m[1]
			cur.Netmask = m[2]
		}
		if m := ifconfigEtherRe.FindStringSubmatch(trimmed); m != nil && cur.MAC == Unknown {
			cur.MAC = strings.ToLower(m[1])
		}
		if m := ifconfigCounterRe.FindStringSubmatch(trimmed); m != nil {
			packets, _ := strconv.ParseUint(m[2], 10, 64)
			bytes, _ := strconv.ParseUint(m[3], 10, 64)
			if m[1] == "RX" {
				cur.Counters.RxPackets, cur.Counters.RxBytes = packets, bytes
			} else {
				cur.Counters.TxPackets, cur.Counters.TxBytes = packets, bytes
			}
			cur.Counters.Valid = true
		}
		if m := ifconfigErrorsRe.FindStringSubmatch(trimmed); m != nil {
			errs, _ := strconv.ParseUint(m[2], 10, 64)
			if m[1] == "RX" {
				cur.Counters.RxErrors = errs
			} else {
				cur.Counters.TxErrors = errs
			}
		}
	}
	flush()
	if len(ifaces) == 0 {
		return nil, parseError("ifconfig", "no interface blocks recognized")
	}
	return ifaces, nil
}

// readInterfaceCounters reads /proc/net/dev into a per-interface counter
// map. A missing or malformed file simply yields an empty map; counters
// then stay at their invalid zero state rather than pretending to be a
// real zero reading.
func (e *Engine) readInterfaceCounters(ctx context.Context) map[string]InterfaceCounters {
	counters := make(map[string]InterfaceCounters)
	data, err := e.conn.ReadFile(ctx, "/proc/net/dev")
	if err != nil {
		e.log.Debugf("facts: interfaces: counter read failed: %v", err)
		return counters
	}
	for _, line := range strings.Split(string(data), "\n") {
		name, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 11 {
			continue
		}
		c := InterfaceCounters{Valid: true}
		c.RxBytes, _ = strconv.ParseUint(fields[0], 10, 64)
		c.RxPackets, _ = strconv.ParseUint(fields[1], 10, 64)
		c.RxErrors, _ = strconv.ParseUint(fields[2], 10, 64)
		c.TxBytes, _ = strconv.ParseUint(fields[8], 10, 64)
		c.TxPackets, _ = strconv.ParseUint(fields[9], 10, 64)
		c.TxErrors, _ = strconv.ParseUint(fields[10], 10, 64)
		counters[strings.TrimSpace(name)] = c
	}
	return counters
}

func applyRates(ifaces []NetworkInterface, first, second map[string]InterfaceCounters, interval time.Duration) {
	secs := interval.Seconds()
	if secs <= 0 {
		return
	}
	for i := range ifaces {
		a, okA := first[ifaces[i].Name]
		b, okB := second[ifaces[i].Name]
		if !okA || !okB || b.RxBytes < a.RxBytes || b.TxBytes < a.TxBytes {
			continue
		}
		ifaces[i].RxRateBps = float64(b.RxBytes-a.RxBytes) / secs
		ifaces[i].TxRateBps = float64(b.TxBytes-a.TxBytes) / secs
	}
}

// fillGateways resolves per-interface default gateways from the routing
// table. Best effort: interfaces without a default route keep the
// sentinel.
func (e *Engine) fillGateways(ctx context.Context, ifaces []NetworkInterface) {
	stdout, _, err := e.conn.Exec(ctx, "ip route show default", nil)
	if err != nil && len(stdout) == 0 {
		return
	}
	for _, line := range strings.Split(string(stdout), "\n") {
		m := defaultRouteRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		for i := range ifaces {
			if ifaces[i].Name == m[2] {
				ifaces[i].Gateway = m[1]
			}
		}
	}
}

// fillLinkDetails reads speed and duplex from sysfs. Virtual devices
// have no speed file and keep the sentinel.
func (e *Engine) fillLinkDetails(ctx context.Context, ifaces []NetworkInterface) {
	for i := range ifaces {
		base := "/sys/class/net/" + ifaces[i].Name
		if data, err := e.conn.ReadFile(ctx, base+"/speed"); err == nil {
			if speed, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && speed > 0 {
				ifaces[i].Speed = fmt.Sprintf("%dMb/s", speed)
			}
		}
		if data, err := e.conn.ReadFile(ctx, base+"/duplex"); err == nil {
			if d := strings.TrimSpace(string(data)); d != "" {
				ifaces[i].Duplex = d
			}
		}
	}
}

func newInterface(name string) NetworkInterface {
	return NetworkInterface{
		Name:       name,
		Kind:       inferInterfaceKind(name),
		State:      LinkDown,
		MAC:        Unknown,
		IPv4:       Unknown,
		Netmask:    Unknown,
		Gateway:    Unknown,
		Speed:      Unknown,
		Duplex:     Unknown,
		Confidence: ConfidenceObserved,
	}
}

func inferInterfaceKind(name string) InterfaceKind {
	switch {
	case strings.Contains(name, "."):
		return KindVlan
	case strings.HasPrefix(name, "wl"):
		return KindWifi
	case strings.HasPrefix(name, "br") ||
		strings.HasPrefix(name, "docker") ||
		strings.HasPrefix(name, "virbr") ||
		strings.HasPrefix(name, "cni"):
		return KindBridge
	case strings.HasPrefix(name, "bond"):
		return KindBond
	default:
		return KindEthernet
	}
}

func linkStateFromIP(header, flags string) LinkState {
	if m := ipAddrStateRe.FindStringSubmatch(header); m != nil {
		switch m[1] {
		case "UP":
			return LinkUp
		case "DOWN":
			return LinkDown
		case "LOWERLAYERDOWN":
			return LinkDisconnected
		}
	}
	if strings.Contains(flags, "NO-CARRIER") {
		return LinkDisconnected
	}
	if strings.Contains(flags, "LOWER_UP") {
		return LinkUp
	}
	if strings.Contains(flags, "UP") {
		return LinkUp
	}
	return LinkDown
}

func prefixToNetmask(prefix int) string {
	if prefix < 0 || prefix > 32 {
		return Unknown
	}
	mask := net.CIDRMask(prefix, 32)
	return net.IP(mask).String()
}

func placeholderInterfaces() []NetworkInterface {
	ni := newInterface("eth0")
	ni.Confidence = ConfidenceAssumed
	return []NetworkInterface{ni}
}
