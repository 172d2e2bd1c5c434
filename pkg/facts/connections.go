package facts

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mensylisir/hostboard/pkg/connector"
)

var (
	// Ports are always extracted with a trailing anchored match so
	// bracketed IPv6 literals and wildcard addresses parse the same way.
	trailingPortRe = regexp.MustCompile(`:(\d+)$`)

	ssProcessRe      = regexp.MustCompile(`\(\("([^"]+)",pid=(\d+)`)
	netstatProcessRe = regexp.MustCompile(`^(\d+)/(\S+)$`)
)

// ssStateNames normalizes iproute2 state tokens onto the canonical names
// shared by every socket backend.
var ssStateNames = map[string]string{
	"ESTAB":      "ESTABLISHED",
	"LISTEN":     "LISTEN",
	"UNCONN":     "UNCONN",
	"TIME-WAIT":  "TIME_WAIT",
	"CLOSE-WAIT": "CLOSE_WAIT",
	"SYN-SENT":   "SYN_SENT",
	"SYN-RECV":   "SYN_RECV",
	"FIN-WAIT-1": "FIN_WAIT1",
	"FIN-WAIT-2": "FIN_WAIT2",
	"LAST-ACK":   "LAST_ACK",
	"CLOSING":    "CLOSING",
	"CLOSED":     "CLOSED",
}

// procNetStates maps the hex st column of /proc/net/tcp onto state names.
var procNetStates = map[string]string{
	"01": "ESTABLISHED",
	"02": "SYN_SENT",
	"03": "SYN_RECV",
	"04": "FIN_WAIT1",
	"05": "FIN_WAIT2",
	"06": "TIME_WAIT",
	"07": "CLOSED",
	"08": "CLOSE_WAIT",
	"09": "LAST_ACK",
	"0A": "LISTEN",
	"0B": "CLOSING",
}

func (e *Engine) collectConnections(ctx context.Context) ([]Connection, string) {
	chain := []candidate[Connection]{
		{Tool: "ss", Source: commandSource("ss -tunap"), Parse: parseSS},
		{Tool: "netstat", Source: commandSource("netstat -tunap"), Parse: parseNetstat},
		{Source: procNetSource, Parse: parseProcNet},
	}
	conns, backend := collectFirst(ctx, e, "connections", chain)
	if conns == nil {
		return placeholderConnections(), ""
	}
	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].LocalPort != conns[j].LocalPort {
			return conns[i].LocalPort < conns[j].LocalPort
		}
		return conns[i].ForeignAddr < conns[j].ForeignAddr
	})
	return conns, backend
}

// parseSS parses "ss -tunap". Column positions are fixed for the tcp/udp
// netid rows; the optional trailing process column is matched by regex.
func parseSS(output string) ([]Connection, error) {
	var conns []Connection
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		proto := Protocol(fields[0])
		if proto != ProtoTCP && proto != ProtoUDP {
			continue
		}
		state, ok := ssStateNames[fields[1]]
		if !ok {
			continue
		}
		localAddr, localPort := splitHostPort(fields[4])
		foreignAddr, foreignPort := splitHostPort(fields[5])
		if localPort <= 0 {
			continue
		}
		c := Connection{
			Protocol:    proto,
			LocalAddr:   localAddr,
			LocalPort:   localPort,
			ForeignAddr: foreignAddr,
			ForeignPort: foreignPort,
			State:       state,
			Process:     Unknown,
			Confidence:  ConfidenceObserved,
		}
		if m := ssProcessRe.FindStringSubmatch(line); m != nil {
			c.Process = m[1]
			c.PID, _ = strconv.Atoi(m[2])
		}
		conns = append(conns, c)
	}
	if len(conns) == 0 {
		return nil, parseError("ss", "no socket rows recognized")
	}
	return conns, nil
}

// parseNetstat parses "netstat -tunap". UDP rows have no state column,
// which shifts the PID/program field left by one.
func parseNetstat(output string) ([]Connection, error) {
	var conns []Connection
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		proto := normalizeNetstatProto(fields[0])
		if proto == "" {
			continue
		}
		localAddr, localPort := splitHostPort(fields[3])
		foreignAddr, foreignPort := splitHostPort(fields[4])
		if localPort <= 0 {
			continue
		}
		c := Connection{
			Protocol:    proto,
			LocalAddr:   localAddr,
			LocalPort:   localPort,
			ForeignAddr: foreignAddr,
			ForeignPort: foreignPort,
			State:       "UNCONN",
			Process:     Unknown,
			Confidence:  ConfidenceObserved,
		}
		rest := fields[5:]
		if len(rest) > 0 && netstatProcessRe.FindStringSubmatch(rest[0]) == nil && rest[0] != "-" {
			c.State = rest[0]
			rest = rest[1:]
		}
		if len(rest) > 0 {
			if m := netstatProcessRe.FindStringSubmatch(rest[0]); m != nil {
				c.PID, _ = strconv.Atoi(m[1])
				c.Process = m[2]
			}
		}
		conns = append(conns, c)
	}
	if len(conns) == 0 {
		return nil, parseError("netstat", "no socket rows recognized")
	}
	return conns, nil
}

// procNetSource reads the kernel socket tables directly and prefixes
// each row with its protocol so one parser can handle all four files.
func procNetSource(ctx context.Context, conn connector.Connector) (string, error) {
	var sb strings.Builder
	files := map[string]Protocol{
		"/proc/net/tcp":  ProtoTCP,
		"/proc/net/tcp6": ProtoTCP,
		"/proc/net/udp":  ProtoUDP,
		"/proc/net/udp6": ProtoUDP,
	}
	for _, path := range []string{"/proc/net/tcp", "/proc/net/tcp6", "/proc/net/udp", "/proc/net/udp6"} {
		data, err := conn.ReadFile(ctx, path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			sb.WriteString(string(files[path]))
			sb.WriteByte(' ')
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	if sb.Len() == 0 {
		return "", connector.ErrNoData
	}
	return sb.String(), nil
}

// parseProcNet decodes proto-prefixed /proc/net/{tcp,udp} rows. Addresses
// are little-endian hex, ports big-endian hex.
func parseProcNet(output string) ([]Connection, error) {
	var conns []Connection
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		// proto, sl, local_address, rem_address, st
		if len(fields) < 5 || !strings.HasSuffix(fields[1], ":") {
			continue
		}
		proto := Protocol(fields[0])
		localAddr, localPort, err := parseProcNetAddr(fields[2])
		if err != nil {
			continue
		}
		foreignAddr, foreignPort, err := parseProcNetAddr(fields[3])
		if err != nil || localPort <= 0 {
			continue
		}
		state, ok := procNetStates[strings.ToUpper(fields[4])]
		if !ok {
			state = Unknown
		}
		if proto == ProtoUDP && state == "CLOSED" {
			state = "UNCONN"
		}
		conns = append(conns, Connection{
			Protocol:    proto,
			LocalAddr:   localAddr,
			LocalPort:   localPort,
			ForeignAddr: foreignAddr,
			ForeignPort: foreignPort,
			State:       state,
			Process:     Unknown,
			Confidence:  ConfidenceObserved,
		})
	}
	if len(conns) == 0 {
		return nil, parseError("procfs", "no socket rows recognized")
	}
	return conns, nil
}

// parseProcNetAddr decodes one HEXADDR:HEXPORT token. IPv4 addresses are
// stored little-endian by the kernel; IPv6 as four little-endian words.
func parseProcNetAddr(token string) (string, int, error) {
	addrHex, portHex, found := strings.Cut(token, ":")
	if !found {
		return "", 0, fmt.Errorf("malformed address %q", token)
	}
	port64, err := strconv.ParseInt(portHex, 16, 32)
	if err != nil {
		return "", 0, err
	}
	switch len(addrHex) {
	case 8:
		raw, err := strconv.ParseUint(addrHex, 16, 32)
		if err != nil {
			return "", 0, err
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(raw))
		return net.IP(b).String(), int(port64), nil
	case 32:
		b := make([]byte, 16)
		for i := 0; i < 4; i++ {
			word, err := strconv.ParseUint(addrHex[i*8:(i+1)*8], 16, 32)
			if err != nil {
				return "", 0, err
			}
			binary.LittleEndian.PutUint32(b[i*4:], uint32(word))
		}
		return net.IP(b).String(), int(port64), nil
	}
	return "", 0, fmt.Errorf("unexpected address width %q", addrHex)
}

// splitHostPort splits an address token on its last colon. The port is
// anchored at the end of the token so "[::]:80", "0.0.0.0:22" and
// "*:443" all resolve the same way. A wildcard or absent port yields 0.
func splitHostPort(token string) (string, int) {
	m := trailingPortRe.FindStringSubmatch(token)
	if m == nil {
		return strings.Trim(token, "[]"), 0
	}
	addr := strings.TrimSuffix(token, m[0])
	addr = strings.Trim(addr, "[]")
	if addr == "" || addr == "*" {
		addr = "0.0.0.0"
	}
	port, _ := strconv.Atoi(m[1])
	return addr, port
}

func normalizeNetstatProto(token string) Protocol {
	switch {
	case strings.HasPrefix(token, "tcp"):
		return ProtoTCP
	case strings.HasPrefix(token, "udp"):
		return ProtoUDP
	}
	return ""
}

func placeholderConnections() []Connection {
	return []Connection{{
		Protocol:    ProtoTCP,
		LocalAddr:   "127.0.0.1",
		LocalPort:   22,
		ForeignAddr: "0.0.0.0",
		State:       "LISTEN",
		Process:     Unknown,
		Confidence:  ConfidenceAssumed,
	}}
}
