package facts

import (
	"context"
	"testing"
)

const sampleSS = `Netid State  Recv-Q Send-Q  Local Address:Port   Peer Address:Port  Process
tcp   LISTEN 0      128           0.0.0.0:22           0.0.0.0:*      users:(("sshd",pid=1234,fd=3))
tcp   LISTEN 0      511              [::]:80              [::]:*      users:(("nginx",pid=880,fd=6))
tcp   ESTAB  0      0        192.168.1.10:22          10.0.0.5:51234  users:(("sshd",pid=1250,fd=4))
udp   UNCONN 0      0             0.0.0.0:68           0.0.0.0:*
`

const sampleNetstat = `Active Internet connections (servers and established)
Proto Recv-Q Send-Q Local Address           Foreign Address         State       PID/Program name
tcp        0      0 0.0.0.0:22              0.0.0.0:*               LISTEN      1234/sshd
tcp        0      0 192.168.1.10:22         10.0.0.5:51234          ESTABLISHED 1250/sshd
udp        0      0 0.0.0.0:68              0.0.0.0:*                           612/dhclient
`

// 127.0.0.1:80 listening, 10.0.0.5:51234 -> 192.168.1.10:22 established.
const sampleProcNetTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:0050 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 12345 1 0000000000000000 100 0 0 10 0
   1: 0A01A8C0:0016 0500000A:C832 01 00000000:00000000 00:00000000 00000000     0        0 23456 1 0000000000000000 100 0 0 10 0
`

func TestParseSS(t *testing.T) {
	conns, err := parseSS(sampleSS)
	if err != nil {
		t.Fatalf("parseSS returned error: %v", err)
	}
	if len(conns) != 4 {
		t.Fatalf("expected 4 connections, got %d", len(conns))
	}

	sshListen := conns[0]
	if sshListen.State != "LISTEN" || sshListen.LocalPort != 22 {
		t.Errorf("row 0 = %+v", sshListen)
	}
	if sshListen.Process != "sshd" || sshListen.PID != 1234 {
		t.Errorf("process attribution = %s/%d", sshListen.Process, sshListen.PID)
	}

	nginx := conns[1]
	if nginx.LocalPort != 80 {
		t.Errorf("bracketed IPv6 local port = %d, want 80", nginx.LocalPort)
	}

	estab := conns[2]
	if estab.State != "ESTABLISHED" || estab.ForeignAddr != "10.0.0.5" || estab.ForeignPort != 51234 {
		t.Errorf("row 2 = %+v", estab)
	}

	if conns[3].Protocol != ProtoUDP || conns[3].State != "UNCONN" {
		t.Errorf("row 3 = %+v", conns[3])
	}
}

func TestParseNetstat(t *testing.T) {
	conns, err := parseNetstat(sampleNetstat)
	if err != nil {
		t.Fatalf("parseNetstat returned error: %v", err)
	}
	if len(conns) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(conns))
	}
	if conns[0].State != "LISTEN" || conns[0].Process != "sshd" || conns[0].PID != 1234 {
		t.Errorf("row 0 = %+v", conns[0])
	}
	// udp rows carry no state column; the pid/program field shifts left.
	udp := conns[2]
	if udp.Protocol != ProtoUDP || udp.State != "UNCONN" {
		t.Errorf("udp row state = %+v", udp)
	}
	if udp.Process != "dhclient" || udp.PID != 612 {
		t.Errorf("udp row process = %s/%d", udp.Process, udp.PID)
	}
}

func TestParseProcNet(t *testing.T) {
	conns, err := parseProcNet(prefixLines(sampleProcNetTCP))
	if err != nil {
		t.Fatalf("parseProcNet returned error: %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}
	listen := conns[0]
	if listen.LocalAddr != "127.0.0.1" || listen.LocalPort != 80 || listen.State != "LISTEN" {
		t.Errorf("row 0 = %+v", listen)
	}
	estab := conns[1]
	if estab.LocalAddr != "192.168.1.10" || estab.LocalPort != 22 || estab.State != "ESTABLISHED" {
		t.Errorf("row 1 = %+v", estab)
	}
	if estab.ForeignAddr != "10.0.0.5" || estab.ForeignPort != 51250 {
		t.Errorf("row 1 foreign = %s:%d", estab.ForeignAddr, estab.ForeignPort)
	}
}

func TestSplitHostPort(t *testing.T) {
	cases := []struct {
		in   string
		addr string
		port int
	}{
		{"0.0.0.0:22", "0.0.0.0", 22},
		{"[::]:80", "::", 80},
		{"*:443", "0.0.0.0", 443},
		{"192.168.1.10:51234", "192.168.1.10", 51234},
		{"0.0.0.0:*", "0.0.0.0", 0},
	}
	for _, c := range cases {
		addr, port := splitHostPort(c.in)
		if addr != c.addr || port != c.port {
			t.Errorf("splitHostPort(%q) = %s:%d, want %s:%d", c.in, addr, port, c.addr, c.port)
		}
	}
}

func TestCollectConnectionsFallbackToProc(t *testing.T) {
	mc := NewMockConnector()
	mc.LookPathFunc = toolsAvailable()
	mc.ReadFileFunc = fileContents(map[string]string{
		"/proc/net/tcp": sampleProcNetTCP,
	})
	e := newTestEngine(mc)

	conns, backend := e.collectConnections(context.Background())
	if backend != "builtin" {
		t.Fatalf("backend = %q, want builtin", backend)
	}
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}
}

// prefixLines tags each sample line with its protocol, matching what
// procNetSource produces.
func prefixLines(sample string) string {
	out := ""
	for _, line := range splitNonEmpty(sample) {
		out += "tcp " + line + "\n"
	}
	return out
}

func splitNonEmpty(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
