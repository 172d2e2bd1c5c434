package app

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mensylisir/hostboard/pkg/connector"
	"github.com/mensylisir/hostboard/pkg/logger"
)

// actionConnector records argument vectors instead of executing them.
type actionConnector struct {
	argvs [][]string
	tools map[string]bool
}

func newActionConnector(tools ...string) *actionConnector {
	c := &actionConnector{tools: make(map[string]bool, len(tools))}
	for _, tool := range tools {
		c.tools[tool] = true
	}
	return c
}

func (c *actionConnector) Exec(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	return nil, nil, errors.New("shell execution not expected")
}

func (c *actionConnector) ExecArgv(ctx context.Context, argv []string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	c.argvs = append(c.argvs, argv)
	return []byte("ok\n"), nil, nil
}

func (c *actionConnector) LookPath(ctx context.Context, file string) (string, error) {
	if c.tools[file] {
		return "/usr/sbin/" + file, nil
	}
	return "", errors.Wrapf(connector.ErrToolMissing, "'%s'", file)
}

func (c *actionConnector) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return nil, errors.Errorf("no such file: %s", path)
}

func (c *actionConnector) GetOS(ctx context.Context) (*connector.OS, error) { return &connector.OS{}, nil }
func (c *actionConnector) IsConnected() bool                               { return true }
func (c *actionConnector) Close() error                                    { return nil }

func newTestActionService(conn connector.Connector, extra ...string) *ActionService {
	log, _ := logger.NewLogger(logger.Options{})
	return NewActionService(conn, log, extra)
}

func lastArgv(t *testing.T, c *actionConnector) string {
	t.Helper()
	if len(c.argvs) == 0 {
		t.Fatal("no command executed")
	}
	return strings.Join(c.argvs[len(c.argvs)-1], " ")
}

func TestSetInterfaceState(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	if err := svc.SetInterfaceState(context.Background(), "eth0", true); err != nil {
		t.Fatalf("SetInterfaceState: %v", err)
	}
	if got := lastArgv(t, conn); got != "ip link set eth0 up" {
		t.Errorf("argv = %q", got)
	}

	if err := svc.SetInterfaceState(context.Background(), "eth0", false); err != nil {
		t.Fatal(err)
	}
	if got := lastArgv(t, conn); got != "ip link set eth0 down" {
		t.Errorf("argv = %q", got)
	}
}

func TestSetInterfaceStateRejectsBadName(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	if err := svc.SetInterfaceState(context.Background(), "eth0; rm -rf /", true); err == nil {
		t.Fatal("expected error for shell metacharacters in name")
	}
	if len(conn.argvs) != 0 {
		t.Errorf("command executed despite invalid name: %v", conn.argvs)
	}
}

func TestOpenPortPrefersUfw(t *testing.T) {
	conn := newActionConnector("ufw")
	svc := newTestActionService(conn)

	if err := svc.OpenPort(context.Background(), 8080, "tcp"); err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	if got := lastArgv(t, conn); got != "ufw allow 8080/tcp" {
		t.Errorf("argv = %q", got)
	}
}

func TestClosePortFallsBackToIptables(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	if err := svc.ClosePort(context.Background(), 161, "udp"); err != nil {
		t.Fatalf("ClosePort: %v", err)
	}
	if got := lastArgv(t, conn); got != "iptables -A INPUT -p udp --dport 161 -j DROP" {
		t.Errorf("argv = %q", got)
	}
}

func TestAddRule(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	spec := FirewallRuleSpec{
		Chain:           "input",
		Action:          "accept",
		Protocol:        "tcp",
		Source:          "10.0.0.0/8",
		DestinationPort: 22,
	}
	if err := svc.AddRule(context.Background(), spec); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if got := lastArgv(t, conn); got != "iptables -A INPUT -p tcp -s 10.0.0.0/8 --dport 22 -j ACCEPT" {
		t.Errorf("argv = %q", got)
	}
}

func TestAddRuleAnyProtocolOmitsMatch(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	spec := FirewallRuleSpec{Chain: "forward", Action: "drop", Protocol: "any"}
	if err := svc.AddRule(context.Background(), spec); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if got := lastArgv(t, conn); got != "iptables -A FORWARD -j DROP" {
		t.Errorf("argv = %q", got)
	}
}

func TestAddRuleValidation(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	cases := []struct {
		name string
		spec FirewallRuleSpec
	}{
		{"bad chain", FirewallRuleSpec{Chain: "nat", Action: "accept", Protocol: "tcp"}},
		{"bad action", FirewallRuleSpec{Chain: "input", Action: "log", Protocol: "tcp"}},
		{"bad protocol", FirewallRuleSpec{Chain: "input", Action: "accept", Protocol: "sctp"}},
		{"bad source", FirewallRuleSpec{Chain: "input", Action: "accept", Protocol: "tcp", Source: "10.0.0.1; reboot"}},
		{"port on icmp", FirewallRuleSpec{Chain: "input", Action: "accept", Protocol: "icmp", DestinationPort: 80}},
		{"port out of range", FirewallRuleSpec{Chain: "input", Action: "accept", Protocol: "tcp", DestinationPort: 70000}},
	}
	for _, tc := range cases {
		if err := svc.AddRule(context.Background(), tc.spec); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
	if len(conn.argvs) != 0 {
		t.Errorf("invalid specs executed commands: %v", conn.argvs)
	}
}

func TestPortValidation(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	if err := svc.OpenPort(context.Background(), 0, "tcp"); err == nil {
		t.Error("port 0 accepted")
	}
	if err := svc.OpenPort(context.Background(), 70000, "tcp"); err == nil {
		t.Error("port 70000 accepted")
	}
	if err := svc.OpenPort(context.Background(), 80, "icmp"); err == nil {
		t.Error("non-tcp/udp protocol accepted")
	}
	if len(conn.argvs) != 0 {
		t.Errorf("commands executed despite invalid input: %v", conn.argvs)
	}
}

func TestControlUnitVerbMapping(t *testing.T) {
	cases := []struct {
		backend, action, want string
	}{
		{"docker", "start", "docker start web-1"},
		{"docker", "resume", "docker unpause web-1"},
		{"libvirt", "stop", "virsh shutdown web-1"},
		{"libvirt", "pause", "virsh suspend web-1"},
		{"libvirt", "resume", "virsh resume web-1"},
		{"virtualbox", "start", "VBoxManage startvm web-1 --type headless"},
		{"virtualbox", "stop", "VBoxManage controlvm web-1 acpipowerbutton"},
	}
	for _, tc := range cases {
		conn := newActionConnector()
		svc := newTestActionService(conn)
		if err := svc.ControlUnit(context.Background(), tc.backend, "web-1", tc.action); err != nil {
			t.Errorf("%s/%s: %v", tc.backend, tc.action, err)
			continue
		}
		if got := lastArgv(t, conn); got != tc.want {
			t.Errorf("%s/%s argv = %q, want %q", tc.backend, tc.action, got, tc.want)
		}
	}
}

func TestControlUnitRejectsUnknown(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn)

	if err := svc.ControlUnit(context.Background(), "lxd", "web-1", "start"); err == nil {
		t.Error("unknown backend accepted")
	}
	if err := svc.ControlUnit(context.Background(), "docker", "web-1", "reboot"); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestExecuteAllowList(t *testing.T) {
	conn := newActionConnector()
	svc := newTestActionService(conn, "nft")

	if _, err := svc.Execute(context.Background(), []string{"rm", "-rf", "/"}); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Execute off-list = %v, want ErrNotAllowed", err)
	}
	if len(conn.argvs) != 0 {
		t.Errorf("off-list command executed: %v", conn.argvs)
	}

	out, err := svc.Execute(context.Background(), []string{"systemctl", "status", "sshd"})
	if err != nil || out != "ok\n" {
		t.Errorf("Execute = %q, %v", out, err)
	}
	// Configured extras extend the built-in list.
	if _, err := svc.Execute(context.Background(), []string{"nft", "list", "ruleset"}); err != nil {
		t.Errorf("extra executable rejected: %v", err)
	}
}
