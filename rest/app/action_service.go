package app

import (
	"context"
	"regexp"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mensylisir/hostboard/pkg/connector"
	"github.com/mensylisir/hostboard/pkg/logger"
)

// ErrNotAllowed is returned when an action resolves to an executable
// outside the allow-list.
var ErrNotAllowed = errors.New("executable is not on the action allow-list")

// defaultAllowedExecutables is the built-in allow-list for mutating
// actions. Every action is invoked as an argument vector, never through
// a shell, and the first element must appear here (or in the configured
// extension list).
var defaultAllowedExecutables = []string{
	"ip",
	"ufw",
	"iptables",
	"firewall-cmd",
	"docker",
	"virsh",
	"VBoxManage",
	"systemctl",
}

var (
	ifaceNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,15}$`)
	unitNameRe  = regexp.MustCompile(`^[a-zA-Z0-9._/-]{1,128}$`)
	protoRe     = regexp.MustCompile(`^(tcp|udp)$`)
	cidrRe      = regexp.MustCompile(`^[0-9a-fA-F.:]{1,45}(/[0-9]{1,3})?$`)
)

var (
	ruleChains  = map[string]string{"input": "INPUT", "output": "OUTPUT", "forward": "FORWARD"}
	ruleTargets = map[string]string{"accept": "ACCEPT", "drop": "DROP", "reject": "REJECT"}
	ruleProtos  = map[string]bool{"tcp": true, "udp": true, "icmp": true, "any": true}
)

// ActionService executes allow-listed mutating commands against the
// host. Unlike the read-only engine it does surface errors: a caller
// asking to bring an interface up needs to know the attempt failed.
type ActionService struct {
	conn    connector.Connector
	log     *logger.Logger
	allowed map[string]bool
}

// NewActionService creates an ActionService; extra extends the built-in
// executable allow-list.
func NewActionService(conn connector.Connector, log *logger.Logger, extra []string) *ActionService {
	allowed := make(map[string]bool, len(defaultAllowedExecutables)+len(extra))
	for _, exe := range defaultAllowedExecutables {
		allowed[exe] = true
	}
	for _, exe := range extra {
		allowed[exe] = true
	}
	return &ActionService{
		conn:    conn,
		log:     log.With("component", "action-service"),
		allowed: allowed,
	}
}

// SetInterfaceState brings an interface up or down.
func (s *ActionService) SetInterfaceState(ctx context.Context, name string, up bool) error {
	if !ifaceNameRe.MatchString(name) {
		return errors.Errorf("invalid interface name '%s'", name)
	}
	state := "down"
	if up {
		state = "up"
	}
	return s.run(ctx, []string{"ip", "link", "set", name, state})
}

// OpenPort adds a firewall accept rule for a port. ufw is preferred
// when installed; otherwise the rule is appended with iptables.
func (s *ActionService) OpenPort(ctx context.Context, port int, proto string) error {
	argvs, err := s.portArgv(ctx, port, proto, true)
	if err != nil {
		return err
	}
	return s.run(ctx, argvs)
}

// ClosePort removes or denies a firewall rule for a port.
func (s *ActionService) ClosePort(ctx context.Context, port int, proto string) error {
	argvs, err := s.portArgv(ctx, port, proto, false)
	if err != nil {
		return err
	}
	return s.run(ctx, argvs)
}

func (s *ActionService) portArgv(ctx context.Context, port int, proto string, open bool) ([]string, error) {
	if port < 1 || port > 65535 {
		return nil, errors.Errorf("port %d out of range", port)
	}
	if !protoRe.MatchString(proto) {
		return nil, errors.Errorf("invalid protocol '%s'", proto)
	}
	portStr := strconv.Itoa(port)
	if _, err := s.conn.LookPath(ctx, "ufw"); err == nil {
		verb := "allow"
		if !open {
			verb = "deny"
		}
		return []string{"ufw", verb, portStr + "/" + proto}, nil
	}
	verb := "-A"
	target := "ACCEPT"
	if !open {
		target = "DROP"
	}
	return []string{"iptables", verb, "INPUT", "-p", proto, "--dport", portStr, "-j", target}, nil
}

// FirewallRuleSpec describes a rule to append. Chain, action and
// protocol use the normalized lowercase vocabulary; empty source,
// destination and port fields are omitted from the generated rule.
type FirewallRuleSpec struct {
	Chain           string
	Action          string
	Protocol        string
	Source          string
	Destination     string
	DestinationPort int
}

// AddRule appends a firewall rule built from a normalized rule spec.
// Rules are always written with iptables; the allow/deny vocabulary of
// ufw cannot express chain or reject semantics.
func (s *ActionService) AddRule(ctx context.Context, spec FirewallRuleSpec) error {
	chain, ok := ruleChains[spec.Chain]
	if !ok {
		return errors.Errorf("invalid chain '%s'", spec.Chain)
	}
	target, ok := ruleTargets[spec.Action]
	if !ok {
		return errors.Errorf("invalid rule action '%s'", spec.Action)
	}
	if !ruleProtos[spec.Protocol] {
		return errors.Errorf("invalid protocol '%s'", spec.Protocol)
	}
	argv := []string{"iptables", "-A", chain}
	if spec.Protocol != "any" {
		argv = append(argv, "-p", spec.Protocol)
	}
	if spec.Source != "" {
		if !cidrRe.MatchString(spec.Source) {
			return errors.Errorf("invalid source '%s'", spec.Source)
		}
		argv = append(argv, "-s", spec.Source)
	}
	if spec.Destination != "" {
		if !cidrRe.MatchString(spec.Destination) {
			return errors.Errorf("invalid destination '%s'", spec.Destination)
		}
		argv = append(argv, "-d", spec.Destination)
	}
	if spec.DestinationPort != 0 {
		if spec.DestinationPort < 1 || spec.DestinationPort > 65535 {
			return errors.Errorf("port %d out of range", spec.DestinationPort)
		}
		if spec.Protocol != "tcp" && spec.Protocol != "udp" {
			return errors.Errorf("port match requires tcp or udp, got '%s'", spec.Protocol)
		}
		argv = append(argv, "--dport", strconv.Itoa(spec.DestinationPort))
	}
	argv = append(argv, "-j", target)
	return s.run(ctx, argv)
}

// ControlUnit starts, stops, pauses or resumes a compute unit on the
// named backend.
func (s *ActionService) ControlUnit(ctx context.Context, backend, name, action string) error {
	if !unitNameRe.MatchString(name) {
		return errors.Errorf("invalid unit name '%s'", name)
	}
	verbs := map[string]string{"start": "start", "stop": "stop", "pause": "pause", "resume": "unpause"}
	verb, ok := verbs[action]
	if !ok {
		return errors.Errorf("unsupported unit action '%s'", action)
	}
	var argv []string
	switch backend {
	case "docker":
		argv = []string{"docker", verb, name}
	case "libvirt":
		if verb == "stop" {
			verb = "shutdown"
		}
		if verb == "pause" {
			verb = "suspend"
		}
		if verb == "unpause" {
			verb = "resume"
		}
		argv = []string{"virsh", verb, name}
	case "virtualbox":
		switch verb {
		case "start":
			argv = []string{"VBoxManage", "startvm", name, "--type", "headless"}
		case "stop":
			argv = []string{"VBoxManage", "controlvm", name, "acpipowerbutton"}
		case "pause":
			argv = []string{"VBoxManage", "controlvm", name, "pause"}
		case "unpause":
			argv = []string{"VBoxManage", "controlvm", name, "resume"}
		}
	default:
		return errors.Errorf("unsupported unit backend '%s'", backend)
	}
	return s.run(ctx, argv)
}

// Execute runs an arbitrary allow-listed argument vector.
func (s *ActionService) Execute(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("command cannot be empty")
	}
	if !s.allowed[argv[0]] {
		return "", errors.Wrapf(ErrNotAllowed, "'%s'", argv[0])
	}
	stdout, stderr, err := s.conn.ExecArgv(ctx, argv, nil)
	if err != nil {
		return string(stdout), errors.Wrapf(err, "command failed: %s", string(stderr))
	}
	s.log.Successf("action: executed %v", argv)
	return string(stdout), nil
}

func (s *ActionService) run(ctx context.Context, argv []string) error {
	if !s.allowed[argv[0]] {
		return errors.Wrapf(ErrNotAllowed, "'%s'", argv[0])
	}
	_, stderr, err := s.conn.ExecArgv(ctx, argv, nil)
	if err != nil {
		return errors.Wrapf(err, "action %v failed: %s", argv, string(stderr))
	}
	s.log.Successf("action: executed %v", argv)
	return nil
}
