package facts

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	ufwStatusRe = regexp.MustCompile(`(?m)^Status:\s+active`)
	ufwRuleRe   = regexp.MustCompile(`^\[\s*(\d+)\]\s+(\S+(?:\s+\(v6\))?)\s+(ALLOW|DENY|REJECT|LIMIT)(?:\s+(IN|OUT))?\s+(.*)$`)

	iptablesChainRe = regexp.MustCompile(`^Chain\s+(\S+)\s+\(policy\s+(\w+)(?:\s+(\d+)\s+packets)?`)
	iptablesAddrRe  = regexp.MustCompile(`\b(\d+\.\d+\.\d+\.\d+(?:/\d+)?|anywhere)\b`)
	iptablesProtoRe = regexp.MustCompile(`\b(tcp|udp|icmp)\b`)
	iptablesDptRe   = regexp.MustCompile(`dpts?:(\S+)`)
	iptablesSptRe   = regexp.MustCompile(`spts?:(\S+)`)

	firewalldPortRe = regexp.MustCompile(`^(\d+(?:-\d+)?)/(tcp|udp)$`)
)

func (e *Engine) collectFirewall(ctx context.Context) ([]FirewallRule, string) {
	chain := []candidate[FirewallRule]{
		{Tool: "ufw", Source: commandSource("ufw status numbered"), Parse: parseUfw},
		{Tool: "iptables", Source: commandSource("iptables -L -n -v --line-numbers"), Parse: parseIptables},
		{Tool: "firewall-cmd", Source: commandSource("firewall-cmd --list-all"), Parse: parseFirewalld},
	}
	rules, backend := collectFirst(ctx, e, "firewall", chain)
	if rules == nil {
		return placeholderFirewall(), ""
	}
	for i := range rules {
		rules[i].ID = i + 1
	}
	return rules, backend
}

// parseUfw parses "ufw status numbered". An inactive firewall parses to
// zero rules on purpose: the chain then falls through to the backend
// that can actually see the packet filter.
func parseUfw(output string) ([]FirewallRule, error) {
	if !ufwStatusRe.MatchString(output) {
		return nil, parseError("ufw", "firewall not active")
	}
	var rules []FirewallRule
	for _, line := range strings.Split(output, "\n") {
		m := ufwRuleRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		r := newRule()
		r.ID, _ = strconv.Atoi(m[1])
		switch m[3] {
		case "ALLOW", "LIMIT":
			r.Action = ActionAccept
		case "DENY":
			r.Action = ActionDrop
		case "REJECT":
			r.Action = ActionReject
		}
		if m[4] == "OUT" {
			r.Chain = ChainOutput
		}
		// The "To" column is either "22/tcp", a bare port, or an address.
		target := strings.TrimSuffix(m[2], " (v6)")
		if port, proto, found := strings.Cut(target, "/"); found && isNumeric(port) {
			r.DestinationPort = port
			r.Protocol = Protocol(proto)
		} else if isNumeric(target) {
			r.DestinationPort = target
		} else {
			r.Destination = target
		}
		from := strings.TrimSpace(m[5])
		if from != "" && !strings.EqualFold(from, "anywhere") {
			r.Source = from
		}
		r.Description = "ufw rule " + strconv.Itoa(r.ID)
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, parseError("ufw", "active but no numbered rules found")
	}
	return rules, nil
}

// parseIptables parses "iptables -L -n" output, with or without the
// verbose counter columns. Chain headers scope subsequent rules; only
// the three built-in filter chains are kept.
func parseIptables(output string) ([]FirewallRule, error) {
	chainNames := map[string]Chain{
		"INPUT":   ChainInput,
		"OUTPUT":  ChainOutput,
		"FORWARD": ChainForward,
	}
	var rules []FirewallRule
	current := Chain("")
	verbose := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := iptablesChainRe.FindStringSubmatch(trimmed); m != nil {
			current = chainNames[m[1]]
			continue
		}
		if current == "" || trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 4 || !isNumeric(fields[0]) {
			if len(fields) > 0 && fields[0] == "num" {
				verbose = len(fields) > 1 && fields[1] == "pkts"
			}
			continue
		}
		r := newRule()
		r.Chain = current
		r.ID, _ = strconv.Atoi(fields[0])
		rest := fields[1:]
		if verbose && len(rest) >= 2 && isCounter(rest[0]) && isCounter(rest[1]) {
			r.Hits = parseCounter(rest[0])
			rest = rest[2:]
		}
		if len(rest) == 0 {
			continue
		}
		switch rest[0] {
		case "ACCEPT":
			r.Action = ActionAccept
		case "DROP":
			r.Action = ActionDrop
		case "REJECT":
			r.Action = ActionReject
		default:
			// Jumps to user-defined chains are out of scope here.
			continue
		}
		detail := strings.Join(rest[1:], " ")
		if m := iptablesProtoRe.FindStringSubmatch(detail); m != nil {
			r.Protocol = Protocol(m[1])
		}
		addrs := iptablesAddrRe.FindAllString(detail, 2)
		if len(addrs) > 0 && addrs[0] != "anywhere" && addrs[0] != "0.0.0.0/0" {
			r.Source = addrs[0]
		}
		if len(addrs) > 1 && addrs[1] != "anywhere" && addrs[1] != "0.0.0.0/0" {
			r.Destination = addrs[1]
		}
		if m := iptablesDptRe.FindStringSubmatch(detail); m != nil {
			r.DestinationPort = m[1]
		}
		if m := iptablesSptRe.FindStringSubmatch(detail); m != nil {
			r.SourcePort = m[1]
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, parseError("iptables", "no rules in built-in chains")
	}
	return rules, nil
}

// parseFirewalld flattens "firewall-cmd --list-all" zone output: each
// listed service and each opened port becomes one accept rule.
func parseFirewalld(output string) ([]FirewallRule, error) {
	var rules []FirewallRule
	zone := Unknown
	for i, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if i == 0 && trimmed != "" {
			zone = strings.Fields(trimmed)[0]
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "services":
			for _, svc := range strings.Fields(value) {
				r := newRule()
				r.Description = "zone " + zone + " service " + svc
				rules = append(rules, r)
			}
		case "ports":
			for _, p := range strings.Fields(value) {
				m := firewalldPortRe.FindStringSubmatch(p)
				if m == nil {
					continue
				}
				r := newRule()
				r.DestinationPort = m[1]
				r.Protocol = Protocol(m[2])
				r.Description = "zone " + zone + " port " + p
				rules = append(rules, r)
			}
		}
	}
	if len(rules) == 0 {
		return nil, parseError("firewall-cmd", "no services or ports listed")
	}
	return rules, nil
}

func newRule() FirewallRule {
	return FirewallRule{
		Chain:           ChainInput,
		Action:          ActionAccept,
		Protocol:        ProtoAny,
		Source:          "0.0.0.0/0",
		Destination:     "0.0.0.0/0",
		SourcePort:      Unknown,
		DestinationPort: Unknown,
		Enabled:         true,
		Confidence:      ConfidenceObserved,
	}
}

// placeholderFirewall is the synthetic open-policy rule reported when no
// firewall backend exists on the host.
func placeholderFirewall() []FirewallRule {
	r := newRule()
	r.ID = 1
	r.Description = "default accept policy (no firewall backend detected)"
	r.Confidence = ConfidenceAssumed
	return []FirewallRule{r}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isCounter accepts iptables -v counters, which abbreviate with K/M/G
// suffixes once they grow large.
func isCounter(s string) bool {
	if s == "" {
		return false
	}
	trimmed := strings.TrimRight(s, "KMG")
	return trimmed != "" && isNumeric(trimmed)
}

func parseCounter(s string) uint64 {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1000, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1000000, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1000000000, strings.TrimSuffix(s, "G")
	}
	n, _ := strconv.ParseUint(s, 10, 64)
	return n * mult
}
