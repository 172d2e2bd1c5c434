// Package facts implements the host introspection and normalization engine.
// Each fact family (interfaces, connections, ports, firewall, storage,
// compute units, load) owns an ordered fallback chain of candidate tools;
// the first available backend wins and its free-form text output is parsed
// into the normalized records below. The engine never fails a request: when
// every backend is unavailable it degrades to clearly tagged placeholder
// records instead.
package facts

import "time"

// Unknown is the sentinel for string fields that could not be determined.
// It is distinct from the empty string so a missing reading is never
// conflated with a genuinely empty value.
const Unknown = "unknown"

// Confidence tags whether a record was parsed from real tool output or
// synthesized as a graceful-degradation placeholder.
type Confidence string

const (
	// ConfidenceObserved marks data parsed from an actual backend.
	ConfidenceObserved Confidence = "observed"
	// ConfidenceAssumed marks placeholder data injected when no backend
	// could be consulted. Assumed entries must never be presented as
	// probed facts.
	ConfidenceAssumed Confidence = "assumed"
)

// InterfaceKind classifies a network interface.
type InterfaceKind string

const (
	KindEthernet InterfaceKind = "ethernet"
	KindWifi     InterfaceKind = "wifi"
	KindBridge   InterfaceKind = "bridge"
	KindBond     InterfaceKind = "bond"
	KindVlan     InterfaceKind = "vlan"
)

// LinkState is the administrative/operational state of an interface.
type LinkState string

const (
	LinkUp           LinkState = "up"
	LinkDown         LinkState = "down"
	LinkDisconnected LinkState = "disconnected"
)

// InterfaceCounters holds receive/transmit counters for one interface.
// Valid distinguishes a real zero reading from "never read".
type InterfaceCounters struct {
	RxBytes   uint64 `json:"rxBytes"`
	RxPackets uint64 `json:"rxPackets"`
	RxErrors  uint64 `json:"rxErrors"`
	TxBytes   uint64 `json:"txBytes"`
	TxPackets uint64 `json:"txPackets"`
	TxErrors  uint64 `json:"txErrors"`
	Valid     bool   `json:"valid"`
}

// NetworkInterface is the canonical interface record. Name is unique
// within one snapshot.
type NetworkInterface struct {
	Name       string            `json:"name"`
	Kind       InterfaceKind     `json:"kind"`
	State      LinkState         `json:"state"`
	MAC        string            `json:"mac"`
	IPv4       string            `json:"ipv4"`
	Netmask    string            `json:"netmask"`
	Gateway    string            `json:"gateway"`
	MTU        int               `json:"mtu"`
	Speed      string            `json:"speed"`
	Duplex     string            `json:"duplex"`
	Counters   InterfaceCounters `json:"counters"`
	RxRateBps  float64           `json:"rxRateBps"`
	TxRateBps  float64           `json:"txRateBps"`
	Confidence Confidence        `json:"confidence"`
}

// Protocol is a transport protocol.
type Protocol string

const (
	ProtoTCP  Protocol = "tcp"
	ProtoUDP  Protocol = "udp"
	ProtoICMP Protocol = "icmp"
	ProtoAny  Protocol = "any"
)

// Connection is one socket-table entry.
type Connection struct {
	Protocol    Protocol   `json:"protocol"`
	LocalAddr   string     `json:"localAddr"`
	LocalPort   int        `json:"localPort"`
	ForeignAddr string     `json:"foreignAddr"`
	ForeignPort int        `json:"foreignPort"`
	State       string     `json:"state"`
	Process     string     `json:"process"`
	PID         int        `json:"pid,omitempty"`
	Confidence  Confidence `json:"confidence"`
}

// PortState is the reported state of a listening port.
type PortState string

const (
	PortOpen      PortState = "open"
	PortClosed    PortState = "closed"
	PortFiltered  PortState = "filtered"
	PortListening PortState = "listening"
)

// ListeningPort is a normalized socket the host accepts traffic on.
// Port is always within 1-65535; port 0 lines are rejected by parsers.
type ListeningPort struct {
	Port       int        `json:"port"`
	Protocol   Protocol   `json:"protocol"`
	State      PortState  `json:"state"`
	Service    string     `json:"service"`
	Process    string     `json:"process,omitempty"`
	PID        int        `json:"pid,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Chain is a firewall rule chain.
type Chain string

const (
	ChainInput   Chain = "input"
	ChainOutput  Chain = "output"
	ChainForward Chain = "forward"
)

// Action is a firewall rule verdict.
type Action string

const (
	ActionAccept Action = "accept"
	ActionDrop   Action = "drop"
	ActionReject Action = "reject"
)

// FirewallRule is the canonical firewall rule shape every backend
// (rule-numbered lists, allow/deny summaries, zone dumps) maps into.
type FirewallRule struct {
	ID              int        `json:"id"`
	Chain           Chain      `json:"chain"`
	Action          Action     `json:"action"`
	Protocol        Protocol   `json:"protocol"`
	Source          string     `json:"source"`
	Destination     string     `json:"destination"`
	SourcePort      string     `json:"sourcePort"`
	DestinationPort string     `json:"destinationPort"`
	Enabled         bool       `json:"enabled"`
	Description     string     `json:"description"`
	Hits            uint64     `json:"hits"`
	LastHit         *time.Time `json:"lastHit,omitempty"`
	Confidence      Confidence `json:"confidence"`
}

// StorageVolume is one mounted filesystem or block device.
type StorageVolume struct {
	Name           string     `json:"name"`
	Device         string     `json:"device"`
	Mountpoint     string     `json:"mountpoint"`
	Filesystem     string     `json:"filesystem"`
	TotalBytes     uint64     `json:"totalBytes"`
	UsedBytes      uint64     `json:"usedBytes"`
	AvailableBytes uint64     `json:"availableBytes"`
	UsedPercent    int        `json:"usedPercent"`
	Confidence     Confidence `json:"confidence"`
}

// UnitKind classifies a compute unit.
type UnitKind string

const (
	UnitVM        UnitKind = "vm"
	UnitContainer UnitKind = "container"
	UnitProcess   UnitKind = "process"
)

// UnitStatus is the lifecycle state of a compute unit.
type UnitStatus string

const (
	StatusRunning UnitStatus = "running"
	StatusStopped UnitStatus = "stopped"
	StatusPaused  UnitStatus = "paused"
	StatusUnknown UnitStatus = "unknown"
)

// ComputeUnit is this engine's umbrella record for a VM, a container, or
// (as last-resort fallback outside containers) a top-CPU host process.
type ComputeUnit struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       UnitKind   `json:"kind"`
	Backend    string     `json:"backend"`
	Status     UnitStatus `json:"status"`
	CPUPercent float64    `json:"cpuPercent"`
	MemoryMB   uint64     `json:"memoryMB"`
	Image      string     `json:"image,omitempty"`
	PID        int        `json:"pid,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// HostLoad is a point-in-time load and memory reading.
type HostLoad struct {
	Load1         float64    `json:"load1"`
	Load5         float64    `json:"load5"`
	Load15        float64    `json:"load15"`
	CPUCount      int        `json:"cpuCount"`
	MemoryTotalMB uint64     `json:"memoryTotalMB"`
	MemoryUsedMB  uint64     `json:"memoryUsedMB"`
	UptimeSeconds uint64     `json:"uptimeSeconds"`
	Confidence    Confidence `json:"confidence"`
}

// Snapshot is one full collection pass over every fact family. Entities
// are constructed fresh per call and have no identity across snapshots.
type Snapshot struct {
	Interfaces  []NetworkInterface `json:"interfaces"`
	Connections []Connection       `json:"connections"`
	Ports       []ListeningPort    `json:"ports"`
	Firewall    []FirewallRule     `json:"firewall"`
	Volumes     []StorageVolume    `json:"volumes"`
	Units       []ComputeUnit      `json:"units"`
	Load        HostLoad           `json:"load"`
	CollectedAt time.Time          `json:"collectedAt"`

	// Backends records which tool actually served each family. It is
	// diagnostic only and never serialized to API consumers.
	Backends map[string]string `json:"-"`
}
