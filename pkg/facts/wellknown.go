package facts

import (
	"strconv"
	"strings"
)

// wellKnownServices is the built-in port-to-service table consulted
// before /etc/services. It covers the services a dashboard is most
// likely to surface so name resolution works even on minimal images
// without an /etc/services file.
var wellKnownServices = map[int]string{
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	67:    "dhcp",
	68:    "dhcp-client",
	69:    "tftp",
	80:    "http",
	110:   "pop3",
	111:   "rpcbind",
	123:   "ntp",
	143:   "imap",
	161:   "snmp",
	389:   "ldap",
	443:   "https",
	445:   "smb",
	465:   "smtps",
	514:   "syslog",
	587:   "submission",
	631:   "ipp",
	636:   "ldaps",
	873:   "rsync",
	993:   "imaps",
	995:   "pop3s",
	1433:  "mssql",
	2049:  "nfs",
	2375:  "docker",
	3128:  "squid",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	5672:  "amqp",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-alt",
	8443:  "https-alt",
	9090:  "prometheus",
	9100:  "node-exporter",
	11211: "memcached",
	27017: "mongodb",
}

// parseEtcServices builds a port/proto lookup from /etc/services content.
// Keys are "port/proto" so tcp and udp entries stay distinct.
func parseEtcServices(content string) map[string]string {
	services := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		portProto := strings.SplitN(fields[1], "/", 2)
		if len(portProto) != 2 {
			continue
		}
		if _, err := strconv.Atoi(portProto[0]); err != nil {
			continue
		}
		key := portProto[0] + "/" + strings.ToLower(portProto[1])
		if _, exists := services[key]; !exists {
			services[key] = fields[0]
		}
	}
	return services
}
