package facts

// Interface merge precedence, most authoritative last:
//  1. primary backend (ip or ifconfig): identity, kind, state, mtu
//  2. counter pass (/proc/net/dev): counters
//  3. route pass: gateway
//  4. sysfs pass: speed, duplex
// A later pass only ever fills or replaces the fields it owns; it never
// regresses a populated field back to the sentinel. The merge is a pure
// function of its inputs, so repeating it with the same inputs yields an
// identical record.

// mergeInterfaces joins partial records onto the primary set by
// interface name. Partials for names the primary backend never reported
// are dropped: the primary defines which interfaces exist.
func mergeInterfaces(primary, partials []NetworkInterface) []NetworkInterface {
	byName := make(map[string]int, len(primary))
	for i := range primary {
		byName[primary[i].Name] = i
	}
	for _, p := range partials {
		if i, ok := byName[p.Name]; ok {
			primary[i] = mergeInterface(primary[i], p)
		}
	}
	return primary
}

// mergeInterface overlays the populated fields of overlay onto base.
func mergeInterface(base, overlay NetworkInterface) NetworkInterface {
	out := base
	if populated(overlay.MAC) {
		out.MAC = overlay.MAC
	}
	if populated(overlay.IPv4) {
		out.IPv4 = overlay.IPv4
	}
	if populated(overlay.Netmask) {
		out.Netmask = overlay.Netmask
	}
	if populated(overlay.Gateway) {
		out.Gateway = overlay.Gateway
	}
	if populated(overlay.Speed) {
		out.Speed = overlay.Speed
	}
	if populated(overlay.Duplex) {
		out.Duplex = overlay.Duplex
	}
	if overlay.MTU > 0 {
		out.MTU = overlay.MTU
	}
	if overlay.Counters.Valid {
		out.Counters = overlay.Counters
	}
	if overlay.RxRateBps > 0 {
		out.RxRateBps = overlay.RxRateBps
	}
	if overlay.TxRateBps > 0 {
		out.TxRateBps = overlay.TxRateBps
	}
	return out
}

func populated(s string) bool {
	return s != "" && s != Unknown
}

// counterPartials lifts a procfs counter map into partial interface
// records so the counter pass flows through the same merge as every
// other pass.
func counterPartials(counters map[string]InterfaceCounters) []NetworkInterface {
	partials := make([]NetworkInterface, 0, len(counters))
	for name, c := range counters {
		partials = append(partials, NetworkInterface{Name: name, Counters: c})
	}
	return partials
}
