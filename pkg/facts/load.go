package facts

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	loadavgLineRe   = regexp.MustCompile(`^(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)\s+\d+/\d+\s+\d+$`)
	uptimeLineRe    = regexp.MustCompile(`^(\d+)(?:\.\d+)?\s+\d+(?:\.\d+)?$`)
	uptimeCmdLoadRe = regexp.MustCompile(`load averages?:\s+(\d+[.,]\d+),?\s+(\d+[.,]\d+),?\s+(\d+[.,]\d+)`)
	uptimeCmdUpRe   = regexp.MustCompile(`up\s+(?:(\d+)\s+days?,\s+)?(?:(\d+):(\d+)|(\d+)\s+min)`)
)

func (e *Engine) collectLoad(ctx context.Context) (HostLoad, string) {
	chain := []candidate[HostLoad]{
		{Source: fileSource("/proc/loadavg", "/proc/meminfo", "/proc/uptime", "/proc/cpuinfo"), Parse: parseProcLoad},
		{Tool: "uptime", Source: commandSource("uptime"), Parse: parseUptimeCommand},
	}
	loads, backend := collectFirst(ctx, e, "load", chain)
	if loads == nil {
		return placeholderLoad(), ""
	}
	return loads[0], backend
}

// parseProcLoad reads the concatenated procfs sources by line shape, so
// a host missing one of the files still yields a partial reading.
func parseProcLoad(output string) ([]HostLoad, error) {
	load := HostLoad{Confidence: ConfidenceObserved}
	haveLoad := false
	var memTotalKB, memAvailKB uint64
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case loadavgLineRe.MatchString(line):
			m := loadavgLineRe.FindStringSubmatch(line)
			load.Load1, _ = strconv.ParseFloat(m[1], 64)
			load.Load5, _ = strconv.ParseFloat(m[2], 64)
			load.Load15, _ = strconv.ParseFloat(m[3], 64)
			haveLoad = true
		case strings.HasPrefix(line, "MemTotal:"):
			memTotalKB = meminfoKB(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailKB = meminfoKB(line)
		case strings.HasPrefix(line, "processor"):
			load.CPUCount++
		case uptimeLineRe.MatchString(line):
			m := uptimeLineRe.FindStringSubmatch(line)
			load.UptimeSeconds, _ = strconv.ParseUint(m[1], 10, 64)
		}
	}
	if !haveLoad {
		return nil, parseError("procfs", "no loadavg line recognized")
	}
	if memTotalKB > 0 {
		load.MemoryTotalMB = memTotalKB / 1024
		if memAvailKB <= memTotalKB {
			load.MemoryUsedMB = (memTotalKB - memAvailKB) / 1024
		}
	}
	return []HostLoad{load}, nil
}

func meminfoKB(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	kb, _ := strconv.ParseUint(fields[1], 10, 64)
	return kb
}

// parseUptimeCommand extracts load averages and uptime from the uptime
// one-liner. Memory and CPU counts are not available on this path and
// stay zero.
func parseUptimeCommand(output string) ([]HostLoad, error) {
	m := uptimeCmdLoadRe.FindStringSubmatch(output)
	if m == nil {
		return nil, parseError("uptime", "no load averages found")
	}
	load := HostLoad{Confidence: ConfidenceObserved}
	load.Load1, _ = strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	load.Load5, _ = strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
	load.Load15, _ = strconv.ParseFloat(strings.ReplaceAll(m[3], ",", "."), 64)
	if up := uptimeCmdUpRe.FindStringSubmatch(output); up != nil {
		days, _ := strconv.ParseUint(up[1], 10, 64)
		secs := days * 86400
		if up[2] != "" {
			hours, _ := strconv.ParseUint(up[2], 10, 64)
			mins, _ := strconv.ParseUint(up[3], 10, 64)
			secs += hours*3600 + mins*60
		} else if up[4] != "" {
			mins, _ := strconv.ParseUint(up[4], 10, 64)
			secs += mins * 60
		}
		load.UptimeSeconds = secs
	}
	return []HostLoad{load}, nil
}

func placeholderLoad() HostLoad {
	return HostLoad{Confidence: ConfidenceAssumed}
}
