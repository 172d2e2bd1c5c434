package facts

import (
	"context"
	"testing"
)

const sampleLoadavg = "0.52 0.48 0.45 2/513 48211\n"

const sampleMeminfo = `MemTotal:       16305664 kB
MemFree:         2097152 kB
MemAvailable:    8152832 kB
Buffers:          524288 kB
Cached:          4194304 kB
`

const sampleCPUInfo = `processor	: 0
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
processor	: 1
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
processor	: 2
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
processor	: 3
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
`

const sampleUptimeFile = "86452.81 335623.04\n"

func TestParseProcLoad(t *testing.T) {
	combined := sampleLoadavg + sampleMeminfo + sampleCPUInfo + sampleUptimeFile
	loads, err := parseProcLoad(combined)
	if err != nil {
		t.Fatalf("parseProcLoad returned error: %v", err)
	}
	load := loads[0]
	if load.Load1 != 0.52 || load.Load5 != 0.48 || load.Load15 != 0.45 {
		t.Errorf("load averages = %v/%v/%v", load.Load1, load.Load5, load.Load15)
	}
	if load.CPUCount != 4 {
		t.Errorf("cpu count = %d", load.CPUCount)
	}
	if load.MemoryTotalMB != 16305664/1024 {
		t.Errorf("memory total = %dMB", load.MemoryTotalMB)
	}
	if load.MemoryUsedMB != (16305664-8152832)/1024 {
		t.Errorf("memory used = %dMB", load.MemoryUsedMB)
	}
	if load.UptimeSeconds != 86452 {
		t.Errorf("uptime = %ds", load.UptimeSeconds)
	}
}

func TestParseProcLoadPartial(t *testing.T) {
	// Only loadavg readable: averages land, everything else stays zero.
	loads, err := parseProcLoad(sampleLoadavg)
	if err != nil {
		t.Fatalf("parseProcLoad returned error: %v", err)
	}
	if loads[0].Load1 != 0.52 || loads[0].MemoryTotalMB != 0 || loads[0].CPUCount != 0 {
		t.Errorf("partial load = %+v", loads[0])
	}
}

func TestParseUptimeCommand(t *testing.T) {
	loads, err := parseUptimeCommand(" 10:07:32 up 3 days,  4:12,  2 users,  load average: 1.05, 0.82, 0.60\n")
	if err != nil {
		t.Fatalf("parseUptimeCommand returned error: %v", err)
	}
	load := loads[0]
	if load.Load1 != 1.05 || load.Load5 != 0.82 || load.Load15 != 0.60 {
		t.Errorf("load averages = %v/%v/%v", load.Load1, load.Load5, load.Load15)
	}
	want := uint64(3*86400 + 4*3600 + 12*60)
	if load.UptimeSeconds != want {
		t.Errorf("uptime = %ds, want %d", load.UptimeSeconds, want)
	}
}

func TestParseUptimeCommandMinutesOnly(t *testing.T) {
	loads, err := parseUptimeCommand(" 09:20:11 up 42 min,  1 user,  load average: 0,15, 0,10, 0,05\n")
	if err != nil {
		t.Fatalf("parseUptimeCommand returned error: %v", err)
	}
	if loads[0].Load1 != 0.15 {
		t.Errorf("comma-decimal load = %v", loads[0].Load1)
	}
	if loads[0].UptimeSeconds != 42*60 {
		t.Errorf("uptime = %ds", loads[0].UptimeSeconds)
	}
}

func TestCollectLoadPrefersProcfs(t *testing.T) {
	mc := NewMockConnector()
	mc.LookPathFunc = toolsAvailable("uptime")
	mc.ReadFileFunc = fileContents(map[string]string{
		"/proc/loadavg": sampleLoadavg,
		"/proc/meminfo": sampleMeminfo,
	})
	e := newTestEngine(mc)

	load, backend := e.collectLoad(context.Background())
	if backend != "builtin" {
		t.Fatalf("backend = %q, want builtin", backend)
	}
	if load.Load1 != 0.52 || load.MemoryTotalMB == 0 {
		t.Errorf("load = %+v", load)
	}
	if len(mc.ExecHistory) != 0 {
		t.Errorf("procfs path should not shell out, ran %v", mc.ExecHistory)
	}
}

func TestCollectLoadUptimeFallback(t *testing.T) {
	mc := NewMockConnector()
	mc.LookPathFunc = toolsAvailable("uptime")
	mc.ExecFunc = execOutputs(map[string]string{
		"uptime": " 10:07:32 up 12 min,  1 user,  load average: 0.30, 0.20, 0.10\n",
	})
	e := newTestEngine(mc)

	load, backend := e.collectLoad(context.Background())
	if backend != "uptime" {
		t.Fatalf("backend = %q, want uptime", backend)
	}
	if load.Load1 != 0.30 || load.UptimeSeconds != 12*60 {
		t.Errorf("load = %+v", load)
	}
}

func TestCollectLoadPlaceholder(t *testing.T) {
	mc := NewMockConnector()
	mc.LookPathFunc = toolsAvailable()
	e := newTestEngine(mc)

	load, backend := e.collectLoad(context.Background())
	if backend != "" || load.Confidence != ConfidenceAssumed {
		t.Errorf("placeholder = %+v (backend %q)", load, backend)
	}
}
