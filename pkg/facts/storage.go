package facts

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var lsblkPairRe = regexp.MustCompile(`([A-Z]+)="([^"]*)"`)

// pseudoFilesystems are mount types a storage dashboard should not list.
var pseudoFilesystems = map[string]bool{
	"tmpfs":       true,
	"devtmpfs":    true,
	"proc":        true,
	"sysfs":       true,
	"cgroup":      true,
	"cgroup2":     true,
	"devpts":      true,
	"overlay":     false,
	"squashfs":    true,
	"efivarfs":    true,
	"securityfs":  true,
	"debugfs":     true,
	"tracefs":     true,
	"fusectl":     true,
	"configfs":    true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"pstore":      true,
	"binfmt_misc": true,
}

func (e *Engine) collectVolumes(ctx context.Context) ([]StorageVolume, string) {
	chain := []candidate[StorageVolume]{
		{Tool: "df", Source: commandSource("df -kP"), Parse: parseDf},
		{Tool: "lsblk", Source: commandSource(`lsblk -b -P -o NAME,TYPE,SIZE,FSTYPE,MOUNTPOINT`), Parse: parseLsblk},
	}
	vols, backend := collectFirst(ctx, e, "volumes", chain)
	if vols == nil {
		return placeholderVolumes(), ""
	}
	sort.Slice(vols, func(i, j int) bool { return vols[i].Mountpoint < vols[j].Mountpoint })
	return vols, backend
}

// parseDf parses POSIX "df -kP" rows. Pseudo-filesystems and zero-size
// mounts are skipped so only real volumes surface.
func parseDf(output string) ([]StorageVolume, error) {
	var vols []StorageVolume
	for i, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if i == 0 || len(fields) < 6 {
			continue
		}
		device := fields[0]
		if pseudoFilesystems[device] || !strings.HasPrefix(device, "/") && device != "overlay" {
			continue
		}
		totalKB, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil || totalKB == 0 {
			continue
		}
		usedKB, _ := strconv.ParseUint(fields[2], 10, 64)
		availKB, _ := strconv.ParseUint(fields[3], 10, 64)
		pct, _ := strconv.Atoi(strings.TrimSuffix(fields[4], "%"))
		mount := fields[5]
		vols = append(vols, StorageVolume{
			Name:           volumeName(device, mount),
			Device:         device,
			Mountpoint:     mount,
			Filesystem:     Unknown,
			TotalBytes:     totalKB * 1024,
			UsedBytes:      usedKB * 1024,
			AvailableBytes: availKB * 1024,
			UsedPercent:    pct,
			Confidence:     ConfidenceObserved,
		})
	}
	if len(vols) == 0 {
		return nil, parseError("df", "no volume rows recognized")
	}
	return vols, nil
}

// parseLsblk parses "lsblk -b -P" KEY="value" pairs. lsblk knows sizes
// and filesystems but not usage, so usage fields stay zero and the
// percent stays at its unavailable marker.
func parseLsblk(output string) ([]StorageVolume, error) {
	var vols []StorageVolume
	for _, line := range strings.Split(output, "\n") {
		pairs := lsblkPairRe.FindAllStringSubmatch(line, -1)
		if len(pairs) == 0 {
			continue
		}
		kv := make(map[string]string, len(pairs))
		for _, p := range pairs {
			kv[p[1]] = p[2]
		}
		if kv["TYPE"] != "part" && kv["TYPE"] != "lvm" && kv["TYPE"] != "crypt" {
			continue
		}
		size, _ := strconv.ParseUint(kv["SIZE"], 10, 64)
		if size == 0 {
			continue
		}
		fs := kv["FSTYPE"]
		if fs == "" || fs == "swap" {
			continue
		}
		mount := kv["MOUNTPOINT"]
		if mount == "" {
			mount = Unknown
		}
		vols = append(vols, StorageVolume{
			Name:        kv["NAME"],
			Device:      "/dev/" + kv["NAME"],
			Mountpoint:  mount,
			Filesystem:  fs,
			TotalBytes:  size,
			UsedPercent: -1,
			Confidence:  ConfidenceObserved,
		})
	}
	if len(vols) == 0 {
		return nil, parseError("lsblk", "no mountable partitions recognized")
	}
	return vols, nil
}

func volumeName(device, mount string) string {
	if mount == "/" {
		return "root"
	}
	if i := strings.LastIndexByte(device, '/'); i >= 0 && i+1 < len(device) {
		return device[i+1:]
	}
	return device
}

func placeholderVolumes() []StorageVolume {
	return []StorageVolume{{
		Name:        "root",
		Device:      Unknown,
		Mountpoint:  "/",
		Filesystem:  Unknown,
		UsedPercent: -1,
		Confidence:  ConfidenceAssumed,
	}}
}
