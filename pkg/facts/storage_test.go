package facts

import (
	"context"
	"testing"
)

const sampleDf = `Filesystem     1024-blocks     Used Available Capacity Mounted on
udev               8087376        0   8087376       0% /dev
tmpfs              1624828     1696   1623132       1% /run
/dev/sda2        479079112 64792940 389875736      15% /
/dev/sda1           523248     5356    517892       2% /boot/efi
/dev/sdb1        982820384 23520400 909314556       3% /data
tmpfs              8124124        0   8124124       0% /dev/shm
`

const sampleLsblk = `NAME="sda" TYPE="disk" SIZE="512110190592" FSTYPE="" MOUNTPOINT=""
NAME="sda1" TYPE="part" SIZE="535822336" FSTYPE="vfat" MOUNTPOINT="/boot/efi"
NAME="sda2" TYPE="part" SIZE="490580262912" FSTYPE="ext4" MOUNTPOINT="/"
NAME="sdb" TYPE="disk" SIZE="1006632960000" FSTYPE="" MOUNTPOINT=""
NAME="sdb1" TYPE="part" SIZE="1006630862848" FSTYPE="xfs" MOUNTPOINT="/data"
NAME="sr0" TYPE="rom" SIZE="1073741312" FSTYPE="" MOUNTPOINT=""
`

func TestParseDf(t *testing.T) {
	vols, err := parseDf(sampleDf)
	if err != nil {
		t.Fatalf("parseDf returned error: %v", err)
	}
	// udev/tmpfs rows are pseudo and dropped.
	if len(vols) != 3 {
		t.Fatalf("expected 3 volumes, got %d: %+v", len(vols), vols)
	}
	root := vols[0]
	if root.Name != "root" || root.Device != "/dev/sda2" || root.Mountpoint != "/" {
		t.Errorf("root volume = %+v", root)
	}
	if root.TotalBytes != 479079112*1024 || root.UsedPercent != 15 {
		t.Errorf("root sizes = %d/%d%%", root.TotalBytes, root.UsedPercent)
	}
	if root.UsedBytes == 0 || root.AvailableBytes == 0 {
		t.Errorf("root usage missing: %+v", root)
	}
}

func TestParseLsblk(t *testing.T) {
	vols, err := parseLsblk(sampleLsblk)
	if err != nil {
		t.Fatalf("parseLsblk returned error: %v", err)
	}
	// Whole disks and the rom row carry no filesystem and are dropped.
	if len(vols) != 3 {
		t.Fatalf("expected 3 volumes, got %d: %+v", len(vols), vols)
	}
	sda2 := vols[1]
	if sda2.Device != "/dev/sda2" || sda2.Filesystem != "ext4" || sda2.Mountpoint != "/" {
		t.Errorf("sda2 = %+v", sda2)
	}
	if sda2.TotalBytes != 490580262912 {
		t.Errorf("sda2 size = %d", sda2.TotalBytes)
	}
	// lsblk cannot report usage.
	if sda2.UsedPercent != -1 {
		t.Errorf("sda2 used%% = %d, want -1 marker", sda2.UsedPercent)
	}
}

func TestCollectVolumesPlaceholder(t *testing.T) {
	mc := NewMockConnector()
	mc.LookPathFunc = toolsAvailable()
	e := newTestEngine(mc)

	vols, backend := e.collectVolumes(context.Background())
	if backend != "" || len(vols) == 0 {
		t.Fatalf("placeholder = %v (backend %q)", vols, backend)
	}
	if vols[0].Mountpoint != "/" || vols[0].Confidence != ConfidenceAssumed {
		t.Errorf("placeholder volume = %+v", vols[0])
	}
}
