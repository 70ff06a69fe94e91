package sysinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var collectedAt = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func fakeCollector() *Collector {
	return &Collector{
		HostInfo: func(context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{
				Hostname:        "PC-042",
				OS:              "windows",
				Platform:        "Microsoft Windows 11 Enterprise",
				PlatformVersion: "10.0.22631",
				KernelVersion:   "10.0.22631 Build 22631",
				KernelArch:      "x86_64",
				BootTime:        uint64(collectedAt.Add(-26 * time.Hour).Unix()),
				Uptime:          uint64((26 * time.Hour).Seconds()),
			}, nil
		},
		VirtualMemory: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Total: 16 << 30, Available: 8 << 30, Used: 8 << 30, UsedPercent: 50}, nil
		},
		Partitions: func(context.Context, bool) ([]disk.PartitionStat, error) {
			return []disk.PartitionStat{
				{Device: "D:", Mountpoint: "D:", Fstype: "NTFS"},
				{Device: "C:", Mountpoint: "C:", Fstype: "NTFS"},
				{Device: "C:", Mountpoint: "C:", Fstype: "NTFS"},
				{Device: "E:", Mountpoint: "E:", Fstype: "UDF"},
			}, nil
		},
		Usage: func(_ context.Context, path string) (*disk.UsageStat, error) {
			if path == "E:" {
				return nil, errors.New("device not ready")
			}
			return &disk.UsageStat{Path: path, Total: 512 << 30, Free: 128 << 30, Used: 384 << 30, UsedPercent: 75}, nil
		},
		CPUInfo: func(context.Context) ([]cpu.InfoStat, error) {
			return []cpu.InfoStat{{ModelName: " Intel(R) Core(TM) i7 ", Mhz: 2800}}, nil
		},
		CPUCounts: func(_ context.Context, logical bool) (int, error) {
			if logical {
				return 16, nil
			}
			return 8, nil
		},
		CPUPercent: func(context.Context, time.Duration, bool) ([]float64, error) {
			return []float64{12.5}, nil
		},
		Users: func(context.Context) ([]host.UserStat, error) {
			return nil, errors.New("not implemented yet")
		},
		Platform: func(context.Context) (PlatformDetails, error) {
			return PlatformDetails{
				Caption:  "Microsoft Windows 11 Enterprise",
				Domain:   "CONTOSO",
				Sessions: []Session{{User: "jdoe", Terminal: "console", ID: "1", State: "Active"}},
			}, nil
		},
		Now: func() time.Time { return collectedAt },
	}
}

func TestCollect(t *testing.T) {
	snap, err := fakeCollector().Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, collectedAt, snap.CollectedAt)
	assert.Equal(t, "PC-042", snap.Host.Hostname)
	assert.Equal(t, "x86_64", snap.Host.Arch)
	assert.Equal(t, "CONTOSO", snap.Host.Domain)
	assert.Equal(t, 26*time.Hour, snap.Host.Uptime)
	assert.EqualValues(t, 16<<30, snap.Memory.Total)

	require.Len(t, snap.Disks, 2, "duplicates and unreadable volumes are dropped")
	assert.Equal(t, "C:", snap.Disks[0].Mountpoint)
	assert.Equal(t, "D:", snap.Disks[1].Mountpoint)

	assert.Equal(t, CPU{Model: "Intel(R) Core(TM) i7", Cores: 8, LogicalCores: 16, Mhz: 2800, UsagePercent: 12.5}, snap.CPU)
	assert.Equal(t, []Session{{User: "jdoe", Terminal: "console", ID: "1", State: "Active"}}, snap.Sessions)
	assert.Empty(t, snap.Warnings)
}

func TestCollectPartialFailures(t *testing.T) {
	c := fakeCollector()
	c.VirtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("access denied")
	}
	c.CPUInfo = func(context.Context) ([]cpu.InfoStat, error) {
		return nil, errors.New("wmi timeout")
	}

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memory: access denied", "cpu: wmi timeout"}, snap.Warnings)
	assert.Len(t, snap.Disks, 2)
}

func TestCollectHostFailureIsFatal(t *testing.T) {
	c := fakeCollector()
	c.HostInfo = func(context.Context) (*host.InfoStat, error) {
		return nil, errors.New("boom")
	}
	_, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading host information")
}

func TestSnapshotPairs(t *testing.T) {
	snap, err := fakeCollector().Collect(context.Background())
	require.NoError(t, err)

	got := make(map[string]string)
	for _, p := range snap.Pairs() {
		got[p.Key] = p.Value
	}
	assert.Equal(t, "PC-042", got["Computer"])
	assert.Equal(t, "Microsoft Windows 11 Enterprise", got["OS"])
	assert.Equal(t, "CONTOSO", got["Domain"])
	assert.Equal(t, "8.0 GiB used of 16 GiB (50.0%)", got["Memory"])
	assert.Equal(t, "128 GiB free of 512 GiB (75.0% used, NTFS)", got["Disk C:"])
	assert.Equal(t, "jdoe on console (Active)", got["Session"])
	assert.Contains(t, got["CPU"], "8 cores / 16 threads")
	assert.Equal(t, "26h0m0s", got["Uptime"])

}

func TestMergeSessions(t *testing.T) {
	base := []Session{{User: "JDoe", Terminal: "pts/0"}}
	extra := []Session{
		{User: "jdoe", Terminal: "pts/0", State: "Active"},
		{User: "admin", ID: "2", State: "Disc"},
	}
	merged := mergeSessions(base, extra)
	assert.Equal(t, []Session{
		{User: "JDoe", Terminal: "pts/0"},
		{User: "admin", ID: "2", State: "Disc"},
	}, merged)
}

func TestParseQuser(t *testing.T) {
	out := " USERNAME              SESSIONNAME        ID  STATE   IDLE TIME  LOGON TIME\r\n" +
		">jdoe                  console             1  Active      none   10/18/2026 8:01 AM\r\n" +
		" svc_backup                                2  Disc         1:05  10/17/2026 11:42 PM\r\n" +
		"\r\n"

	assert.Equal(t, []Session{
		{User: "jdoe", Terminal: "console", ID: "1", State: "Active", Idle: "none", LogonTime: "10/18/2026 8:01 AM"},
		{User: "svc_backup", ID: "2", State: "Disc", Idle: "1:05", LogonTime: "10/17/2026 11:42 PM"},
	}, parseQuser(out))

	assert.Nil(t, parseQuser("No User exists for *"))
	assert.Nil(t, parseQuser(""))
}
