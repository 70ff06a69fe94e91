// pkg/sysinfo/sysinfo.go - local system diagnostics snapshot.

package sysinfo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
)

// Host describes the operating system.
type Host struct {
	Hostname        string        `yaml:"hostname"`
	OS              string        `yaml:"os"`
	Caption         string        `yaml:"caption,omitempty"`
	Platform        string        `yaml:"platform"`
	PlatformVersion string        `yaml:"platform_version"`
	KernelVersion   string        `yaml:"kernel_version"`
	Arch            string        `yaml:"arch"`
	Domain          string        `yaml:"domain,omitempty"`
	BootTime        time.Time     `yaml:"boot_time"`
	Uptime          time.Duration `yaml:"uptime"`
}

// Memory is physical memory usage in bytes.
type Memory struct {
	Total       uint64  `yaml:"total"`
	Available   uint64  `yaml:"available"`
	Used        uint64  `yaml:"used"`
	UsedPercent float64 `yaml:"used_percent"`
}

// Disk is usage of one mounted volume.
type Disk struct {
	Mountpoint  string  `yaml:"mountpoint"`
	Device      string  `yaml:"device"`
	Fstype      string  `yaml:"fstype"`
	Total       uint64  `yaml:"total"`
	Free        uint64  `yaml:"free"`
	Used        uint64  `yaml:"used"`
	UsedPercent float64 `yaml:"used_percent"`
}

// CPU summarizes processors and current load.
type CPU struct {
	Model        string  `yaml:"model"`
	Cores        int     `yaml:"cores"`
	LogicalCores int     `yaml:"logical_cores"`
	Mhz          float64 `yaml:"mhz"`
	UsagePercent float64 `yaml:"usage_percent"`
}

// Session is a logged-on user session.
type Session struct {
	User      string `yaml:"user"`
	Terminal  string `yaml:"terminal,omitempty"`
	ID        string `yaml:"id,omitempty"`
	State     string `yaml:"state,omitempty"`
	Idle      string `yaml:"idle,omitempty"`
	LogonTime string `yaml:"logon_time,omitempty"`
	Host      string `yaml:"host,omitempty"`
}

// Snapshot is one collection run. Sections that failed are listed in Warnings.
type Snapshot struct {
	CollectedAt time.Time `yaml:"collected_at"`
	Host        Host      `yaml:"host"`
	Memory      Memory    `yaml:"memory"`
	Disks       []Disk    `yaml:"disks"`
	CPU         CPU       `yaml:"cpu"`
	Sessions    []Session `yaml:"sessions"`
	Warnings    []string  `yaml:"warnings,omitempty"`
}

// PlatformDetails are facts only some platforms expose.
type PlatformDetails struct {
	Caption  string
	Domain   string
	Sessions []Session
}

// Collector gathers a Snapshot. Each source is a field so callers can
// substitute them; NewCollector wires the gopsutil implementations.
type Collector struct {
	HostInfo       func(ctx context.Context) (*host.InfoStat, error)
	VirtualMemory  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	Partitions     func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	Usage          func(ctx context.Context, path string) (*disk.UsageStat, error)
	CPUInfo        func(ctx context.Context) ([]cpu.InfoStat, error)
	CPUCounts      func(ctx context.Context, logical bool) (int, error)
	CPUPercent     func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	Users          func(ctx context.Context) ([]host.UserStat, error)
	Platform       func(ctx context.Context) (PlatformDetails, error)
	SampleInterval time.Duration
	Now            func() time.Time
}

// NewCollector returns a Collector backed by gopsutil and platform queries.
func NewCollector() *Collector {
	return &Collector{
		HostInfo:       host.InfoWithContext,
		VirtualMemory:  mem.VirtualMemoryWithContext,
		Partitions:     disk.PartitionsWithContext,
		Usage:          disk.UsageWithContext,
		CPUInfo:        cpu.InfoWithContext,
		CPUCounts:      cpu.CountsWithContext,
		CPUPercent:     cpu.PercentWithContext,
		Users:          host.UsersWithContext,
		Platform:       platformDetails,
		SampleInterval: 500 * time.Millisecond,
		Now:            time.Now,
	}
}

// Collect gathers a snapshot with the default collector.
func Collect(ctx context.Context) (*Snapshot, error) {
	return NewCollector().Collect(ctx)
}

// Collect gathers a snapshot. Only a host info failure is fatal.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{CollectedAt: c.Now()}
	warn := func(section string, err error) {
		msg := fmt.Sprintf("%s: %v", section, err)
		logging.Warn("Diagnostics section unavailable", "section", section, "error", err)
		snap.Warnings = append(snap.Warnings, msg)
	}

	hi, err := c.HostInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host information: %w", err)
	}
	snap.Host = Host{
		Hostname:        hi.Hostname,
		OS:              hi.OS,
		Platform:        hi.Platform,
		PlatformVersion: hi.PlatformVersion,
		KernelVersion:   hi.KernelVersion,
		Arch:            hi.KernelArch,
		BootTime:        time.Unix(int64(hi.BootTime), 0),
		Uptime:          time.Duration(hi.Uptime) * time.Second,
	}

	if vm, err := c.VirtualMemory(ctx); err != nil {
		warn("memory", err)
	} else {
		snap.Memory = Memory{Total: vm.Total, Available: vm.Available, Used: vm.Used, UsedPercent: vm.UsedPercent}
	}

	if disks, err := c.disks(ctx); err != nil {
		warn("disks", err)
	} else {
		snap.Disks = disks
	}

	snap.CPU, err = c.cpu(ctx)
	if err != nil {
		warn("cpu", err)
	}

	if users, err := c.Users(ctx); err != nil {
		logging.Debug("Session enumeration via utmp unavailable", "error", err)
	} else {
		for _, u := range users {
			s := Session{User: u.User, Terminal: u.Terminal, Host: u.Host}
			if u.Started > 0 {
				s.LogonTime = time.Unix(int64(u.Started), 0).Format(time.RFC3339)
			}
			snap.Sessions = append(snap.Sessions, s)
		}
	}

	if c.Platform != nil {
		pd, err := c.Platform(ctx)
		if err != nil {
			warn("platform", err)
		}
		snap.Host.Caption = pd.Caption
		snap.Host.Domain = pd.Domain
		snap.Sessions = mergeSessions(snap.Sessions, pd.Sessions)
	}
	return snap, nil
}

func (c *Collector) disks(ctx context.Context) ([]Disk, error) {
	parts, err := c.Partitions(ctx, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var disks []Disk
	for _, p := range parts {
		if seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true
		u, err := c.Usage(ctx, p.Mountpoint)
		if err != nil {
			// Removable drives without media fail here.
			logging.Debug("Skipping volume", "mountpoint", p.Mountpoint, "error", err)
			continue
		}
		disks = append(disks, Disk{
			Mountpoint:  p.Mountpoint,
			Device:      p.Device,
			Fstype:      p.Fstype,
			Total:       u.Total,
			Free:        u.Free,
			Used:        u.Used,
			UsedPercent: u.UsedPercent,
		})
	}
	sort.Slice(disks, func(i, j int) bool { return disks[i].Mountpoint < disks[j].Mountpoint })
	return disks, nil
}

func (c *Collector) cpu(ctx context.Context) (CPU, error) {
	var out CPU
	infos, err := c.CPUInfo(ctx)
	if err != nil {
		return out, err
	}
	if len(infos) > 0 {
		out.Model = strings.TrimSpace(infos[0].ModelName)
		out.Mhz = infos[0].Mhz
	}
	if n, err := c.CPUCounts(ctx, false); err == nil {
		out.Cores = n
	}
	if n, err := c.CPUCounts(ctx, true); err == nil {
		out.LogicalCores = n
	}
	if pct, err := c.CPUPercent(ctx, c.SampleInterval, false); err == nil && len(pct) > 0 {
		out.UsagePercent = pct[0]
	}
	return out, nil
}

// mergeSessions appends platform sessions whose user is not already listed.
func mergeSessions(base, extra []Session) []Session {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[strings.ToLower(s.User)+"|"+s.Terminal] = true
	}
	for _, s := range extra {
		if !seen[strings.ToLower(s.User)+"|"+s.Terminal] {
			base = append(base, s)
		}
	}
	return base
}

// Pairs flattens the snapshot into display rows.
func (s *Snapshot) Pairs() []output.Pair {
	osName := s.Host.Caption
	if osName == "" {
		osName = strings.TrimSpace(s.Host.Platform + " " + s.Host.PlatformVersion)
	}
	pairs := []output.Pair{
		{Key: "Computer", Value: s.Host.Hostname},
		{Key: "OS", Value: osName},
		{Key: "Kernel", Value: s.Host.KernelVersion},
		{Key: "Architecture", Value: s.Host.Arch},
	}
	if s.Host.Domain != "" {
		pairs = append(pairs, output.Pair{Key: "Domain", Value: s.Host.Domain})
	}
	pairs = append(pairs,
		output.Pair{Key: "Boot time", Value: s.Host.BootTime.Format("2006-01-02 15:04:05")},
		output.Pair{Key: "Uptime", Value: s.Host.Uptime.Round(time.Minute).String()},
		output.Pair{Key: "Memory", Value: fmt.Sprintf("%s used of %s (%.1f%%)",
			humanize.IBytes(s.Memory.Used), humanize.IBytes(s.Memory.Total), s.Memory.UsedPercent)},
		output.Pair{Key: "CPU", Value: fmt.Sprintf("%s, %d cores / %d threads, %.1f%% busy",
			s.CPU.Model, s.CPU.Cores, s.CPU.LogicalCores, s.CPU.UsagePercent)},
	)
	for _, d := range s.Disks {
		pairs = append(pairs, output.Pair{
			Key: "Disk " + d.Mountpoint,
			Value: fmt.Sprintf("%s free of %s (%.1f%% used, %s)",
				humanize.IBytes(d.Free), humanize.IBytes(d.Total), d.UsedPercent, d.Fstype),
		})
	}
	for _, sess := range s.Sessions {
		desc := sess.User
		if sess.Terminal != "" {
			desc += " on " + sess.Terminal
		}
		if sess.State != "" {
			desc += " (" + sess.State + ")"
		}
		if sess.LogonTime != "" {
			desc += " since " + sess.LogonTime
		}
		pairs = append(pairs, output.Pair{Key: "Session", Value: desc})
	}
	for _, w := range s.Warnings {
		pairs = append(pairs, output.Pair{Key: "Warning", Value: w})
	}
	return pairs
}
