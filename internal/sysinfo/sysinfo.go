package sysinfo

import (
	"fmt"
	"log"
	"mwu-go/internal/constants"
	"mwu-go/internal/utils"
	"os"
	"runtime"
)

type Level string

const (
	LevelInfo Level = "INFO"
	LevelWarn Level = "WARN"
)

// Finding 启动检查的一条结果
type Finding struct {
	Level   Level
	Message string
}

// DiskUsage 某个挂载点的容量
type DiskUsage struct {
	Path  string
	Total uint64
	Free  uint64
}

// Report 启动时的主机概况
type Report struct {
	Arch        string
	OS          string
	CPUs        int
	CPUName     string
	GoVersion   string
	HeapAlloc   uint64
	HeapSys     uint64
	TotalSys    uint64
	Disk        *DiskUsage
	DiskErr     error
	LowDiskWarn bool
}

// Collect 采集 CPU、内存和 path 所在磁盘的信息
func Collect(path string) Report {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r := Report{
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
		CPUs:      runtime.NumCPU(),
		CPUName:   os.Getenv("PROCESSOR_IDENTIFIER"),
		GoVersion: runtime.Version(),
		HeapAlloc: ms.HeapAlloc,
		HeapSys:   ms.HeapSys,
		TotalSys:  ms.Sys,
	}

	disk, err := diskUsage(path)
	if err != nil {
		r.DiskErr = err
	} else {
		r.Disk = disk
		r.LowDiskWarn = disk.Free <= constants.LowDiskThreshold
	}
	return r
}

// Findings 把报告转换为按顺序输出的日志条目
func (r Report) Findings() []Finding {
	findings := []Finding{
		{LevelInfo, fmt.Sprintf("CPU architecture: %s/%s", r.OS, r.Arch)},
		{LevelInfo, fmt.Sprintf("CPU cores: %d", r.CPUs)},
	}
	if r.CPUName != "" {
		findings = append(findings, Finding{LevelInfo, "CPU name: " + r.CPUName})
	}

	findings = append(findings,
		Finding{LevelInfo, fmt.Sprintf("Go runtime: %s", r.GoVersion)},
		Finding{LevelInfo, fmt.Sprintf("Memory in use: %s (heap reserved %s, total from OS %s)",
			utils.FormatBytes(int64(r.HeapAlloc)), utils.FormatBytes(int64(r.HeapSys)), utils.FormatBytes(int64(r.TotalSys)))},
	)

	switch {
	case r.DiskErr != nil:
		findings = append(findings, Finding{LevelWarn, fmt.Sprintf("Could not check disk space: %v", r.DiskErr)})
	case r.Disk == nil:
	case r.LowDiskWarn:
		findings = append(findings, Finding{LevelWarn, fmt.Sprintf("The server is low on space! (%d GB free on %s)",
			r.Disk.Free/constants.GB, r.Disk.Path)})
	default:
		findings = append(findings, Finding{LevelInfo, fmt.Sprintf("The server has enough space (%d GB free of %d GB on %s, %.1f%% free)",
			r.Disk.Free/constants.GB, r.Disk.Total/constants.GB, r.Disk.Path, utils.Percent(r.Disk.Free, r.Disk.Total))})
	}
	return findings
}

// LogReport 采集并输出启动报告
func LogReport(path string) Report {
	r := Collect(path)
	for _, f := range r.Findings() {
		log.Printf("[SysInfo] %s: %s", f.Level, f.Message)
	}
	return r
}
