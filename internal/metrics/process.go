package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

const megabyte = 1024 * 1024

// Snapshot - показатели процесса на момент вызова. CPU и RSS пустые, если ОС их не отдала.
type Snapshot struct {
	Uptime      string  `json:"uptime"`
	AllocMB     float64 `json:"alloc_mb"`
	HeapObjects uint64  `json:"heap_objects"`
	GCCycles    uint32  `json:"gc_cycles"`
	Goroutines  int     `json:"goroutines"`
	CPUPercent  float64 `json:"cpu_percent,omitempty"`
	RSSMB       float64 `json:"rss_mb,omitempty"`
}

// ProcessStats снимает показатели процесса генератора
type ProcessStats struct {
	StartTime time.Time

	procOnce sync.Once
	proc     *process.Process
	procErr  error
	procMu   sync.Mutex // CPUPercent хранит прошлый замер внутри process.Process
}

func NewProcessStats() *ProcessStats {
	return &ProcessStats{StartTime: time.Now()}
}

// self возвращает дескриптор текущего процесса; открывается один раз
func (ps *ProcessStats) self() (*process.Process, error) {
	ps.procOnce.Do(func() {
		ps.proc, ps.procErr = process.NewProcess(int32(os.Getpid()))
	})
	return ps.proc, ps.procErr
}

// GetUptime возвращает время работы в виде "1ч 2м 3с"
func (ps *ProcessStats) GetUptime() string {
	uptime := time.Since(ps.StartTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetMemoryUsage возвращает размер кучи Go в MB
func (ps *ProcessStats) GetMemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / megabyte
}

// GetCPUUsage возвращает загрузку CPU процессом; если недоступна - системную
func (ps *ProcessStats) GetCPUUsage() (float64, error) {
	proc, err := ps.self()
	if err == nil {
		ps.procMu.Lock()
		percent, err := proc.CPUPercent()
		ps.procMu.Unlock()
		if err == nil {
			return percent, nil
		}
	}

	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu.Percent: пустой ответ")
	}
	return percents[0], nil
}

// GetRSS возвращает резидентную память процесса в MB
func (ps *ProcessStats) GetRSS() (float64, error) {
	proc, err := ps.self()
	if err != nil {
		return 0, err
	}
	ps.procMu.Lock()
	info, err := proc.MemoryInfo()
	ps.procMu.Unlock()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / megabyte, nil
}

// Snapshot собирает все показатели для логов и /api/stats
func (ps *ProcessStats) Snapshot() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snap := Snapshot{
		Uptime:      ps.GetUptime(),
		AllocMB:     float64(m.Alloc) / megabyte,
		HeapObjects: m.HeapObjects,
		GCCycles:    m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
	if percent, err := ps.GetCPUUsage(); err == nil {
		snap.CPUPercent = percent
	}
	if rss, err := ps.GetRSS(); err == nil {
		snap.RSSMB = rss
	}
	return snap
}
