package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade-backend/internal/realtime"
	"trade-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type StatsHandler struct {
	db  *pgxpool.Pool
	hub *realtime.Hub
}

type systemStats struct {
	DatabaseStatus   string  `json:"database_status"`
	ResponseTime     int64   `json:"response_time_ms"`
	ConnectedClients int     `json:"connected_clients"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	MemoryUsed       string  `json:"memory_used"`
	MemoryTotal      string  `json:"memory_total"`
	DiskPercent      float64 `json:"disk_percent"`
	DiskUsed         string  `json:"disk_used"`
	DiskTotal        string  `json:"disk_total"`
}

func NewStatsHandler(db *pgxpool.Pool, hub *realtime.Hub) *StatsHandler {
	return &StatsHandler{db: db, hub: hub}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	dbStatus := "healthy"
	if err != nil {
		dbStatus = "unhealthy"
	}

	cpuPercents, _ := cpu.Percent(0, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	stats := systemStats{
		DatabaseStatus:   dbStatus,
		ResponseTime:     responseTime,
		ConnectedClients: h.hub.ClientCount(),
		CPUPercent:       cpuPercent,
	}

	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsed = formatBytes(memStats.Used)
		stats.MemoryTotal = formatBytes(memStats.Total)
	}

	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
		stats.DiskUsed = formatBytes(diskStats.Used)
		stats.DiskTotal = formatBytes(diskStats.Total)
	}

	utils.JSON(w, http.StatusOK, stats)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
