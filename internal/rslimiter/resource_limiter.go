package rslimiter

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"webnotifier/internal/config"
)

// ResourceLimiter watches process and system memory usage and triggers a
// graceful shutdown callback when the daemon grows past its limits.
type ResourceLimiter struct {
	cfg              config.LimiterConfig
	logger           zerolog.Logger
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	isRunning        bool
	mu               sync.RWMutex
	shutdownCallback func()
}

// NewResourceLimiter creates a new resource limiter.
func NewResourceLimiter(cfg config.LimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.CheckIntervalSeconds <= 0 {
		cfg.CheckIntervalSeconds = 30
	}
	if cfg.MaxMemoryMB <= 0 {
		cfg.MaxMemoryMB = 512
	}
	if cfg.SystemMemThreshold <= 0 || cfg.SystemMemThreshold > 1 {
		cfg.SystemMemThreshold = 0.9
	}

	return &ResourceLimiter{
		cfg:    cfg,
		logger: logger.With().Str("component", "ResourceLimiter").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetShutdownCallback sets the callback invoked when limits are exceeded.
func (rl *ResourceLimiter) SetShutdownCallback(callback func()) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.shutdownCallback = callback
}

// Start begins monitoring resource usage.
func (rl *ResourceLimiter) Start() {
	rl.mu.Lock()
	if rl.isRunning {
		rl.mu.Unlock()
		return
	}
	rl.isRunning = true
	rl.mu.Unlock()

	rl.wg.Add(1)
	go rl.monitorResources()

	rl.logger.Info().
		Int64("max_memory_mb", rl.cfg.MaxMemoryMB).
		Float64("system_mem_threshold", rl.cfg.SystemMemThreshold).
		Int("check_interval_seconds", rl.cfg.CheckIntervalSeconds).
		Msg("Resource limiter started")
}

// Stop stops the resource monitor.
func (rl *ResourceLimiter) Stop() {
	rl.mu.Lock()
	if !rl.isRunning {
		rl.mu.Unlock()
		return
	}
	rl.isRunning = false
	rl.mu.Unlock()

	rl.cancel()
	rl.wg.Wait()
	rl.logger.Info().Msg("Resource limiter stopped")
}

// CheckMemoryLimit checks if current process memory usage exceeds the limit.
func (rl *ResourceLimiter) CheckMemoryLimit() error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	currentMB := int64(m.Alloc / 1024 / 1024)
	if currentMB > rl.cfg.MaxMemoryMB {
		return fmt.Errorf("memory limit exceeded: current %dMB > limit %dMB", currentMB, rl.cfg.MaxMemoryMB)
	}
	return nil
}

// CheckSystemMemoryLimit checks if system memory usage exceeds the threshold.
func (rl *ResourceLimiter) CheckSystemMemoryLimit() (bool, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Errorf("failed to get system memory stats: %w", err)
	}

	usedFraction := vmStat.UsedPercent / 100.0
	if usedFraction > rl.cfg.SystemMemThreshold {
		rl.logger.Warn().
			Float64("used_percent", vmStat.UsedPercent).
			Float64("threshold_percent", rl.cfg.SystemMemThreshold*100).
			Uint64("used_mb", vmStat.Used/1024/1024).
			Uint64("total_mb", vmStat.Total/1024/1024).
			Msg("System memory usage exceeded threshold")
		return true, nil
	}
	return false, nil
}

func (rl *ResourceLimiter) monitorResources() {
	defer rl.wg.Done()

	ticker := time.NewTicker(time.Duration(rl.cfg.CheckIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-ticker.C:
			rl.checkAndAct()
		}
	}
}

func (rl *ResourceLimiter) checkAndAct() {
	usage := GetResourceUsage()
	rl.logger.Debug().
		Int64("alloc_mb", usage.AllocMB).
		Int("goroutines", usage.Goroutines).
		Float64("system_mem_used_percent", usage.SystemMemUsedPercent).
		Msg("Resource usage sampled")

	if err := rl.CheckMemoryLimit(); err != nil {
		rl.logger.Warn().Err(err).Msg("Process memory over limit, forcing GC")
		runtime.GC()
		if err := rl.CheckMemoryLimit(); err != nil {
			rl.triggerShutdown(err.Error())
			return
		}
	}

	exceeded, err := rl.CheckSystemMemoryLimit()
	if err != nil {
		rl.logger.Debug().Err(err).Msg("Could not sample system memory")
		return
	}
	if exceeded {
		rl.triggerShutdown("system memory threshold exceeded")
	}
}

func (rl *ResourceLimiter) triggerShutdown(reason string) {
	rl.mu.RLock()
	callback := rl.shutdownCallback
	rl.mu.RUnlock()

	if callback == nil {
		rl.logger.Error().Str("reason", reason).Msg("Resource limit exceeded but no shutdown callback is set")
		return
	}
	rl.logger.Error().Str("reason", reason).Msg("Resource limit exceeded, triggering graceful shutdown")
	callback()
}
