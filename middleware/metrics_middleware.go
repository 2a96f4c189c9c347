package middleware

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"codewhisperer/metrics"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/sirupsen/logrus"
)

// MetricsMiddleware collects HTTP request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// route template, so /questions/:id is one series
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		metrics.RequestInProgress.WithLabelValues(method, path).Inc()
		defer metrics.RequestInProgress.WithLabelValues(method, path).Dec()

		startTime := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestCounter.WithLabelValues(status, method, path).Inc()
		metrics.RequestDuration.WithLabelValues(status, method, path).Observe(time.Since(startTime).Seconds())
	}
}

// UpdateSystemMetrics refreshes process and host gauges every interval until ctx is done
func UpdateSystemMetrics(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		collectSystemMetrics(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func collectSystemMetrics(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	metrics.MemoryStats.WithLabelValues("alloc").Set(float64(memStats.Alloc))
	metrics.MemoryStats.WithLabelValues("sys").Set(float64(memStats.Sys))
	metrics.MemoryStats.WithLabelValues("heap_alloc").Set(float64(memStats.HeapAlloc))
	metrics.MemoryStats.WithLabelValues("heap_sys").Set(float64(memStats.HeapSys))
	metrics.MemoryStats.WithLabelValues("heap_idle").Set(float64(memStats.HeapIdle))
	metrics.MemoryStats.WithLabelValues("heap_inuse").Set(float64(memStats.HeapInuse))
	metrics.GoroutineCount.Set(float64(runtime.NumGoroutine()))

	if percents, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		for i, p := range percents {
			metrics.SystemCPUUsage.WithLabelValues(strconv.Itoa(i)).Set(p)
		}
	} else {
		logrus.WithError(err).Debug("Failed to read cpu usage")
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		metrics.SystemLoadAverage.WithLabelValues("1min").Set(avg.Load1)
		metrics.SystemLoadAverage.WithLabelValues("5min").Set(avg.Load5)
		metrics.SystemLoadAverage.WithLabelValues("15min").Set(avg.Load15)
	}

	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return
	}
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		metrics.SystemDiskUsage.WithLabelValues(p.Device, p.Mountpoint, "used").Set(float64(usage.Used))
		metrics.SystemDiskUsage.WithLabelValues(p.Device, p.Mountpoint, "free").Set(float64(usage.Free))
		metrics.SystemDiskUsage.WithLabelValues(p.Device, p.Mountpoint, "total").Set(float64(usage.Total))
	}
}
