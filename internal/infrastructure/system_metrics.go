package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a snapshot of process resource usage
type SystemStats struct {
	GoRoutines    int64
	HeapAlloc     uint64
	Sys           uint64
	NumGC         uint32
	UptimeSeconds float64
}

// CollectSystemStats reads the current runtime statistics
func CollectSystemStats(startTime time.Time) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     memStats.HeapAlloc,
		Sys:           memStats.Sys,
		NumGC:         memStats.NumGC,
		UptimeSeconds: time.Since(startTime).Seconds(),
	}
}

// RegisterSystemMetrics exposes goroutine, heap and uptime gauges on meter.
// Values are read on each collection.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) error {
	goroutines, err := meter.Int64ObservableGauge(
		"consolidator_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	heap, err := meter.Int64ObservableGauge(
		"consolidator_heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"consolidator_uptime",
		metric.WithDescription("Seconds since the batch started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectSystemStats(startTime)
		o.ObserveInt64(goroutines, stats.GoRoutines)
		o.ObserveInt64(heap, int64(stats.HeapAlloc))
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		return nil
	}, goroutines, heap, uptime)
	return err
}
