package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemCollector owns the system-level and Go runtime gauges
type systemCollector struct {
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec

	goGoroutines prometheus.Gauge
	goHeapAlloc  prometheus.Gauge
	goHeapSys    prometheus.Gauge
}

var (
	collector     *systemCollector
	collectorOnce sync.Once
)

func getCollector() *systemCollector {
	collectorOnce.Do(func() {
		collector = &systemCollector{
			systemCPUUsage: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "system_cpu_usage_percent",
					Help: "Current CPU usage percentage",
				},
				[]string{"core"},
			),
			systemMemoryUsage: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "system_memory_usage_bytes",
					Help: "Current memory usage in bytes",
				},
				[]string{"type"},
			),
			goGoroutines: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "app_goroutines",
					Help: "Number of goroutines that currently exist",
				},
			),
			goHeapAlloc: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "app_heap_alloc_bytes",
					Help: "Heap memory usage in bytes",
				},
			),
			goHeapSys: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "app_heap_sys_bytes",
					Help: "Heap memory reserved in bytes",
				},
			),
		}
	})
	return collector
}

// StartSystemMetricsCollection starts collecting system metrics on a ticker.
// Gated by ENABLE_SYSTEM_METRICS so local runs stay quiet.
func StartSystemMetricsCollection(interval time.Duration) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	sc := getCollector()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			sc.collectSystemMetrics()
			sc.collectGoRuntimeMetrics()
		}
	}()
}

// collectSystemMetrics collects system-level metrics
func (sc *systemCollector) collectSystemMetrics() {
	// CPU usage
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			sc.systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	// Memory usage
	if vmstat, err := mem.VirtualMemory(); err == nil {
		sc.systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		sc.systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		sc.systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
		sc.systemMemoryUsage.WithLabelValues("free").Set(float64(vmstat.Free))
	}
}

// collectGoRuntimeMetrics collects Go runtime metrics
func (sc *systemCollector) collectGoRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	sc.goGoroutines.Set(float64(runtime.NumGoroutine()))
	sc.goHeapAlloc.Set(float64(m.HeapAlloc))
	sc.goHeapSys.Set(float64(m.HeapSys))
}
