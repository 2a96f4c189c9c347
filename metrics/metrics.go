package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codewhisperer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "codewhisperer_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// RateLimiterRejections counts rejected requests due to rate limiting
	RateLimiterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_rate_limiter_rejections_total",
			Help: "Total number of requests rejected by rate limiter",
		},
		[]string{"ip"},
	)
	
	// DatabaseOperationDuration measures database operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codewhisperer_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// MemoryStats tracks memory usage stats
	MemoryStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "codewhisperer_memory_stats_bytes",
			Help: "Memory statistics in bytes",
		},
		[]string{"type"},
	)

	// GoroutineCount tracks the number of goroutines
	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codewhisperer_goroutine_count",
			Help: "Number of goroutines",
		},
	)

	// CacheHits counts the number of cache hits
    CacheHits = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "codewhisperer_cache_hits_total",
            Help: "Total number of cache hits",
        },
    )

    // CacheMisses counts the number of cache misses
    CacheMisses = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "codewhisperer_cache_misses_total", 
            Help: "Total number of cache misses",
        },
    )

    // SystemCPUUsage tracks CPU usage percentage
    SystemCPUUsage = promauto.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "codewhisperer_system_cpu_usage_percent",
            Help: "CPU usage percentage by core",
        },
        []string{"core"},
    )

    // SystemDiskUsage tracks disk usage
    SystemDiskUsage = promauto.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "codewhisperer_system_disk_usage_bytes",
            Help: "Disk usage statistics in bytes",
        },
        []string{"device", "mountpoint", "type"}, // type can be "used", "free", "total"
    )

    // SystemLoadAverage tracks system load averages
    SystemLoadAverage = promauto.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "codewhisperer_system_load_average",
            Help: "System load average",
        },
        []string{"period"}, // "1min", "5min", "15min"
    )

	// SubmissionsSaved counts stored submissions by outcome and slot action
	SubmissionsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_submissions_saved_total",
			Help: "Total number of saved submissions",
		},
		[]string{"outcome", "slot"}, // outcome: passed|failed, slot: create|overwrite
	)

	// LeaderboardRecomputations counts rank recomputations per question
	LeaderboardRecomputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codewhisperer_leaderboard_recomputations_total",
			Help: "Total number of leaderboard recomputations",
		},
	)

	// LeaderboardRecomputeDuration measures the rank recomputation inside the save transaction
	LeaderboardRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codewhisperer_leaderboard_recompute_duration_seconds",
			Help:    "Leaderboard recomputation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RelayNotifications counts pings sent to the live-update relay
	RelayNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_relay_notifications_total",
			Help: "Total number of relay notifications by result",
		},
		[]string{"result"},
	)

	// GraphExecutions counts worksheet evaluations by result
	GraphExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_graph_executions_total",
			Help: "Total number of worksheet evaluations",
		},
		[]string{"kind", "result"}, // kind: run|submit, result: passed|failed|halted
	)

	// OperationCalls counts function library calls
	OperationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_operation_calls_total",
			Help: "Total number of function operation calls",
		},
		[]string{"operation", "result"},
	)

	// RelayConnections tracks websocket clients connected to the relay
	RelayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codewhisperer_relay_connections",
			Help: "Number of websocket clients connected to the relay",
		},
	)

	// RelayBroadcasts counts leaderboard-update events emitted per room
	RelayBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codewhisperer_relay_broadcasts_total",
			Help: "Total number of leaderboard-update events emitted",
		},
		[]string{"room"},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration)
}
