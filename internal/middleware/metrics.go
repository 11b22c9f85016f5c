package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// RedisCommandDuration observes Redis round trips by command name.
	RedisCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collegeconnect_redis_command_duration_seconds",
		Help:    "Latency of Redis commands",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})

	// CacheHits and CacheMisses count cache-aside lookups by key family.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_cache_hits_total",
		Help: "Cache-aside lookups served from Redis",
	}, []string{"family"})
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_cache_misses_total",
		Help: "Cache-aside lookups that fell through to the database",
	}, []string{"family"})

	// ActiveWebSockets is the number of open notification streams.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collegeconnect_active_websockets",
		Help: "Number of open WebSocket notification streams",
	})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics middleware. It registers
// collectors on the default registry, so repeated calls share one instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records HTTP metrics for every route except the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	handler := p.Middleware
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return handler(c)
	}
}
