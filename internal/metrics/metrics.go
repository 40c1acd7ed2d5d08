package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

var (
	// Registry 是服务专用的 Prometheus registry
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "status"},
	)

	// ScheduleRuns 按来源（sync / job）和结果（feasible / infeasible / partial）统计排班次数
	ScheduleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "schedule_runs_total", Help: "Genetic scheduling runs by source and outcome."},
		[]string{"source", "outcome"},
	)
	ScheduleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "schedule_run_duration_seconds", Help: "Genetic scheduling run duration in seconds.", Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}},
		[]string{"source"},
	)
	ScheduleGenerations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "schedule_generations_total", Help: "Generations evolved across all runs."},
	)
	ScheduleBestFitness = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "schedule_best_fitness", Help: "Fitness of the most recent feasible best schedule."},
	)
)

var regOnce sync.Once

// RegisterDefault 将所有 collector 注册到 Registry，可以重复调用
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ScheduleRuns)
		Registry.MustRegister(ScheduleDuration)
		Registry.MustRegister(ScheduleGenerations)
		Registry.MustRegister(ScheduleBestFitness)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

func ObserveRequest(method string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequests.WithLabelValues(method, code).Inc()
	HTTPDuration.WithLabelValues(method, code).Observe(duration.Seconds())
}

func ObserveSchedule(source string, result *domain.LeagueSchedule, duration time.Duration) {
	outcome := "infeasible"
	switch {
	case result.Partial:
		outcome = "partial"
	case result.Feasible:
		outcome = "feasible"
	}

	ScheduleRuns.WithLabelValues(source, outcome).Inc()
	ScheduleDuration.WithLabelValues(source).Observe(duration.Seconds())
	ScheduleGenerations.Add(float64(result.Generations))
	if result.Feasible {
		ScheduleBestFitness.Set(result.Fitness)
	}
}
