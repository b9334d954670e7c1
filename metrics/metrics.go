package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "breadit"

// Metrics 汇总投票、缓存同步、读路径以及 HTTP 请求的指标
type Metrics struct {
	Votes        *prometheus.CounterVec
	CacheSync    *prometheus.CounterVec
	ReadPath     *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New 创建并注册所有指标；reg 为 nil 时使用独立的 registry（测试用）
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote ledger mutations partitioned by action.",
		}, []string{"action"}),
		CacheSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sync_total",
			Help:      "Post snapshot synchronization outcomes.",
		}, []string{"outcome"}),
		ReadPath: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_reads_total",
			Help:      "Post detail reads partitioned by the source that served the primary fields.",
		}, []string{"source"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests partitioned by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{m.Votes, m.CacheSync, m.ReadPath, m.HTTPRequests, m.HTTPDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Nop 返回注册在一次性 registry 上的指标，便于在测试和工具里省略判空
func Nop() *Metrics {
	m, _ := New(prometheus.NewRegistry())
	return m
}
