// Package metrics expõe métricas Prometheus do cofre e da API HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordCounter informa o tamanho das tabelas do cofre.
type RecordCounter interface {
	GetAssetCount() uint64
	GetPortfolioCount() uint64
	GetTransactionCount() uint64
}

type recordCollector struct {
	counter RecordCounter

	assets       *prometheus.Desc
	portfolios   *prometheus.Desc
	transactions *prometheus.Desc
}

func (c *recordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.assets
	ch <- c.portfolios
	ch <- c.transactions
}

func (c *recordCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.assets, prometheus.GaugeValue, float64(c.counter.GetAssetCount()))
	ch <- prometheus.MustNewConstMetric(c.portfolios, prometheus.GaugeValue, float64(c.counter.GetPortfolioCount()))
	ch <- prometheus.MustNewConstMetric(c.transactions, prometheus.GaugeValue, float64(c.counter.GetTransactionCount()))
}

// NewRecordCollector cria o coletor das contagens de registros.
func NewRecordCollector(counter RecordCounter) prometheus.Collector {
	return &recordCollector{
		counter: counter,
		assets: prometheus.NewDesc(
			"vaultrwa_assets",
			"Number of assets ever created",
			nil, nil,
		),
		portfolios: prometheus.NewDesc(
			"vaultrwa_portfolios",
			"Number of portfolios ever created",
			nil, nil,
		),
		transactions: prometheus.NewDesc(
			"vaultrwa_transactions",
			"Number of recorded transactions",
			nil, nil,
		),
	}
}

// HTTPMetrics conta e cronometra as requisições por rota.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics cria as métricas HTTP e as registra em reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultrwa_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultrwa_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware registra cada requisição usando o padrão de rota do chi, para
// que IDs distintos não gerem séries distintas.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// NewRegistry cria um registro com os coletores do processo, do runtime Go
// e das contagens do cofre.
func NewRegistry(counter RecordCounter) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		NewRecordCollector(counter),
	)
	return reg
}

// Handler serve o registro no formato de exposição do Prometheus.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
