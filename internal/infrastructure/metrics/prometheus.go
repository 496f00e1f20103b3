// Package metrics expone los contadores del libro de stock en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

const namespace = "stock_ledger"

var _ inventory.Observer = (*LedgerMetrics)(nil)

// LedgerMetrics registro propio (no el global) con las métricas del servicio.
// Seguro para uso concurrente.
type LedgerMetrics struct {
	registry *prometheus.Registry

	entriesTotal          *prometheus.CounterVec
	negativeBalancesTotal prometheus.Counter
	transferTransitions   *prometheus.CounterVec
	countDiscrepancies    prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
}

// New registra las métricas del libro y los collectors de runtime.
func New() *LedgerMetrics {
	m := &LedgerMetrics{registry: prometheus.NewRegistry()}

	m.entriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Movimientos registrados en el libro, por tipo y si fueron repetición idempotente.",
	}, []string{"kind", "replayed"})

	m.negativeBalancesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "negative_balances_total",
		Help:      "Saldos que quedaron negativos en modo permisivo.",
	})

	m.transferTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfer_transitions_total",
		Help:      "Transiciones de estado de transferencias.",
	}, []string{"status"})

	m.countDiscrepancies = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "count_discrepancies_total",
		Help:      "Ítems con diferencia ajustados al cerrar tomas de inventario.",
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Peticiones HTTP atendidas.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duración de las peticiones HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.registry.MustRegister(
		m.entriesTotal,
		m.negativeBalancesTotal,
		m.transferTransitions,
		m.countDiscrepancies,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *LedgerMetrics) EntryPosted(kind entity.MovementKind, replayed bool) {
	m.entriesTotal.WithLabelValues(string(kind), strconv.FormatBool(replayed)).Inc()
}

func (m *LedgerMetrics) NegativeBalance(entity.WarehouseBalance) {
	m.negativeBalancesTotal.Inc()
}

func (m *LedgerMetrics) TransferTransition(status entity.TransferStatus) {
	m.transferTransitions.WithLabelValues(string(status)).Inc()
}

func (m *LedgerMetrics) CountDiscrepancies(n int) {
	if n > 0 {
		m.countDiscrepancies.Add(float64(n))
	}
}

// ObserveRequest route es el patrón de la ruta, no la URL, para acotar la cardinalidad.
func (m *LedgerMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry para tests y para montar collectors adicionales.
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler endpoint /metrics.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
