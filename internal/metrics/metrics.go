package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения метки outcome
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
)

// Значения метки result для downstream-вызовов
const (
	DownstreamOK    = "ok"
	DownstreamError = "error"
)

// RelayMetrics хранит Prometheus-коллекторы релея.
// Все методы записи безопасны для nil-получателя.
type RelayMetrics struct {
	mu sync.Mutex

	requestsTotal      *prometheus.CounterVec
	downstreamTotal    *prometheus.CounterVec
	downstreamDuration prometheus.Histogram

	registerer prometheus.Registerer
	registered bool
}

func newCounterVec(subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewRelayMetrics создаёт коллекторы. Если registerer равен nil, используется prometheus.DefaultRegisterer.
func NewRelayMetrics(registerer prometheus.Registerer) *RelayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &RelayMetrics{
		registerer:      registerer,
		requestsTotal:   newCounterVec("", "requests_total", "Total number of inbound relay requests by outcome", []string{"outcome"}),
		downstreamTotal: newCounterVec("downstream", "requests_total", "Total number of outbound calls by result", []string{"result"}),
		downstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relay",
			Subsystem: "downstream",
			Name:      "duration_seconds",
			Help:      "Latency of outbound calls to the downstream endpoint",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register регистрирует коллекторы. Повторный вызов безопасен.
// Если коллектор с тем же описанием уже зарегистрирован, используется существующий.
func (m *RelayMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	requestsTotal, err := registerCollector(m.registerer, m.requestsTotal)
	if err != nil {
		return err
	}
	downstreamTotal, err := registerCollector(m.registerer, m.downstreamTotal)
	if err != nil {
		return err
	}
	downstreamDuration, err := registerCollector(m.registerer, m.downstreamDuration)
	if err != nil {
		return err
	}

	m.requestsTotal = requestsTotal
	m.downstreamTotal = downstreamTotal
	m.downstreamDuration = downstreamDuration
	m.registered = true
	return nil
}

func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, c T) (T, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("collector already registered with a different type: %T", are.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// ObserveRequest учитывает входящий запрос с указанным исходом.
func (m *RelayMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDownstream учитывает исходящий вызов и его длительность.
func (m *RelayMetrics) ObserveDownstream(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := DownstreamOK
	if err != nil {
		result = DownstreamError
	}
	m.downstreamTotal.WithLabelValues(result).Inc()
	m.downstreamDuration.Observe(elapsed.Seconds())
}
