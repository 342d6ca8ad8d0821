package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций корзины и оформления заказа.
// Нулевой указатель допустим: все методы становятся no-op.
type CartMetrics struct {
	// Счётчики операций
	mutations     *prometheus.CounterVec
	loadFallbacks *prometheus.CounterVec
	persistFailed prometheus.Counter

	// Время записи в хранилище
	persistDuration prometheus.Histogram

	// Оформление заказа
	checkouts     *prometheus.CounterVec
	missingFields *prometheus.CounterVec

	// События во внешний рендерер
	eventsPublished prometheus.Counter
	eventsFailed    prometheus.Counter

	// Gauge для открытых сессий
	activeSessions prometheus.Gauge
}

// NewCartMetrics создаёт метрики в DefaultRegisterer.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в указанном реестре.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "furnicart_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"op"}),
		loadFallbacks: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "furnicart_cart_load_fallbacks_total",
			Help: "Total number of cart loads that fell back to an empty cart",
		}, []string{"reason"}),
		persistFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "furnicart_cart_persist_failed_total",
			Help: "Total number of failed cart record writes",
		}),
		persistDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "furnicart_cart_persist_duration_seconds",
			Help:    "Duration of cart record writes in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		checkouts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "furnicart_checkout_attempts_total",
			Help: "Total number of checkout submissions by outcome",
		}, []string{"outcome"}),
		missingFields: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "furnicart_checkout_missing_fields_total",
			Help: "Total number of failed checkout field validations by field",
		}, []string{"field"}),
		eventsPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "furnicart_cart_events_published_total",
			Help: "Total number of cart events published",
		}),
		eventsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "furnicart_cart_events_failed_total",
			Help: "Total number of cart events that failed to publish",
		}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "furnicart_active_sessions",
			Help: "Number of cart sessions held in memory",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMutation увеличивает счётчик мутаций корзины (add/remove/update/clear).
func (m *CartMetrics) RecordMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// RecordLoadFallback фиксирует загрузку, завершившуюся пустой корзиной.
func (m *CartMetrics) RecordLoadFallback(reason string) {
	if m == nil {
		return
	}
	m.loadFallbacks.WithLabelValues(reason).Inc()
}

// RecordPersist записывает длительность записи и неудачи.
func (m *CartMetrics) RecordPersist(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.persistDuration.Observe(duration.Seconds())
	if err != nil {
		m.persistFailed.Inc()
	}
}

// RecordCheckout фиксирует исход оформления: accepted, empty_cart, missing_fields.
func (m *CartMetrics) RecordCheckout(outcome string, missing []string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	for _, field := range missing {
		m.missingFields.WithLabelValues(field).Inc()
	}
}

// RecordEvent фиксирует публикацию события корзины.
func (m *CartMetrics) RecordEvent(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.eventsFailed.Inc()
		return
	}
	m.eventsPublished.Inc()
}

// RecordSessionOpened увеличивает количество активных сессий.
func (m *CartMetrics) RecordSessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// RecordSessionClosed уменьшает количество активных сессий.
func (m *CartMetrics) RecordSessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
