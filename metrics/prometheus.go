// Copyright (c) 2025 The EvolvableSlumber developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/log"
)

const namespace = "slumber_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics installs the prometheus backend as the active
// metrics service. Calling it more than once has no effect.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = newPrometheusMetrics()
		registerIOCollector()
	}
}

type prometheusMetrics struct {
	mu            sync.Mutex
	counters      map[string]CountMeter
	counterVecs   map[string]CountVecMeter
	gauges        map[string]GaugeMeter
	gaugeVecs     map[string]GaugeVecMeter
	histograms    map[string]HistogramMeter
	histogramVecs map[string]HistogramVecMeter
}

func newPrometheusMetrics() Metrics {
	return &prometheusMetrics{
		counters:      make(map[string]CountMeter),
		counterVecs:   make(map[string]CountVecMeter),
		gauges:        make(map[string]GaugeMeter),
		gaugeVecs:     make(map[string]GaugeVecMeter),
		histograms:    make(map[string]HistogramMeter),
		histogramVecs: make(map[string]HistogramVecMeter),
	}
}

// register adds the collector to the default registry, logging instead of
// failing on duplicate registration.
func register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		logger.Warn("unable to register metric", "err", err)
	}
}

func (p *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.counters[name]
	if !ok {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
		})
		register(c)
		meter = &promCountMeter{c}
		p.counters[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.counterVecs[name]
	if !ok {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
		}, labels)
		register(c)
		meter = &promCountVecMeter{c}
		p.counterVecs[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.gauges[name]
	if !ok {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
		})
		register(g)
		meter = &promGaugeMeter{g}
		p.gauges[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.gaugeVecs[name]
	if !ok {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
		}, labels)
		register(g)
		meter = &promGaugeVecMeter{g}
		p.gaugeVecs[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.histograms[name]
	if !ok {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		})
		register(h)
		meter = &promHistogramMeter{h}
		p.histograms[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	meter, ok := p.histogramVecs[name]
	if !ok {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		register(h)
		meter = &promHistogramVecMeter{h}
		p.histogramVecs[name] = meter
	}
	return meter
}

func (p *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func floatBuckets(buckets []int64) []float64 {
	var out []float64
	for _, b := range buckets {
		out = append(out, float64(b))
	}
	return out
}

type promCountMeter struct {
	counter prometheus.Counter
}

func (c *promCountMeter) Add(i int64) {
	c.counter.Add(float64(i))
}

type promCountVecMeter struct {
	counter *prometheus.CounterVec
}

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct {
	gauge prometheus.Gauge
}

func (g *promGaugeMeter) Add(i int64) {
	g.gauge.Add(float64(i))
}

func (g *promGaugeMeter) Set(i int64) {
	g.gauge.Set(float64(i))
}

type promGaugeVecMeter struct {
	gauge *prometheus.GaugeVec
}

func (g *promGaugeVecMeter) AddWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Add(float64(i))
}

func (g *promGaugeVecMeter) SetWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Set(float64(i))
}

type promHistogramMeter struct {
	histogram prometheus.Histogram
}

func (h *promHistogramMeter) Observe(i int64) {
	h.histogram.Observe(float64(i))
}

type promHistogramVecMeter struct {
	histogram *prometheus.HistogramVec
}

func (h *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
