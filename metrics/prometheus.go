package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "cfdsim"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (p promGauge) Set(v float64) {
	p.gauge.Set(v)
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	candles := newCounter("candles_generated_total", "Total number of live candles generated.")
	switches := newCounter("regime_switches_total", "Total number of sentiment regime switches.")
	opened := newCounter("positions_opened_total", "Total number of positions opened.")
	closed := newCounter("positions_closed_total", "Total number of positions closed.")
	rejected := newCounter("orders_rejected_total", "Total number of rejected open or close requests.")
	price := newGauge("price", "Close of the latest candle.")
	equity := newGauge("equity", "Account equity at the latest price.")
	balance := newGauge("balance", "Account balance.")

	registry.MustRegister(candles, switches, opened, closed, rejected, price, equity, balance)

	return &Prometheus{
		Metrics: &Metrics{
			CandlesGenerated: promCounter{candles},
			RegimeSwitches:   promCounter{switches},
			PositionsOpened:  promCounter{opened},
			PositionsClosed:  promCounter{closed},
			OrdersRejected:   promCounter{rejected},
			Price:            promGauge{price},
			Equity:           promGauge{equity},
			Balance:          promGauge{balance},
		},
		registry: registry,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
