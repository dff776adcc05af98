package metrics

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
}

type Metrics struct {
	CandlesGenerated Counter
	RegimeSwitches   Counter
	PositionsOpened  Counter
	PositionsClosed  Counter
	OrdersRejected   Counter

	Price   Gauge
	Equity  Gauge
	Balance Gauge
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type noopGauge struct{}

func (noopGauge) Set(float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	g := noopGauge{}
	return &Metrics{
		CandlesGenerated: n,
		RegimeSwitches:   n,
		PositionsOpened:  n,
		PositionsClosed:  n,
		OrdersRejected:   n,
		Price:            g,
		Equity:           g,
		Balance:          g,
	}
}
