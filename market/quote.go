package market

import "time"

// Quote is the executable price pair derived from the last close.
type Quote struct {
	Instrument string    `json:"instrument"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Mid        float64   `json:"mid"`
	Time       time.Time `json:"time"`
}

// NewQuote derives bid and ask from a last price and a fractional spread:
// ask = p*(1+spread), bid = p*(1-spread).
func NewQuote(instrument string, price, spread float64, tm time.Time) Quote {
	return Quote{
		Instrument: instrument,
		Bid:        price * (1 - spread),
		Ask:        price * (1 + spread),
		Mid:        price,
		Time:       tm,
	}
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}
