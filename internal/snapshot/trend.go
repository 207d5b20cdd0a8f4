package snapshot

import (
	"math"

	"collectibles-vault/internal/models"
)

// TrendPoint is one day of a source's median series with its moving averages.
type TrendPoint struct {
	RefDate string   `json:"ref_date"`
	Median  float64  `json:"median"`
	MA7     *float64 `json:"ma7,omitempty"`
	MA30    *float64 `json:"ma30,omitempty"`
	EMA7    *float64 `json:"ema7,omitempty"`
}

// Trend summarises one source's history for an entry.
type Trend struct {
	Source     string       `json:"source"`
	Currency   string       `json:"currency"`
	Points     []TrendPoint `json:"points"`
	ChangePct  *float64     `json:"change_pct"`
	Volatility *float64     `json:"volatility"`
}

// Trends groups rows by source and derives moving averages over the daily
// medians. Rows without a median are skipped. Rows must be ordered by date.
func Trends(rows []models.PriceSnapshot) []Trend {
	var order []string
	bySource := map[string]*Trend{}
	for _, r := range rows {
		if r.Median == nil {
			continue
		}
		t, ok := bySource[r.Source]
		if !ok {
			t = &Trend{Source: r.Source}
			bySource[r.Source] = t
			order = append(order, r.Source)
		}
		t.Currency = r.Currency
		t.Points = append(t.Points, TrendPoint{RefDate: r.RefDate, Median: *r.Median})
	}

	out := make([]Trend, 0, len(order))
	for _, src := range order {
		t := bySource[src]
		series := make([]float64, len(t.Points))
		for i, p := range t.Points {
			series[i] = p.Median
		}
		ma7, ma30, ema7 := movingAverage(series, 7), movingAverage(series, 30), expAverage(series, 7)
		for i := range t.Points {
			t.Points[i].MA7 = ma7[i]
			t.Points[i].MA30 = ma30[i]
			t.Points[i].EMA7 = ema7[i]
		}
		t.ChangePct = changePct(series)
		t.Volatility = volatility(series)
		out = append(out, *t)
	}
	return out
}

// movingAverage is the simple moving average; positions before the first
// full window are nil.
func movingAverage(series []float64, period int) []*float64 {
	out := make([]*float64, len(series))
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out[i] = round4(sum / float64(period))
		}
	}
	return out
}

// expAverage seeds with the SMA of the first window.
func expAverage(series []float64, period int) []*float64 {
	out := make([]*float64, len(series))
	if len(series) < period {
		return out
	}
	k := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range series[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = round4(prev)
	for i := period; i < len(series); i++ {
		prev = series[i]*k + prev*(1-k)
		out[i] = round4(prev)
	}
	return out
}

func changePct(series []float64) *float64 {
	if len(series) < 2 || series[0] == 0 {
		return nil
	}
	return round4((series[len(series)-1] - series[0]) / series[0] * 100)
}

// volatility is the coefficient of variation of the series.
func volatility(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))
	if mean == 0 {
		return nil
	}
	variance := 0.0
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(series))
	return round4(math.Sqrt(variance) / mean)
}

func round4(v float64) *float64 {
	r := math.Round(v*10000) / 10000
	return &r
}
