package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint represents the bankroll after a settled wager
type EquityPoint struct {
	Time     time.Time       `json:"time"`
	RaceID   string          `json:"race_id,omitempty"`
	Value    decimal.Decimal `json:"value"`
	Drawdown float64         `json:"drawdown"`
}

// EquityCurve represents the bankroll trajectory of a run, starting bankroll first
type EquityCurve []EquityPoint

// Values returns the bankroll trajectory
func (e EquityCurve) Values() []decimal.Decimal {
	out := make([]decimal.Decimal, len(e))
	for i, p := range e {
		out[i] = p.Value
	}
	return out
}

// GetReturns calculates per-step returns from the equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		if prev.IsZero() {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, e[i].Value.Sub(prev).Div(prev).InexactFloat64())
	}
	return returns
}

// MaxDrawdown returns the largest peak-to-trough decline as a percentage, to two places
func (e EquityCurve) MaxDrawdown() float64 {
	return MaxDrawdown(e.Values())
}

// MaxDrawdown scans a bankroll trajectory in order and returns the largest
// decline from a running peak, as a percentage rounded to two places
func MaxDrawdown(trajectory []decimal.Decimal) float64 {
	if len(trajectory) < 2 {
		return 0
	}
	maxDD := decimal.Zero
	peak := trajectory[0]
	for _, v := range trajectory {
		if v.GreaterThan(peak) {
			peak = v
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(v).Div(peak)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD.Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,race_id,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Time.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(point.RaceID)
		buf.WriteString(",")
		buf.WriteString(point.Value.StringFixed(2))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(point.Drawdown, 'f', 2, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
