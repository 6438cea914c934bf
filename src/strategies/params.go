package strategies

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stepfx/backtester/src/eventmodels"
)

var lot = decimal.NewFromInt(eventmodels.LOT)

// MapStrategyParams backs the strategy parameter set with plain maps, which
// is how the CLI loads it from the run config. Point params are absolute
// price deltas in points; ratio params are multiplied by the current candle
// volatility before being converted to a price delta.
type MapStrategyParams struct {
	Points map[string]decimal.Decimal
	Ratios map[string]decimal.Decimal
}

func (p *MapStrategyParams) PointParam(name string) (decimal.Decimal, error) {
	value, found := p.Points[name]
	if !found {
		return decimal.Zero, fmt.Errorf("unknown point param: %s", name)
	}
	return value, nil
}

// RatioParam returns the price delta for a volatility-scaled param.
func (p *MapStrategyParams) RatioParam(name string, volatility float64) (decimal.Decimal, error) {
	ratio, found := p.Ratios[name]
	if !found {
		return decimal.Zero, fmt.Errorf("unknown ratio param: %s", name)
	}
	return ratio.Mul(decimal.NewFromFloat(volatility)).Div(lot), nil
}
