package eventmodels

import (
	"time"

	"github.com/shopspring/decimal"
)

// LOT converts a price delta to points: one point is the smallest
// meaningful price movement of a five-decimal forex quote.
const LOT = 100_000

// PriceDecimalPlaces is the precision of broker quotes.
const PriceDecimalPlaces = 5

// PriceToPoints expresses a price delta in points.
func PriceToPoints(price decimal.Decimal) float64 {
	points, _ := price.Mul(decimal.NewFromInt(LOT)).Float64()
	return points
}

type CandleType int

const (
	CandleTypeGreen   CandleType = 1
	CandleTypeRed     CandleType = -1
	CandleTypeNeutral CandleType = 0
)

func (t CandleType) String() string {
	switch t {
	case CandleTypeGreen:
		return "Green"
	case CandleTypeRed:
		return "Red"
	default:
		return "Neutral"
	}
}

// NewCandleType derives the candle color from its open and close prices.
func NewCandleType(open, close decimal.Decimal) CandleType {
	switch close.Cmp(open) {
	case 1:
		return CandleTypeGreen
	case -1:
		return CandleTypeRed
	default:
		return CandleTypeNeutral
	}
}

type CandleProperties struct {
	Time       time.Time
	Type       CandleType
	Size       float64 // high - low, in points
	Volatility float64 // trailing mean of sizes, in points
}

type CandleEdgePrices struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

type Candle struct {
	Properties CandleProperties
	EdgePrices CandleEdgePrices
}
