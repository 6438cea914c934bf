package eventmodels

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tick struct {
	Time time.Time
	Ask  decimal.Decimal
	Bid  decimal.Decimal
}
