package runner

import "github.com/stepfx/backtester/src/eventmodels"

// TradingLimiter gates the replay loop by trading hours.
type TradingLimiter interface {
	ForbidTrading(currentTick *eventmodels.Tick) bool
	AllowTrading(currentTick *eventmodels.Tick) bool
}

const hourToForbidTrading = 23

// Low-liquidity hours around the broker's day rollover.
var hoursToForbidTrading = [3]int{23, 0, 1}

// BacktestingTradingLimiter forbids trading at the day-rollover hour and
// allows it again at any hour outside the rollover window. Backtesting has
// no live spread to check, so the hour alone decides.
type BacktestingTradingLimiter struct{}

func NewBacktestingTradingLimiter() *BacktestingTradingLimiter {
	return &BacktestingTradingLimiter{}
}

func (l *BacktestingTradingLimiter) ForbidTrading(currentTick *eventmodels.Tick) bool {
	return currentTick.Time.Hour() == hourToForbidTrading
}

func (l *BacktestingTradingLimiter) AllowTrading(currentTick *eventmodels.Tick) bool {
	for _, hour := range hoursToForbidTrading {
		if currentTick.Time.Hour() == hour {
			return false
		}
	}
	return true
}
