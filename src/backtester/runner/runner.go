package runner

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/backtester/models"
	"github.com/stepfx/backtester/src/eventmodels"
)

var hundred = decimal.NewFromInt(100)

// StrategySignals are per-iteration flags the replay loop raises for the
// strategy callback. CancelAllOrders is set for exactly one iteration when
// the trading-hours limiter forbids trading.
type StrategySignals struct {
	NoTradingMode   bool
	CancelAllOrders bool
}

// StrategyParams is the opaque parameter set of a strategy. Ratio params
// scale with the current candle volatility.
type StrategyParams interface {
	PointParam(name string) (decimal.Decimal, error)
	RatioParam(name string, volatility float64) (decimal.Decimal, error)
}

// Stores is the capability set handed to the strategy callback by
// reference. The replay loop owns it exclusively for the duration of one
// run.
type Stores struct {
	Config        *models.TradingEngineConfig
	Orders        models.OrderStore
	Candles       *models.CandleStore
	Ticks         *models.TickStore
	WorkingLevels *models.WorkingLevelStore
}

func NewStores(config *models.TradingEngineConfig, orders models.OrderStore) *Stores {
	return &Stores{
		Config:        config,
		Orders:        orders,
		Candles:       models.NewCandleStore(),
		Ticks:         models.NewTickStore(),
		WorkingLevels: models.NewWorkingLevelStore(),
	}
}

// RunIterationFunc is the strategy boundary: candle is non-nil only on the
// iteration right after a candle boundary was crossed.
type RunIterationFunc func(
	tick *eventmodels.Tick,
	candle *eventmodels.Candle,
	signals StrategySignals,
	stores *Stores,
	params StrategyParams,
) error

// RunConfig wires one backtest run.
type RunConfig struct {
	CandleTimeframe eventmodels.Timeframe
	TickTimeframe   eventmodels.Timeframe
	Stores          *Stores
	Params          StrategyParams
}

func (c RunConfig) iterationsBetweenCandles() (int, error) {
	candleMinutes := c.CandleTimeframe.Minutes()
	tickMinutes := c.TickTimeframe.Minutes()

	if candleMinutes <= 0 || tickMinutes <= 0 {
		return 0, fmt.Errorf("invalid timeframes: candle %s, tick %s", c.CandleTimeframe, c.TickTimeframe)
	}

	if candleMinutes%tickMinutes != 0 {
		return 0, fmt.Errorf(
			"candle timeframe (%s) is not a whole multiple of tick timeframe (%s)",
			c.CandleTimeframe, c.TickTimeframe,
		)
	}

	return candleMinutes / tickMinutes, nil
}

func updateIterationsToNextCandle(iterationsToNextCandle *int, iterationsBetweenCandles int) {
	if *iterationsToNextCandle == 0 {
		*iterationsToNextCandle = iterationsBetweenCandles - 1
	} else {
		*iterationsToNextCandle--
	}
}

func strategyPerformance(balances models.Balances) decimal.Decimal {
	return balances.Real.Sub(balances.Initial).Div(balances.Initial).Mul(hundred)
}

// LoopThroughHistoricalData replays the synchronized series tick by tick.
// One coarse candle covers exactly R fine ticks, and a new candle is
// surfaced to the callback only after its boundary tick has been processed,
// so the strategy never sees a close ahead of the tick stream. The final
// performance is the realized gain in percent of the initial balance.
func LoopThroughHistoricalData(
	historicalData *eventmodels.HistoricalData,
	config RunConfig,
	limiter TradingLimiter,
	runIteration RunIterationFunc,
) (decimal.Decimal, error) {
	iterationsBetweenCandles, err := config.iterationsBetweenCandles()
	if err != nil {
		return decimal.Zero, err
	}

	if len(historicalData.Ticks) == 0 {
		return decimal.Zero, fmt.Errorf("no first tick")
	}
	if len(historicalData.Candles) == 0 {
		return decimal.Zero, fmt.Errorf("no first candle")
	}

	currentTickIndex := 0
	currentCandleIndex := 0

	firstCandle := true
	newCandleAppeared := false

	noTradingMode := false
	cancelAllOrders := false

	iterationsToNextCandle := iterationsBetweenCandles - 1

	for {
		if currentTick := historicalData.Ticks[currentTickIndex]; currentTick != nil {
			if noTradingMode {
				if limiter.AllowTrading(currentTick) {
					noTradingMode = false
				}
			} else if limiter.ForbidTrading(currentTick) {
				noTradingMode = true
				cancelAllOrders = true
			}

			var candleForIteration *eventmodels.Candle
			if newCandleAppeared {
				candleForIteration = historicalData.Candles[currentCandleIndex]
			}

			if err := runIteration(
				currentTick,
				candleForIteration,
				StrategySignals{NoTradingMode: noTradingMode, CancelAllOrders: cancelAllOrders},
				config.Stores,
				config.Params,
			); err != nil {
				return decimal.Zero, err
			}

			cancelAllOrders = false
		}

		newCandleAppeared = false

		updateIterationsToNextCandle(&iterationsToNextCandle, iterationsBetweenCandles)

		// the moment to update the current candle
		if iterationsToNextCandle == 0 {
			if !firstCandle {
				if currentCandleIndex+1 >= len(historicalData.Candles) {
					break
				}
				currentCandleIndex++
			} else {
				firstCandle = false
			}

			newCandleAppeared = true
		}

		// the moment to update the current tick
		if currentTickIndex+1 >= len(historicalData.Ticks) {
			break
		}
		currentTickIndex++
	}

	performance := strategyPerformance(config.Stores.Config.Balances)

	log.WithFields(log.Fields{
		"trades":      config.Stores.Config.Trades,
		"realBalance": config.Stores.Config.Balances.Real,
	}).Infof("backtest finished with performance %s%%", performance)

	return performance, nil
}
