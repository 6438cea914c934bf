package strategies

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/backtester/engine"
	"github.com/stepfx/backtester/src/backtester/models"
	"github.com/stepfx/backtester/src/backtester/runner"
	"github.com/stepfx/backtester/src/eventmodels"
)

// Breakout is a deliberately small strategy used by the CLI: it tracks the
// high of each finished candle as the working level and buys when a later
// candle closes above it. Its purpose is to drive the whole replay pipeline,
// not to make money.
type Breakout struct {
	engine *engine.TradingEngine

	lastLevelIndex int // -1 until the first level is recorded
}

func NewBreakout(tradingEngine *engine.TradingEngine) *Breakout {
	return &Breakout{
		engine:         tradingEngine,
		lastLevelIndex: -1,
	}
}

// RunIteration satisfies runner.RunIterationFunc.
func (s *Breakout) RunIteration(
	tick *eventmodels.Tick,
	candle *eventmodels.Candle,
	signals runner.StrategySignals,
	stores *runner.Stores,
	params runner.StrategyParams,
) error {
	stores.Ticks.Add(tick)

	if signals.CancelAllOrders {
		if err := s.cancelAllOrders(tick, stores); err != nil {
			return err
		}
	}

	if err := s.manageOpenPositions(tick, stores); err != nil {
		return err
	}

	if candle == nil {
		return nil
	}

	candleIndex := stores.Candles.Add(candle)

	// entries are judged against the level as it stood before this candle;
	// only then may the candle replace it
	if !signals.NoTradingMode {
		if err := s.tryEnter(tick, candle, stores, params); err != nil {
			return err
		}
	}

	s.trackWorkingLevel(candle, candleIndex, stores)

	return nil
}

// trackWorkingLevel keeps the highest candle high seen so far as the active
// level and attaches candles that stay under it to the level's corridor.
func (s *Breakout) trackWorkingLevel(candle *eventmodels.Candle, candleIndex int, stores *runner.Stores) {
	high := candle.EdgePrices.High

	if s.lastLevelIndex >= 0 {
		level, _ := stores.WorkingLevels.GetLevel(s.lastLevelIndex)
		if high.LessThanOrEqual(level.Price) {
			stores.WorkingLevels.AddCorridorCandle(s.lastLevelIndex, candleIndex)
			return
		}
	}

	s.lastLevelIndex = stores.WorkingLevels.AddLevel(models.WorkingLevel{
		Price: high,
		Time:  candle.Properties.Time,
	})
}

func (s *Breakout) tryEnter(
	tick *eventmodels.Tick,
	candle *eventmodels.Candle,
	stores *runner.Stores,
	params runner.StrategyParams,
) error {
	if s.lastLevelIndex < 0 || candle.Properties.Type != eventmodels.CandleTypeGreen {
		return nil
	}
	if s.hasActiveOrder(stores) {
		return nil
	}

	level, _ := stores.WorkingLevels.GetLevel(s.lastLevelIndex)
	if candle.EdgePrices.Close.LessThanOrEqual(level.Price) {
		return nil
	}

	volume, err := params.PointParam("volume")
	if err != nil {
		return err
	}

	takeProfitDelta, err := params.RatioParam("takeProfitRatio", candle.Properties.Volatility)
	if err != nil {
		return err
	}

	stopLossDelta, err := params.RatioParam("stopLossRatio", candle.Properties.Volatility)
	if err != nil {
		return err
	}

	order := eventmodels.NewOrder(eventmodels.OrderTypeBuy, volume, eventmodels.OrderPrices{
		Open:       tick.Ask,
		TakeProfit: tick.Ask.Add(takeProfitDelta),
		StopLoss:   tick.Ask.Sub(stopLossDelta),
	})

	if err := stores.Orders.CreateOrder(order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	log.Debugf("breakout above %s, buying at %s", level.Price, tick.Ask)

	return s.engine.OpenPosition(order, engine.OpenByOpenPrice(), stores.Orders, stores.Config)
}

// manageOpenPositions settles opened orders whose take-profit or stop-loss
// the current tick has reached.
func (s *Breakout) manageOpenPositions(tick *eventmodels.Tick, stores *runner.Stores) error {
	for _, order := range stores.Orders.GetAllOrders() {
		if order.Status != eventmodels.OrderStatusOpened {
			continue
		}

		var by engine.ClosePositionBy
		switch {
		case tick.Bid.GreaterThanOrEqual(order.Prices.TakeProfit):
			by = engine.CloseByTakeProfit()
		case tick.Bid.LessThanOrEqual(order.Prices.StopLoss):
			by = engine.CloseByStopLoss()
		default:
			continue
		}

		if err := s.engine.ClosePosition(order, by, stores.Orders, stores.Config); err != nil {
			return err
		}
	}

	return nil
}

// cancelAllOrders flattens the book before the no-trading window: pending
// orders are discarded and opened ones settled at the current tick.
func (s *Breakout) cancelAllOrders(tick *eventmodels.Tick, stores *runner.Stores) error {
	for _, order := range stores.Orders.GetAllOrders() {
		switch order.Status {
		case eventmodels.OrderStatusPending:
			if err := stores.Orders.UpdateOrderStatus(order.ID, eventmodels.OrderStatusClosed); err != nil {
				return err
			}
		case eventmodels.OrderStatusOpened:
			if err := s.engine.ClosePosition(order, engine.CloseByCurrentTickPrice(tick.Bid), stores.Orders, stores.Config); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Breakout) hasActiveOrder(stores *runner.Stores) bool {
	for _, order := range stores.Orders.GetAllOrders() {
		if order.Status == eventmodels.OrderStatusPending || order.Status == eventmodels.OrderStatusOpened {
			return true
		}
	}
	return false
}

var _ runner.RunIterationFunc = (&Breakout{}).RunIteration
