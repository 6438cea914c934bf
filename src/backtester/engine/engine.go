package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/backtester/models"
	"github.com/stepfx/backtester/src/eventmodels"
)

var (
	lot = decimal.NewFromInt(eventmodels.LOT)
	two = decimal.NewFromInt(2)
)

// OpenPositionBy selects the fill price of OpenPosition: the order's pre-set
// open price, or the current tick price.
type OpenPositionBy struct {
	currentTickPrice *decimal.Decimal
}

func OpenByOpenPrice() OpenPositionBy {
	return OpenPositionBy{}
}

func OpenByCurrentTickPrice(price decimal.Decimal) OpenPositionBy {
	return OpenPositionBy{currentTickPrice: &price}
}

type closePriceKind int

const (
	closeByTakeProfit closePriceKind = iota
	closeByStopLoss
	closeByCurrentTickPrice
)

// ClosePositionBy selects the settlement price of ClosePosition.
type ClosePositionBy struct {
	kind             closePriceKind
	currentTickPrice decimal.Decimal
}

func CloseByTakeProfit() ClosePositionBy {
	return ClosePositionBy{kind: closeByTakeProfit}
}

func CloseByStopLoss() ClosePositionBy {
	return ClosePositionBy{kind: closeByStopLoss}
}

func CloseByCurrentTickPrice(price decimal.Decimal) ClosePositionBy {
	return ClosePositionBy{kind: closeByCurrentTickPrice, currentTickPrice: price}
}

// TradingEngine simulates the order lifecycle against the run's ledger.
type TradingEngine struct{}

func NewTradingEngine() *TradingEngine {
	return &TradingEngine{}
}

// buyInstrument executes a buy market order. With spread enabled the fill
// happens at the ask price, half a spread above the quote. Rounding is
// banker's (half to even) at every step, so midpoint trade values settle
// the same way regardless of sign.
func buyInstrument(price, volume decimal.Decimal, config *models.TradingEngineConfig) {
	if config.UseSpread {
		price = price.Add(config.Spread.Div(two)).RoundBank(eventmodels.PriceDecimalPlaces)
	}

	units := volume.Mul(lot).Truncate(0).IntPart()
	tradeValue := decimal.NewFromInt(units).Mul(price).RoundBank(models.BalanceDecimalPlaces)

	config.Balances.Processing = config.Balances.Processing.Sub(tradeValue).RoundBank(models.BalanceDecimalPlaces)
	config.Units += units
	config.Trades++
}

// sellInstrument executes a sell market order at the bid price.
func sellInstrument(price, volume decimal.Decimal, config *models.TradingEngineConfig) {
	if config.UseSpread {
		price = price.Sub(config.Spread.Div(two)).RoundBank(eventmodels.PriceDecimalPlaces)
	}

	units := volume.Mul(lot).Truncate(0).IntPart()
	tradeValue := decimal.NewFromInt(units).Mul(price).RoundBank(models.BalanceDecimalPlaces)

	config.Balances.Processing = config.Balances.Processing.Add(tradeValue).RoundBank(models.BalanceDecimalPlaces)
	config.Units -= units
	config.Trades++
}

// OpenPosition fills a pending order and moves it to the opened status.
func (e *TradingEngine) OpenPosition(
	order *eventmodels.Order,
	by OpenPositionBy,
	orderStore models.OrderStore,
	config *models.TradingEngineConfig,
) error {
	if order.Status != eventmodels.OrderStatusPending {
		return &models.InvalidOrderStateError{
			OrderID: order.ID,
			Status:  order.Status,
			Want:    eventmodels.OrderStatusPending,
		}
	}

	price := order.Prices.Open
	if by.currentTickPrice != nil {
		price = *by.currentTickPrice
	}

	switch order.Type {
	case eventmodels.OrderTypeBuy:
		buyInstrument(price, order.Volume, config)
	case eventmodels.OrderTypeSell:
		sellInstrument(price, order.Volume, config)
	default:
		return fmt.Errorf("unknown order type: %d", order.Type)
	}

	log.Debugf("opened %s position %s at %s", order.Type, order.ID, price)

	return orderStore.UpdateOrderStatus(order.ID, eventmodels.OrderStatusOpened)
}

// ClosePosition settles an opened order with the inverse market operation.
// The realized balance is committed only once no opened orders remain, so a
// partial close of a multi-order chain does not realize P/L early.
func (e *TradingEngine) ClosePosition(
	order *eventmodels.Order,
	by ClosePositionBy,
	orderStore models.OrderStore,
	config *models.TradingEngineConfig,
) error {
	if order.Status != eventmodels.OrderStatusOpened {
		return &models.InvalidOrderStateError{
			OrderID: order.ID,
			Status:  order.Status,
			Want:    eventmodels.OrderStatusOpened,
		}
	}

	var price decimal.Decimal
	switch by.kind {
	case closeByTakeProfit:
		price = order.Prices.TakeProfit
	case closeByStopLoss:
		price = order.Prices.StopLoss
	case closeByCurrentTickPrice:
		price = by.currentTickPrice
	}

	switch order.Type {
	case eventmodels.OrderTypeBuy:
		sellInstrument(price, order.Volume, config)
	case eventmodels.OrderTypeSell:
		buyInstrument(price, order.Volume, config)
	default:
		return fmt.Errorf("unknown order type: %d", order.Type)
	}

	if err := orderStore.UpdateOrderStatus(order.ID, eventmodels.OrderStatusClosed); err != nil {
		return err
	}

	log.Debugf("closed %s position %s at %s", order.Type, order.ID, price)

	if noOpenedOrders(orderStore.GetAllOrders()) {
		config.Balances.Real = config.Balances.Processing
		if config.Balances.Real.LessThanOrEqual(decimal.Zero) {
			return &models.NonPositiveBalanceError{RealBalance: config.Balances.Real}
		}
	}

	return nil
}

func noOpenedOrders(orders []*eventmodels.Order) bool {
	for _, order := range orders {
		if order.Status == eventmodels.OrderStatusOpened {
			return false
		}
	}
	return true
}
