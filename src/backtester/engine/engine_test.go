package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepfx/backtester/src/backtester/models"
	"github.com/stepfx/backtester/src/eventmodels"
)

func newTestOrder(orderType eventmodels.OrderType, volume string, status eventmodels.OrderStatus, prices eventmodels.OrderPrices) *eventmodels.Order {
	return &eventmodels.Order{
		ID:     uuid.New(),
		Type:   orderType,
		Volume: decimal.RequireFromString(volume),
		Status: status,
		Prices: prices,
	}
}

func storeWithOrders(config *models.TradingEngineConfig, orders ...*eventmodels.Order) *models.InMemoryStore {
	store := models.NewInMemoryStore(config)
	for _, order := range orders {
		if err := store.CreateOrder(order); err != nil {
			panic(err)
		}
	}
	return store
}

func openAndCloseAtSamePrice(t *testing.T, tradingEngine *TradingEngine, useSpread bool) *models.TradingEngineConfig {
	t.Helper()

	config := models.NewTradingEngineConfig()
	config.UseSpread = useSpread

	order := newTestOrder(eventmodels.OrderTypeBuy, "0.03", eventmodels.OrderStatusPending, eventmodels.OrderPrices{
		Open: decimal.RequireFromString("1.38124"),
	})
	store := storeWithOrders(config, order)

	require.NoError(t, tradingEngine.OpenPosition(order, OpenByOpenPrice(), store, config))
	require.NoError(t, tradingEngine.ClosePosition(
		order,
		CloseByCurrentTickPrice(decimal.RequireFromString("1.38124")),
		store,
		config,
	))

	return config
}

func TestOpenPosition(t *testing.T) {
	tradingEngine := NewTradingEngine()

	t.Run("returns error unless order is pending", func(t *testing.T) {
		config := models.NewTradingEngineConfig()

		for _, status := range []eventmodels.OrderStatus{eventmodels.OrderStatusOpened, eventmodels.OrderStatusClosed} {
			order := newTestOrder(eventmodels.OrderTypeBuy, "0.03", status, eventmodels.OrderPrices{})
			store := storeWithOrders(config, order)

			err := tradingEngine.OpenPosition(order, OpenByOpenPrice(), store, config)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "status is not pending")
		}
	})

	openCases := []struct {
		name               string
		orderType          eventmodels.OrderType
		openPrice          string
		by                 OpenPositionBy
		useSpread          bool
		expectedProcessing string
		expectedUnits      int64
	}{
		{
			name:               "buy by open price with spread",
			orderType:          eventmodels.OrderTypeBuy,
			openPrice:          "1.38124",
			by:                 OpenByOpenPrice(),
			useSpread:          true,
			expectedProcessing: "5856.13",
			expectedUnits:      3000,
		},
		{
			name:               "buy by current tick price with spread",
			orderType:          eventmodels.OrderTypeBuy,
			by:                 OpenByCurrentTickPrice(decimal.RequireFromString("1.20586")),
			useSpread:          true,
			expectedProcessing: "6382.27",
			expectedUnits:      3000,
		},
		{
			name:               "buy by current tick price without spread",
			orderType:          eventmodels.OrderTypeBuy,
			by:                 OpenByCurrentTickPrice(decimal.RequireFromString("1.20586")),
			useSpread:          false,
			expectedProcessing: "6382.42",
			expectedUnits:      3000,
		},
		{
			name:               "sell by open price with spread",
			orderType:          eventmodels.OrderTypeSell,
			openPrice:          "1.38124",
			by:                 OpenByOpenPrice(),
			useSpread:          true,
			expectedProcessing: "14143.57",
			expectedUnits:      -3000,
		},
		{
			name:               "sell by current tick price with spread",
			orderType:          eventmodels.OrderTypeSell,
			by:                 OpenByCurrentTickPrice(decimal.RequireFromString("1.20586")),
			useSpread:          true,
			expectedProcessing: "13617.43",
			expectedUnits:      -3000,
		},
	}

	t.Run("rounds midpoint trade values to even", func(t *testing.T) {
		config := models.NewTradingEngineConfig()
		config.UseSpread = false

		// 15 units at 1.015 give a trade value of 15.225, a midpoint at
		// two decimals: banker's rounding settles it at 15.22
		order := newTestOrder(eventmodels.OrderTypeBuy, "0.00015", eventmodels.OrderStatusPending, eventmodels.OrderPrices{})
		store := storeWithOrders(config, order)

		require.NoError(t, tradingEngine.OpenPosition(
			order,
			OpenByCurrentTickPrice(decimal.RequireFromString("1.015")),
			store,
			config,
		))

		assert.Equal(t, "9984.78", config.Balances.Processing.String())
		assert.Equal(t, int64(15), config.Units)
	})

	for _, tc := range openCases {
		t.Run(tc.name, func(t *testing.T) {
			config := models.NewTradingEngineConfig()
			config.UseSpread = tc.useSpread

			prices := eventmodels.OrderPrices{}
			if tc.openPrice != "" {
				prices.Open = decimal.RequireFromString(tc.openPrice)
			}

			order := newTestOrder(tc.orderType, "0.03", eventmodels.OrderStatusPending, prices)
			store := storeWithOrders(config, order)

			require.NoError(t, tradingEngine.OpenPosition(order, tc.by, store, config))

			assert.Equal(t, eventmodels.OrderStatusOpened, order.Status)
			assert.Equal(t, tc.expectedProcessing, config.Balances.Processing.String())
			assert.Equal(t, tc.expectedUnits, config.Units)
			assert.Equal(t, 1, config.Trades)
		})
	}
}

func TestClosePosition(t *testing.T) {
	tradingEngine := NewTradingEngine()

	t.Run("returns error unless order is opened", func(t *testing.T) {
		config := models.NewTradingEngineConfig()

		for _, status := range []eventmodels.OrderStatus{eventmodels.OrderStatusPending, eventmodels.OrderStatusClosed} {
			order := newTestOrder(eventmodels.OrderTypeBuy, "0.03", status, eventmodels.OrderPrices{})
			store := storeWithOrders(config, order)

			err := tradingEngine.ClosePosition(order, CloseByTakeProfit(), store, config)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "status is not opened")
		}
	})

	t.Run("errors when the last close realizes a zero balance", func(t *testing.T) {
		config := models.NewTradingEngineConfig()
		config.Balances = models.NewBalances(decimal.RequireFromString("4143.87"))

		order := newTestOrder(eventmodels.OrderTypeSell, "0.03", eventmodels.OrderStatusOpened, eventmodels.OrderPrices{
			StopLoss: decimal.RequireFromString("1.38124"),
		})
		store := storeWithOrders(config, order)

		err := tradingEngine.ClosePosition(order, CloseByStopLoss(), store, config)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "real balance is less than or equal to zero: 0")
	})

	closeCases := []struct {
		name               string
		orderType          eventmodels.OrderType
		prices             eventmodels.OrderPrices
		by                 ClosePositionBy
		useSpread          bool
		expectedProcessing string
		expectedUnits      int64
	}{
		{
			name:               "buy closed by take profit with spread",
			orderType:          eventmodels.OrderTypeBuy,
			prices:             eventmodels.OrderPrices{TakeProfit: decimal.RequireFromString("1.38124")},
			by:                 CloseByTakeProfit(),
			useSpread:          true,
			expectedProcessing: "14143.57",
			expectedUnits:      -3000,
		},
		{
			name:               "buy closed by stop loss with spread",
			orderType:          eventmodels.OrderTypeBuy,
			prices:             eventmodels.OrderPrices{StopLoss: decimal.RequireFromString("1.38124")},
			by:                 CloseByStopLoss(),
			useSpread:          true,
			expectedProcessing: "14143.57",
			expectedUnits:      -3000,
		},
		{
			name:               "buy closed by take profit without spread",
			orderType:          eventmodels.OrderTypeBuy,
			prices:             eventmodels.OrderPrices{TakeProfit: decimal.RequireFromString("1.38124")},
			by:                 CloseByTakeProfit(),
			useSpread:          false,
			expectedProcessing: "14143.72",
			expectedUnits:      -3000,
		},
		{
			name:               "buy closed by current tick price with spread",
			orderType:          eventmodels.OrderTypeBuy,
			by:                 CloseByCurrentTickPrice(decimal.RequireFromString("1.38124")),
			useSpread:          true,
			expectedProcessing: "14143.57",
			expectedUnits:      -3000,
		},
		{
			name:               "sell closed by take profit with spread",
			orderType:          eventmodels.OrderTypeSell,
			prices:             eventmodels.OrderPrices{TakeProfit: decimal.RequireFromString("1.38124")},
			by:                 CloseByTakeProfit(),
			useSpread:          true,
			expectedProcessing: "5856.13",
			expectedUnits:      3000,
		},
		{
			name:               "sell closed by stop loss with spread",
			orderType:          eventmodels.OrderTypeSell,
			prices:             eventmodels.OrderPrices{StopLoss: decimal.RequireFromString("1.38124")},
			by:                 CloseByStopLoss(),
			useSpread:          true,
			expectedProcessing: "5856.13",
			expectedUnits:      3000,
		},
		{
			name:               "sell closed by current tick price with spread",
			orderType:          eventmodels.OrderTypeSell,
			by:                 CloseByCurrentTickPrice(decimal.RequireFromString("1.38124")),
			useSpread:          true,
			expectedProcessing: "5856.13",
			expectedUnits:      3000,
		},
	}

	for _, tc := range closeCases {
		t.Run(tc.name, func(t *testing.T) {
			config := models.NewTradingEngineConfig()
			config.UseSpread = tc.useSpread

			order := newTestOrder(tc.orderType, "0.03", eventmodels.OrderStatusOpened, tc.prices)
			store := storeWithOrders(config, order)

			require.NoError(t, tradingEngine.ClosePosition(order, tc.by, store, config))

			assert.Equal(t, eventmodels.OrderStatusClosed, order.Status)
			assert.Equal(t, tc.expectedProcessing, config.Balances.Processing.String())
			assert.Equal(t, tc.expectedProcessing, config.Balances.Real.String())
			assert.Equal(t, tc.expectedUnits, config.Units)
			assert.Equal(t, 1, config.Trades)
		})
	}

	t.Run("a same-price round trip without spread conserves the balance", func(t *testing.T) {
		config := openAndCloseAtSamePrice(t, tradingEngine, false)

		assert.Equal(t, "10000", config.Balances.Processing.String())
		assert.Equal(t, "10000", config.Balances.Real.String())
		assert.Equal(t, int64(0), config.Units)
		assert.Equal(t, 2, config.Trades)
	})

	t.Run("with spread a round trip costs exactly volume x spread x lot", func(t *testing.T) {
		config := openAndCloseAtSamePrice(t, tradingEngine, true)

		// 0.03 x 0.0001 x 100000
		assert.Equal(t, "9999.7", config.Balances.Processing.String())
		assert.Equal(t, "0.3", config.Balances.Initial.Sub(config.Balances.Processing).String())
		assert.Equal(t, int64(0), config.Units)
	})

	t.Run("keeps real balance while other orders remain open", func(t *testing.T) {
		config := models.NewTradingEngineConfig()

		closing := newTestOrder(eventmodels.OrderTypeSell, "0.03", eventmodels.OrderStatusOpened, eventmodels.OrderPrices{})
		stillOpen := newTestOrder(eventmodels.OrderTypeBuy, "0.03", eventmodels.OrderStatusOpened, eventmodels.OrderPrices{})
		store := storeWithOrders(config, closing, stillOpen)

		require.NoError(t, tradingEngine.ClosePosition(
			closing,
			CloseByCurrentTickPrice(decimal.RequireFromString("1.38124")),
			store,
			config,
		))

		assert.Equal(t, eventmodels.OrderStatusClosed, closing.Status)
		assert.Equal(t, "5856.13", config.Balances.Processing.String())
		assert.Equal(t, "10000", config.Balances.Real.String())
		assert.Equal(t, int64(3000), config.Units)
		assert.Equal(t, 1, config.Trades)
	})
}
