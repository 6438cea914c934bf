package eventmodels

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	t.Run("accepts the supported timeframes", func(t *testing.T) {
		cases := map[string]int{
			"1m":  1,
			"15m": 15,
			"30m": 30,
			"1h":  60,
		}

		for raw, minutes := range cases {
			timeframe, err := ParseTimeframe(raw)
			require.NoError(t, err)
			assert.Equal(t, minutes, timeframe.Minutes())
		}
	})

	t.Run("rejects unknown notation", func(t *testing.T) {
		for _, raw := range []string{"", "7m", "1d", "60"} {
			_, err := ParseTimeframe(raw)
			assert.Error(t, err, raw)
		}
	})
}

func TestNewCandleType(t *testing.T) {
	cases := []struct {
		name     string
		open     string
		close    string
		expected CandleType
	}{
		{"green when close is above open", "1.38124", "1.38200", CandleTypeGreen},
		{"red when close is below open", "1.38200", "1.38124", CandleTypeRed},
		{"neutral when close equals open", "1.38124", "1.38124", CandleTypeNeutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candleType := NewCandleType(
				decimal.RequireFromString(tc.open),
				decimal.RequireFromString(tc.close),
			)
			assert.Equal(t, tc.expected, candleType)
		})
	}
}

func TestPriceToPoints(t *testing.T) {
	assert.InDelta(t, 176.0, PriceToPoints(decimal.RequireFromString("0.00176")), 1e-9)
}

func TestCsvDTOAbsentSlots(t *testing.T) {
	t.Run("an absent candle serializes to an empty row and back", func(t *testing.T) {
		dto := NewCsvCandleDTO(nil)
		assert.Equal(t, &CsvCandleDTO{}, dto)

		candle, err := dto.ToModel()
		require.NoError(t, err)
		assert.Nil(t, candle)
	})

	t.Run("an absent tick serializes to an empty row and back", func(t *testing.T) {
		dto := NewCsvTickDTO(nil)
		assert.Equal(t, &CsvTickDTO{}, dto)

		tick, err := dto.ToModel()
		require.NoError(t, err)
		assert.Nil(t, tick)
	})

	t.Run("a malformed row fails deserialization", func(t *testing.T) {
		dto := &CsvCandleDTO{Time: "not-a-time"}

		_, err := dto.ToModel()
		assert.Error(t, err)
	})
}

func TestNewOrder(t *testing.T) {
	order := NewOrder(OrderTypeBuy, decimal.RequireFromString("0.03"), OrderPrices{
		Open: decimal.RequireFromString("1.38124"),
	})

	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, OrderTypeBuy, order.Type)
	assert.NotEmpty(t, order.ID)
}
