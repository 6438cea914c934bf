package strategies

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStrategyParams(t *testing.T) {
	params := &MapStrategyParams{
		Points: map[string]decimal.Decimal{
			"volume": decimal.RequireFromString("0.03"),
		},
		Ratios: map[string]decimal.Decimal{
			"takeProfitRatio": decimal.RequireFromString("2"),
		},
	}

	t.Run("returns a point param by name", func(t *testing.T) {
		value, err := params.PointParam("volume")

		require.NoError(t, err)
		assert.Equal(t, "0.03", value.String())
	})

	t.Run("scales a ratio param by volatility", func(t *testing.T) {
		// 2 x 150 points = 300 points = 0.003 in price terms
		value, err := params.RatioParam("takeProfitRatio", 150)

		require.NoError(t, err)
		assert.True(t, value.Equal(decimal.RequireFromString("0.003")), "got %s", value)
	})

	t.Run("fails on unknown names", func(t *testing.T) {
		_, err := params.PointParam("missing")
		assert.Error(t, err)

		_, err = params.RatioParam("missing", 100)
		assert.Error(t, err)
	})
}
