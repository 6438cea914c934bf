package runner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stepfx/backtester/src/eventmodels"
)

func tickAtHour(hour int) *eventmodels.Tick {
	return &eventmodels.Tick{
		Time: time.Date(2022, time.May, 17, hour, 30, 0, 0, time.UTC),
	}
}

func TestBacktestingTradingLimiter(t *testing.T) {
	limiter := NewBacktestingTradingLimiter()

	t.Run("forbids trading only at the rollover hour", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			t.Run(fmt.Sprintf("hour %d", hour), func(t *testing.T) {
				assert.Equal(t, hour == 23, limiter.ForbidTrading(tickAtHour(hour)))
			})
		}
	})

	t.Run("allows trading outside the whole rollover window", func(t *testing.T) {
		forbidden := map[int]bool{23: true, 0: true, 1: true}

		for hour := 0; hour < 24; hour++ {
			t.Run(fmt.Sprintf("hour %d", hour), func(t *testing.T) {
				assert.Equal(t, !forbidden[hour], limiter.AllowTrading(tickAtHour(hour)))
			})
		}
	})
}
