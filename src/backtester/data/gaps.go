package data

import (
	"fmt"
	"time"

	"github.com/stepfx/backtester/src/eventmodels"
)

// IrregularGapError reports a gap between two adjacent samples that is not a
// positive whole multiple of the series stride. Data integrity cannot be
// assumed past such a gap, so the whole backtest fails.
type IrregularGapError struct {
	Previous     time.Time
	Current      time.Time
	DeltaMinutes int64
}

func (e *IrregularGapError) Error() string {
	return fmt.Sprintf(
		"invalid difference in minutes between current (%s) and previous (%s) items: %d",
		e.Current.Format(eventmodels.CsvTimeFormat),
		e.Previous.Format(eventmodels.CsvTimeFormat),
		e.DeltaMinutes,
	)
}

// fillGaps converts a strictly ordered series with irregular holes into a
// fixed-stride series where every missing bucket is an explicit nil slot.
// The result is indexable by elapsed-time offset, which the synchronizer's
// index arithmetic depends on.
func fillGaps[T any](items []*T, strideMinutes int, timeOf func(*T) time.Time) ([]*T, error) {
	switch len(items) {
	case 0:
		return []*T{}, nil
	case 1:
		return []*T{items[0]}, nil
	}

	filled := make([]*T, 0, len(items))
	previousTime := timeOf(items[0])

	for i, item := range items {
		currentTime := timeOf(item)

		if i == 0 {
			filled = append(filled, item)
			previousTime = currentTime
			continue
		}

		deltaMinutes := int64(currentTime.Sub(previousTime) / time.Minute)

		switch {
		case deltaMinutes == int64(strideMinutes):
			filled = append(filled, item)
		case deltaMinutes > int64(strideMinutes) && deltaMinutes%int64(strideMinutes) == 0:
			for n := deltaMinutes/int64(strideMinutes) - 1; n > 0; n-- {
				filled = append(filled, nil)
			}
			filled = append(filled, item)
		default:
			return nil, &IrregularGapError{
				Previous:     previousTime,
				Current:      currentTime,
				DeltaMinutes: deltaMinutes,
			}
		}

		previousTime = currentTime
	}

	return filled, nil
}

// FillCandleGaps marks the missing timeframe buckets of a raw candle series.
func FillCandleGaps(candles []*eventmodels.Candle, timeframe eventmodels.Timeframe) ([]*eventmodels.Candle, error) {
	return fillGaps(candles, timeframe.Minutes(), func(c *eventmodels.Candle) time.Time {
		return c.Properties.Time
	})
}

// FillTickGaps marks the missing timeframe buckets of a raw tick series.
func FillTickGaps(ticks []*eventmodels.Tick, timeframe eventmodels.Timeframe) ([]*eventmodels.Tick, error) {
	return fillGaps(ticks, timeframe.Minutes(), func(t *eventmodels.Tick) time.Time {
		return t.Time
	})
}
