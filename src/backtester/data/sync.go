package data

import (
	"fmt"
	"time"

	"github.com/stepfx/backtester/src/eventmodels"
)

var (
	// ErrEmptyInput means one of the series had nothing to synchronize.
	ErrEmptyInput = fmt.Errorf("empty collection of items for synchronization")
	// ErrInsufficientData means the overlap left no complete candle/tick range.
	ErrInsufficientData = fmt.Errorf("too little data for synchronization")

	errNoCandleAroundTick = fmt.Errorf("no candle around a first tick was found")
	errNoNextCandle       = fmt.Errorf("no next non-absent candle was found")
)

// view iterates a gap-filled series forwards or backwards without copying.
// Back-edge alignment runs the same search over the flipped series and maps
// the found index back via len-index-1.
type view[T any] struct {
	items    []*T
	reversed bool
}

func (v view[T]) len() int {
	return len(v.items)
}

func (v view[T]) at(i int) *T {
	if v.reversed {
		return v.items[len(v.items)-1-i]
	}
	return v.items[i]
}

type candleCursor struct {
	index int
	time  time.Time
}

type tickCandle struct {
	tickIndex   int
	candleIndex int
}

type intersection struct {
	front tickCandle
	back  tickCandle
}

func findTickWithTime(ticks view[eventmodels.Tick], t time.Time) (int, bool) {
	for i := 0; i < ticks.len(); i++ {
		tick := ticks.at(i)
		if tick != nil && tick.Time.Equal(t) {
			return i, true
		}
	}
	return 0, false
}

// findCandleAroundTick finds the first candle whose time is greater than or
// equal to the tick time.
func findCandleAroundTick(firstTickTime time.Time, candles view[eventmodels.Candle]) (candleCursor, bool) {
	for i := 0; i < candles.len(); i++ {
		candle := candles.at(i)
		if candle != nil && !candle.Properties.Time.Before(firstTickTime) {
			return candleCursor{index: i, time: candle.Properties.Time}, true
		}
	}
	return candleCursor{}, false
}

func findNextCandle(currentIndex int, candles view[eventmodels.Candle]) (candleCursor, error) {
	for i := currentIndex + 1; i < candles.len(); i++ {
		candle := candles.at(i)
		if candle != nil {
			return candleCursor{index: i, time: candle.Properties.Time}, nil
		}
	}
	return candleCursor{}, errNoNextCandle
}

// findTimeframeEqualTimes walks candles forward from the anchor until some
// tick carries exactly the candle's timestamp.
func findTimeframeEqualTimes(
	candles view[eventmodels.Candle],
	ticks view[eventmodels.Tick],
	candleAroundTick candleCursor,
) (tickCandle, error) {
	for {
		tickIndex, found := findTickWithTime(ticks, candleAroundTick.time)
		if found {
			return tickCandle{tickIndex: tickIndex, candleIndex: candleAroundTick.index}, nil
		}

		next, err := findNextCandle(candleAroundTick.index, candles)
		if err != nil {
			return tickCandle{}, err
		}
		candleAroundTick = next
	}
}

type edge int

const (
	edgeFront edge = iota
	edgeBack
)

func reverseIntersectionIndexes(ticksLen, candlesLen int, found tickCandle) tickCandle {
	return tickCandle{
		tickIndex:   ticksLen - found.tickIndex - 1,
		candleIndex: candlesLen - found.candleIndex - 1,
	}
}

func findEdgeIntersection(data *eventmodels.HistoricalData, e edge) (tickCandle, error) {
	firstCandleTime := data.Candles[0].Properties.Time
	firstTickTime := data.Ticks[0].Time

	candles := view[eventmodels.Candle]{items: data.Candles, reversed: e == edgeBack}
	ticks := view[eventmodels.Tick]{items: data.Ticks, reversed: e == edgeBack}

	mapBack := func(found tickCandle, err error) (tickCandle, error) {
		if err != nil {
			return tickCandle{}, err
		}
		if e == edgeBack {
			return reverseIntersectionIndexes(len(data.Ticks), len(data.Candles), found), nil
		}
		return found, nil
	}

	switch {
	case firstTickTime.After(firstCandleTime):
		candleAroundFirstTick, found := findCandleAroundTick(firstTickTime, candles)
		if !found {
			return tickCandle{}, errNoCandleAroundTick
		}

		if candleAroundFirstTick.time.Equal(firstTickTime) {
			return mapBack(tickCandle{tickIndex: 0, candleIndex: candleAroundFirstTick.index}, nil)
		}

		return mapBack(findTimeframeEqualTimes(candles, ticks, candleAroundFirstTick))

	case firstTickTime.Before(firstCandleTime):
		anchor := candleCursor{index: 0, time: firstCandleTime}
		return mapBack(findTimeframeEqualTimes(candles, ticks, anchor))

	default:
		return mapBack(tickCandle{tickIndex: 0, candleIndex: 0}, nil)
	}
}

func findTimeframeIntersection(data *eventmodels.HistoricalData) (intersection, error) {
	front, err := findEdgeIntersection(data, edgeFront)
	if err != nil {
		return intersection{}, err
	}

	back, err := findEdgeIntersection(data, edgeBack)
	if err != nil {
		return intersection{}, err
	}

	return intersection{front: front, back: back}, nil
}

func trimHistoricalData(data *eventmodels.HistoricalData) *eventmodels.HistoricalData {
	return &eventmodels.HistoricalData{
		Candles: trimAbsent(data.Candles, func(c *eventmodels.Candle) bool { return c == nil }),
		Ticks:   trimAbsent(data.Ticks, func(t *eventmodels.Tick) bool { return t == nil }),
	}
}

func trimAbsent[T any](items []*T, absent func(*T) bool) []*T {
	start := 0
	for start < len(items) && absent(items[start]) {
		start++
	}

	end := len(items)
	for end > start && absent(items[end-1]) {
		end--
	}

	return items[start:end]
}

// SyncCandlesAndTicks reduces the candle and tick series to a range where
// the first retained candle and some just-traded tick share a timestamp, so
// the replay loop can start with consistent event ordering. The crop is
// deliberately asymmetric: the tick at the front boundary coincides with the
// candle open and is excluded, and the partial trailing candle is dropped.
func SyncCandlesAndTicks(data *eventmodels.HistoricalData) (*eventmodels.HistoricalData, error) {
	if len(data.Candles) == 0 || len(data.Ticks) == 0 {
		return nil, ErrEmptyInput
	}

	trimmed := trimHistoricalData(data)
	if len(trimmed.Candles) == 0 || len(trimmed.Ticks) == 0 {
		return nil, ErrEmptyInput
	}

	inter, err := findTimeframeIntersection(trimmed)
	if err != nil {
		return nil, err
	}

	firstCandle := inter.front.candleIndex
	if inter.back.candleIndex <= 0 {
		return nil, ErrInsufficientData
	}
	lastCandle := inter.back.candleIndex - 1

	if inter.front.tickIndex >= len(trimmed.Ticks)-1 {
		return nil, ErrInsufficientData
	}
	firstTick := inter.front.tickIndex + 1
	lastTick := inter.back.tickIndex

	if lastCandle < firstCandle || lastTick < firstTick {
		return nil, ErrInsufficientData
	}

	return &eventmodels.HistoricalData{
		Candles: trimmed.Candles[firstCandle : lastCandle+1],
		Ticks:   trimmed.Ticks[firstTick : lastTick+1],
	}, nil
}
