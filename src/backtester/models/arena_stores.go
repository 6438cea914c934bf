package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stepfx/backtester/src/eventmodels"
)

// The strategy-facing stores are arenas: every entity gets a dense integer
// index at creation and relationships are kept as index sets, which keeps
// the hot replay path free of string-keyed lookups.

type CandleStore struct {
	candles []*eventmodels.Candle
}

func NewCandleStore() *CandleStore {
	return &CandleStore{}
}

func (s *CandleStore) Add(candle *eventmodels.Candle) int {
	s.candles = append(s.candles, candle)
	return len(s.candles) - 1
}

func (s *CandleStore) Get(index int) (*eventmodels.Candle, bool) {
	if index < 0 || index >= len(s.candles) {
		return nil, false
	}
	return s.candles[index], true
}

func (s *CandleStore) Len() int {
	return len(s.candles)
}

type TickStore struct {
	ticks []*eventmodels.Tick
}

func NewTickStore() *TickStore {
	return &TickStore{}
}

func (s *TickStore) Add(tick *eventmodels.Tick) int {
	s.ticks = append(s.ticks, tick)
	return len(s.ticks) - 1
}

func (s *TickStore) Get(index int) (*eventmodels.Tick, bool) {
	if index < 0 || index >= len(s.ticks) {
		return nil, false
	}
	return s.ticks[index], true
}

func (s *TickStore) Len() int {
	return len(s.ticks)
}

// WorkingLevel is a price level the strategy considers significant. The core
// treats it as opaque state.
type WorkingLevel struct {
	Price decimal.Decimal
	Time  time.Time
}

// WorkingLevelStore relates working levels to the candle indexes forming
// their corridors.
type WorkingLevelStore struct {
	levels          []WorkingLevel
	corridorCandles [][]int
}

func NewWorkingLevelStore() *WorkingLevelStore {
	return &WorkingLevelStore{}
}

func (s *WorkingLevelStore) AddLevel(level WorkingLevel) int {
	s.levels = append(s.levels, level)
	s.corridorCandles = append(s.corridorCandles, nil)
	return len(s.levels) - 1
}

func (s *WorkingLevelStore) GetLevel(index int) (WorkingLevel, bool) {
	if index < 0 || index >= len(s.levels) {
		return WorkingLevel{}, false
	}
	return s.levels[index], true
}

func (s *WorkingLevelStore) AddCorridorCandle(levelIndex, candleIndex int) bool {
	if levelIndex < 0 || levelIndex >= len(s.levels) {
		return false
	}

	s.corridorCandles[levelIndex] = append(s.corridorCandles[levelIndex], candleIndex)
	return true
}

func (s *WorkingLevelStore) CorridorCandles(levelIndex int) []int {
	if levelIndex < 0 || levelIndex >= len(s.levels) {
		return nil
	}
	return s.corridorCandles[levelIndex]
}

func (s *WorkingLevelStore) Len() int {
	return len(s.levels)
}
