package eventmodels

import "time"

// HistoricalData pairs a candle series with a tick series covering the same
// period. A nil entry marks a bucket the provider had no data for, so both
// slices stay indexable by elapsed-time offset.
type HistoricalData struct {
	Candles []*Candle
	Ticks   []*Tick
}

// StrategyInitConfig identifies one backtest data set.
type StrategyInitConfig struct {
	Symbol          string
	CandleTimeframe Timeframe
	TickTimeframe   Timeframe
	EndTime         time.Time
	Duration        time.Duration
}
