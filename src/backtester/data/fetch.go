package data

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/eventmodels"
)

// MarketDataAPI is the provider boundary. Both historical getters return
// gap-annotated series: nil entries mark buckets the provider had no data
// for.
type MarketDataAPI interface {
	GetHistoricalCandles(symbol string, timeframe eventmodels.Timeframe, endTime time.Time, duration time.Duration) ([]*eventmodels.Candle, error)
	GetHistoricalTicks(symbol string, timeframe eventmodels.Timeframe, endTime time.Time, duration time.Duration) ([]*eventmodels.Tick, error)
}

// HistoricalDataSerialization is the flat-file cache boundary.
// TryDeserialize returns (nil, nil) when no cached data exists.
type HistoricalDataSerialization interface {
	Serialize(data *eventmodels.HistoricalData, config eventmodels.StrategyInitConfig, directory string) error
	TryDeserialize(config eventmodels.StrategyInitConfig, directory string) (*eventmodels.HistoricalData, error)
}

// GetHistoricalData loads cached historical data if it exists; otherwise it
// requests the market data api, synchronizes the series and caches the
// result. The synchronizer is injected so callers can replace the edge
// policy in tests.
func GetHistoricalData(
	directory string,
	config eventmodels.StrategyInitConfig,
	api MarketDataAPI,
	serialization HistoricalDataSerialization,
	sync func(*eventmodels.HistoricalData) (*eventmodels.HistoricalData, error),
) (*eventmodels.HistoricalData, error) {
	cached, err := serialization.TryDeserialize(config, directory)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize historical data: %w", err)
	}

	if cached != nil {
		log.Infof("using cached historical data for %s", config.Symbol)
		return cached, nil
	}

	candles, err := api.GetHistoricalCandles(config.Symbol, config.CandleTimeframe, config.EndTime, config.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical candles: %w", err)
	}

	ticks, err := api.GetHistoricalTicks(config.Symbol, config.TickTimeframe, config.EndTime, config.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical ticks: %w", err)
	}

	historicalData, err := sync(&eventmodels.HistoricalData{Candles: candles, Ticks: ticks})
	if err != nil {
		return nil, fmt.Errorf("error on synchronizing ticks and candles: %w", err)
	}

	if err := serialization.Serialize(historicalData, config, directory); err != nil {
		return nil, fmt.Errorf("failed to serialize historical data: %w", err)
	}

	return historicalData, nil
}
