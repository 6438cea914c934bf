package eventservices

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/backtester/data"
	"github.com/stepfx/backtester/src/eventmodels"
)

const (
	timeFormatForPath = "2006-01-02_15-04"

	candlesCsvFileName = "candles.csv"
	ticksCsvFileName   = "ticks.csv"
)

var _ data.HistoricalDataSerialization = (*CsvSerialization)(nil)

// CsvSerialization caches synchronized historical data as two flat CSV
// files under a directory whose name encodes the full data config, so a
// repeated run with the same config never refetches from the provider.
type CsvSerialization struct{}

func NewCsvSerialization() *CsvSerialization {
	return &CsvSerialization{}
}

func dataDirectoryName(config eventmodels.StrategyInitConfig) string {
	weeks := int(config.Duration.Hours()) / (24 * 7)

	return fmt.Sprintf(
		"%s_%s_%s_%s_%d_(%d_weeks)",
		config.Symbol,
		config.CandleTimeframe,
		config.TickTimeframe,
		config.EndTime.Format(timeFormatForPath),
		int(config.Duration.Minutes()),
		weeks,
	)
}

func historicalDataPaths(directory string, config eventmodels.StrategyInitConfig) (candlesPath, ticksPath string) {
	dataDir := filepath.Join(directory, dataDirectoryName(config))
	return filepath.Join(dataDir, candlesCsvFileName), filepath.Join(dataDir, ticksCsvFileName)
}

func (s *CsvSerialization) Serialize(data *eventmodels.HistoricalData, config eventmodels.StrategyInitConfig, directory string) error {
	candlesPath, ticksPath := historicalDataPaths(directory, config)

	if err := os.MkdirAll(filepath.Dir(candlesPath), 0755); err != nil {
		return fmt.Errorf("failed to create historical data directory: %w", err)
	}

	candleDTOs := make([]*eventmodels.CsvCandleDTO, 0, len(data.Candles))
	for _, candle := range data.Candles {
		candleDTOs = append(candleDTOs, eventmodels.NewCsvCandleDTO(candle))
	}

	if err := writeCsvFile(candlesPath, &candleDTOs); err != nil {
		return err
	}

	tickDTOs := make([]*eventmodels.CsvTickDTO, 0, len(data.Ticks))
	for _, tick := range data.Ticks {
		tickDTOs = append(tickDTOs, eventmodels.NewCsvTickDTO(tick))
	}

	if err := writeCsvFile(ticksPath, &tickDTOs); err != nil {
		return err
	}

	log.Infof("cached %d candles and %d ticks under %s", len(data.Candles), len(data.Ticks), filepath.Dir(candlesPath))

	return nil
}

func writeCsvFile(path string, dtos interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(dtos, file); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	return nil
}

// TryDeserialize loads cached historical data, or returns (nil, nil) when
// the cache files do not exist yet.
func (s *CsvSerialization) TryDeserialize(config eventmodels.StrategyInitConfig, directory string) (*eventmodels.HistoricalData, error) {
	candlesPath, ticksPath := historicalDataPaths(directory, config)

	if !fileExists(candlesPath) || !fileExists(ticksPath) {
		return nil, nil
	}

	var candleDTOs []*eventmodels.CsvCandleDTO
	if err := readCsvFile(candlesPath, &candleDTOs); err != nil {
		return nil, err
	}

	candles := make([]*eventmodels.Candle, 0, len(candleDTOs))
	for _, dto := range candleDTOs {
		candle, err := dto.ToModel()
		if err != nil {
			return nil, fmt.Errorf("invalid candle row in %s: %w", candlesPath, err)
		}
		candles = append(candles, candle)
	}

	var tickDTOs []*eventmodels.CsvTickDTO
	if err := readCsvFile(ticksPath, &tickDTOs); err != nil {
		return nil, err
	}

	ticks := make([]*eventmodels.Tick, 0, len(tickDTOs))
	for _, dto := range tickDTOs {
		tick, err := dto.ToModel()
		if err != nil {
			return nil, fmt.Errorf("invalid tick row in %s: %w", ticksPath, err)
		}
		ticks = append(ticks, tick)
	}

	return &eventmodels.HistoricalData{Candles: candles, Ticks: ticks}, nil
}

func readCsvFile(path string, dtos interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, dtos); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
