package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stepfx/backtester/src/backtester/data"
	"github.com/stepfx/backtester/src/backtester/engine"
	"github.com/stepfx/backtester/src/backtester/models"
	"github.com/stepfx/backtester/src/backtester/runner"
	"github.com/stepfx/backtester/src/eventmodels"
	"github.com/stepfx/backtester/src/eventservices"
	"github.com/stepfx/backtester/src/strategies"
	"github.com/stepfx/backtester/src/utils"
)

type RunConfigYAML struct {
	Symbol          string `yaml:"symbol"`
	CandleTimeframe string `yaml:"candle_timeframe"`
	TickTimeframe   string `yaml:"tick_timeframe"`
	EndTime         string `yaml:"end_time"`
	DurationWeeks   int    `yaml:"duration_weeks"`
	DataDir         string `yaml:"data_dir"`

	InitialBalance string `yaml:"initial_balance"`
	Leverage       string `yaml:"leverage"`
	Spread         string `yaml:"spread"`
	UseSpread      *bool  `yaml:"use_spread"`

	Params struct {
		Points map[string]string `yaml:"points"`
		Ratios map[string]string `yaml:"ratios"`
	} `yaml:"params"`
}

type RunArgs struct {
	ConfigPath string
}

var runCmd = &cobra.Command{
	Use:   "backtester --config run-config.yaml",
	Short: "Replay historical candles and ticks through a strategy",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		if err := Run(RunArgs{ConfigPath: configPath}); err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Info("Done")
	},
}

func loadRunConfig(path string) (*RunConfigYAML, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config: %v", err)
	}

	var config RunConfigYAML
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run config: %v", err)
	}

	return &config, nil
}

func (c *RunConfigYAML) toStrategyInitConfig() (eventmodels.StrategyInitConfig, error) {
	candleTimeframe, err := eventmodels.ParseTimeframe(c.CandleTimeframe)
	if err != nil {
		return eventmodels.StrategyInitConfig{}, err
	}

	tickTimeframe, err := eventmodels.ParseTimeframe(c.TickTimeframe)
	if err != nil {
		return eventmodels.StrategyInitConfig{}, err
	}

	endTime, err := utils.ParseTimestamp(c.EndTime)
	if err != nil {
		return eventmodels.StrategyInitConfig{}, err
	}

	if c.DurationWeeks <= 0 {
		return eventmodels.StrategyInitConfig{}, fmt.Errorf("duration_weeks must be positive, got %d", c.DurationWeeks)
	}

	return eventmodels.StrategyInitConfig{
		Symbol:          c.Symbol,
		CandleTimeframe: candleTimeframe,
		TickTimeframe:   tickTimeframe,
		EndTime:         endTime,
		Duration:        time.Duration(c.DurationWeeks) * 7 * 24 * time.Hour,
	}, nil
}

func (c *RunConfigYAML) toTradingEngineConfig() (*models.TradingEngineConfig, error) {
	engineConfig := models.NewTradingEngineConfig()

	overrides := []struct {
		raw    string
		target *decimal.Decimal
		name   string
	}{
		{c.InitialBalance, &engineConfig.Balances.Initial, "initial_balance"},
		{c.Leverage, &engineConfig.Leverage, "leverage"},
		{c.Spread, &engineConfig.Spread, "spread"},
	}

	for _, override := range overrides {
		if override.raw == "" {
			continue
		}
		value, err := decimal.NewFromString(override.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", override.name, err)
		}
		*override.target = value
	}

	engineConfig.Balances = models.NewBalances(engineConfig.Balances.Initial)

	if c.UseSpread != nil {
		engineConfig.UseSpread = *c.UseSpread
	}

	return engineConfig, nil
}

func (c *RunConfigYAML) toStrategyParams() (*strategies.MapStrategyParams, error) {
	params := &strategies.MapStrategyParams{
		Points: make(map[string]decimal.Decimal, len(c.Params.Points)),
		Ratios: make(map[string]decimal.Decimal, len(c.Params.Ratios)),
	}

	for name, raw := range c.Params.Points {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse point param %s: %v", name, err)
		}
		params.Points[name] = value
	}

	for name, raw := range c.Params.Ratios {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ratio param %s: %v", name, err)
		}
		params.Ratios[name] = value
	}

	return params, nil
}

func Run(args RunArgs) error {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to init environment variables: %w", err)
	}

	runConfig, err := loadRunConfig(args.ConfigPath)
	if err != nil {
		return err
	}

	initConfig, err := runConfig.toStrategyInitConfig()
	if err != nil {
		return err
	}

	engineConfig, err := runConfig.toTradingEngineConfig()
	if err != nil {
		return err
	}

	params, err := runConfig.toStrategyParams()
	if err != nil {
		return err
	}

	api, err := eventservices.NewMetaApiClientFromEnv()
	if err != nil {
		return err
	}

	dataDir := runConfig.DataDir
	if dataDir == "" {
		dataDir = "historical-data"
	}

	historicalData, err := data.GetHistoricalData(
		dataDir,
		initConfig,
		api,
		eventservices.NewCsvSerialization(),
		data.SyncCandlesAndTicks,
	)
	if err != nil {
		return err
	}

	ledger := models.NewInMemoryStore(engineConfig)
	stores := runner.NewStores(engineConfig, ledger)
	strategy := strategies.NewBreakout(engine.NewTradingEngine())

	performance, err := runner.LoopThroughHistoricalData(
		historicalData,
		runner.RunConfig{
			CandleTimeframe: initConfig.CandleTimeframe,
			TickTimeframe:   initConfig.TickTimeframe,
			Stores:          stores,
			Params:          params,
		},
		runner.NewBacktestingTradingLimiter(),
		strategy.RunIteration,
	)
	if err != nil {
		return err
	}

	printReport(os.Stdout, initConfig, ledger, performance)

	return nil
}

func printReport(out io.Writer, initConfig eventmodels.StrategyInitConfig, ledger models.BaseStore, performance decimal.Decimal) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Symbol", "Candle TF", "Tick TF", "Trades", "Real Balance", "Performance"})
	table.Append([]string{
		initConfig.Symbol,
		string(initConfig.CandleTimeframe),
		string(initConfig.TickTimeframe),
		fmt.Sprintf("%d", ledger.GetTrades()),
		ledger.GetRealBalance().StringFixed(models.BalanceDecimalPlaces),
		performance.String() + "%",
	})
	table.Render()
}

func main() {
	runCmd.PersistentFlags().String("config", "run-config.yaml", "Path to the yaml run config.")

	if err := runCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
