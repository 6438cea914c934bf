package models

import "github.com/shopspring/decimal"

var (
	DefaultInitialBalance = decimal.NewFromInt(10_000)
	DefaultLeverage       = decimal.RequireFromString("0.01")
	DefaultSpread         = decimal.RequireFromString("0.00010")
)

// BalanceDecimalPlaces is the precision balances are kept at.
const BalanceDecimalPlaces = 2

type Balances struct {
	Initial    decimal.Decimal
	Processing decimal.Decimal
	Real       decimal.Decimal
}

func NewBalances(initial decimal.Decimal) Balances {
	return Balances{
		Initial:    initial,
		Processing: initial,
		Real:       initial,
	}
}

// TradingEngineConfig is the ledger of one backtest run. It is mutated only
// by the trading engine and read by the replay loop.
type TradingEngineConfig struct {
	Balances  Balances
	Units     int64
	Trades    int
	Leverage  decimal.Decimal
	Spread    decimal.Decimal
	UseSpread bool
}

func NewTradingEngineConfig() *TradingEngineConfig {
	return &TradingEngineConfig{
		Balances:  NewBalances(DefaultInitialBalance),
		Leverage:  DefaultLeverage,
		Spread:    DefaultSpread,
		UseSpread: true,
	}
}
