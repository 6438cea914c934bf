package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stepfx/backtester/src/eventmodels"
)

// BaseStore exposes the ledger of a backtest run to the trading engine and
// the replay loop. All accessors are infallible on a valid store: reads
// before any write return the configured defaults.
type BaseStore interface {
	GetInitialBalance() decimal.Decimal

	GetProcessingBalance() decimal.Decimal
	UpdateProcessingBalance(newBalance decimal.Decimal)

	GetRealBalance() decimal.Decimal
	UpdateRealBalance(newBalance decimal.Decimal)

	GetUnits() int64
	UpdateUnits(newUnits int64)

	GetTrades() int
	UpdateTrades(newTrades int)

	GetLeverage() decimal.Decimal
	GetSpread() decimal.Decimal
	GetUseSpread() bool
}

// OrderStore owns the orders of one backtest run. The trading engine only
// reads orders and flips statuses through it.
type OrderStore interface {
	CreateOrder(order *eventmodels.Order) error
	GetOrder(id uuid.UUID) (*eventmodels.Order, bool)
	GetAllOrders() []*eventmodels.Order
	UpdateOrderStatus(id uuid.UUID, status eventmodels.OrderStatus) error
}
