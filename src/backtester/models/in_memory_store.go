package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stepfx/backtester/src/eventmodels"
)

var (
	_ BaseStore  = (*InMemoryStore)(nil)
	_ OrderStore = (*InMemoryStore)(nil)
)

// InMemoryStore is the default ledger + order store for a single backtest
// run. Each run must get a fresh instance; no concurrent mutation is
// permitted mid-run.
type InMemoryStore struct {
	config *TradingEngineConfig

	orders     map[uuid.UUID]*eventmodels.Order
	orderQueue []uuid.UUID // creation order, for deterministic scans
}

func NewInMemoryStore(config *TradingEngineConfig) *InMemoryStore {
	if config == nil {
		config = NewTradingEngineConfig()
	}

	return &InMemoryStore{
		config: config,
		orders: make(map[uuid.UUID]*eventmodels.Order),
	}
}

func (s *InMemoryStore) GetInitialBalance() decimal.Decimal {
	return s.config.Balances.Initial
}

func (s *InMemoryStore) GetProcessingBalance() decimal.Decimal {
	return s.config.Balances.Processing
}

func (s *InMemoryStore) UpdateProcessingBalance(newBalance decimal.Decimal) {
	s.config.Balances.Processing = newBalance
}

func (s *InMemoryStore) GetRealBalance() decimal.Decimal {
	return s.config.Balances.Real
}

func (s *InMemoryStore) UpdateRealBalance(newBalance decimal.Decimal) {
	s.config.Balances.Real = newBalance
}

func (s *InMemoryStore) GetUnits() int64 {
	return s.config.Units
}

func (s *InMemoryStore) UpdateUnits(newUnits int64) {
	s.config.Units = newUnits
}

func (s *InMemoryStore) GetTrades() int {
	return s.config.Trades
}

func (s *InMemoryStore) UpdateTrades(newTrades int) {
	s.config.Trades = newTrades
}

func (s *InMemoryStore) GetLeverage() decimal.Decimal {
	return s.config.Leverage
}

func (s *InMemoryStore) GetSpread() decimal.Decimal {
	return s.config.Spread
}

func (s *InMemoryStore) GetUseSpread() bool {
	return s.config.UseSpread
}

func (s *InMemoryStore) CreateOrder(order *eventmodels.Order) error {
	s.orders[order.ID] = order
	s.orderQueue = append(s.orderQueue, order.ID)
	return nil
}

func (s *InMemoryStore) GetOrder(id uuid.UUID) (*eventmodels.Order, bool) {
	order, found := s.orders[id]
	return order, found
}

func (s *InMemoryStore) GetAllOrders() []*eventmodels.Order {
	all := make([]*eventmodels.Order, 0, len(s.orderQueue))
	for _, id := range s.orderQueue {
		all = append(all, s.orders[id])
	}
	return all
}

func (s *InMemoryStore) UpdateOrderStatus(id uuid.UUID, status eventmodels.OrderStatus) error {
	order, found := s.orders[id]
	if !found {
		return ErrOrderNotFound
	}

	order.Status = status
	return nil
}
