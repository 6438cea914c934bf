package eventmodels

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType int

const (
	OrderTypeBuy  OrderType = 1
	OrderTypeSell OrderType = -1
)

func (t OrderType) String() string {
	if t == OrderTypeBuy {
		return "Buy"
	}
	return "Sell"
}

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusOpened  OrderStatus = "opened"
	OrderStatusClosed  OrderStatus = "closed"
)

type OrderPrices struct {
	Open       decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

type Order struct {
	ID     uuid.UUID
	Type   OrderType
	Volume decimal.Decimal
	Status OrderStatus
	Prices OrderPrices
}

func NewOrder(orderType OrderType, volume decimal.Decimal, prices OrderPrices) *Order {
	return &Order{
		ID:     uuid.New(),
		Type:   orderType,
		Volume: volume,
		Status: OrderStatusPending,
		Prices: prices,
	}
}
