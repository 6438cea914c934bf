package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stepfx/backtester/src/eventmodels"
)

var ErrOrderNotFound = fmt.Errorf("order not found")

// InvalidOrderStateError reports an order lifecycle violation: the strategy
// tried to open or close an order whose status does not permit it.
type InvalidOrderStateError struct {
	OrderID uuid.UUID
	Status  eventmodels.OrderStatus
	Want    eventmodels.OrderStatus
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %s status is not %s: %s", e.OrderID, e.Want, e.Status)
}

// NonPositiveBalanceError signals simulated ruin: the run lost its entire
// stake. It terminates the backtest but is a valid outcome for a caller to
// score.
type NonPositiveBalanceError struct {
	RealBalance decimal.Decimal
}

func (e *NonPositiveBalanceError) Error() string {
	return fmt.Sprintf("real balance is less than or equal to zero: %s", e.RealBalance)
}
