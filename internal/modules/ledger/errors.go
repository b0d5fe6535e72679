package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInsufficientLots is returned when a sell exceeds the open lot amount
var ErrInsufficientLots = errors.New("insufficient lots")

// InsufficientLotsError carries the details of a rejected sell
type InsufficientLotsError struct {
	Exchange  string
	Asset     string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientLotsError) Error() string {
	return fmt.Sprintf("cannot sell %s %s on %s: only %s held",
		e.Requested.String(), e.Asset, e.Exchange, e.Available.String())
}

func (e *InsufficientLotsError) Unwrap() error {
	return ErrInsufficientLots
}
