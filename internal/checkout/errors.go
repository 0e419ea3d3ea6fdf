package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrNoItems             = errors.New("no order items")
	ErrInvalidQuantity     = errors.New("item quantity must be at least 1")
	ErrGuestInfoRequired   = errors.New("guest customer information (name, email, phone) is required for guest checkout")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotOrderOwner       = errors.New("not authorized to access this order")
	ErrOrderNotCancellable = errors.New("cannot cancel order at this stage")
)

// ProductNotFoundError names the missing product so the caller sees which
// reference in the item list was stale.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product not found: %s", e.ProductID)
}

// InsufficientStockError names the product that cannot cover the requested
// quantity.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.ProductName)
}

// InvalidTransitionError reports a status change the order state machine
// does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
