package stock

import (
	"errors"
	"fmt"
)

// ErrMissingUnitsPerCarton means the product has no usable carton mapping, so
// carton/piece conversion cannot be computed. Master data must be fixed;
// re-submitting the same request will not help.
var ErrMissingUnitsPerCarton = errors.New("units per carton is not configured for this product")

// ErrCounterUnderflow signals a negative intermediate counter. The deduction
// validates availability up front, so reaching this means the algorithm itself
// is broken. It must surface as an internal error, never be clamped away.
var ErrCounterUnderflow = errors.New("stock counter went negative during deduction")

// InsufficientCartonStockError reports a carton request that exceeds the
// sealed cartons on hand.
type InsufficientCartonStockError struct {
	Requested int
	Available int
}

func (e *InsufficientCartonStockError) Error() string {
	return fmt.Sprintf("insufficient carton stock: requested %d cartons, only %d available (short by %d)",
		e.Requested, e.Available, e.Deficit())
}

func (e *InsufficientCartonStockError) Deficit() int {
	return e.Requested - e.Available
}

// InsufficientPieceStockError reports a piece request that exceeds every
// obtainable piece: broken-carton pieces, loose pieces, and all pieces inside
// cartons that are still allowed to be opened.
type InsufficientPieceStockError struct {
	Requested  int
	Obtainable int
}

func (e *InsufficientPieceStockError) Error() string {
	return fmt.Sprintf("insufficient piece stock: requested %d pieces, only %d obtainable (short by %d)",
		e.Requested, e.Obtainable, e.Deficit())
}

func (e *InsufficientPieceStockError) Deficit() int {
	return e.Requested - e.Obtainable
}

// IsInsufficient reports whether err is either insufficiency variant.
func IsInsufficient(err error) bool {
	var ce *InsufficientCartonStockError
	var pe *InsufficientPieceStockError
	return errors.As(err, &ce) || errors.As(err, &pe)
}
