package domain

import "errors"

// Sentinel errors for expected business-rule failures. The HTTP layer maps
// each of these to a structured error response; none of them should ever
// surface as a 5xx.
var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrLineNotFound        = errors.New("order line not found")
	ErrUnknownItem         = errors.New("unknown menu item")
	ErrUnknownSize         = errors.New("unknown size for menu item")
	ErrEmptySplitSelection = errors.New("split selection matches no lines")
	ErrInsufficientPayment = errors.New("tendered amount is less than the amount due")
	ErrHoldNotFound        = errors.New("held order not found")
	ErrTooManyHeld         = errors.New("held order limit reached")
)
