package escrow

import "errors"

var (
	// ErrNotFound is returned when no escrow exists under the supplied ID.
	ErrNotFound = errors.New("escrow: escrow not found")
	// ErrUnknownRequest is returned when a request index is out of range.
	ErrUnknownRequest = errors.New("escrow: unknown request index")
	// ErrUnauthorized is returned when the caller identity does not match the
	// identity the operation is restricted to.
	ErrUnauthorized = errors.New("escrow: caller not authorized")
	// ErrInvalidTransition is returned when a request cannot move from its
	// current status to the requested one. It covers both "not yet unlocked"
	// and "already paid".
	ErrInvalidTransition = errors.New("escrow: invalid request transition")
	// ErrReentrantCall is returned when a settlement or sweep is attempted
	// while an outbound payout for the same escrow is still in flight.
	ErrReentrantCall = errors.New("escrow: payout already in flight")
	// ErrNothingToSweep is returned when a sweep finds no held value.
	ErrNothingToSweep = errors.New("escrow: no sweepable value")
	// ErrInsufficientFunds is returned when a settlement is attempted against
	// a request whose amount exceeds the currently held balance. Requests may
	// exceed custody at creation; the shortfall surfaces here.
	ErrInsufficientFunds = errors.New("escrow: held balance insufficient for settlement")
	// ErrTransferFailed wraps a payout dispatcher failure. The request state
	// is rolled back before it surfaces, so retrying the settlement is safe.
	ErrTransferFailed = errors.New("escrow: payout transfer failed")
	// ErrInvalidAmount is returned for nil or non-positive funding and
	// request amounts.
	ErrInvalidAmount = errors.New("escrow: amount must be positive")
)
