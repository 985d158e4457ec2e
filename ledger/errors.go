package ledger

import "errors"

// Error kinds surfaced by ledger mutations. Callers match them with
// errors.Is; the wrapped message carries the specifics.
var (
	// ErrValidation covers malformed open input: empty ticker,
	// non-positive shares or price, or a ticker that already exists.
	ErrValidation = errors.New("invalid position input")

	// ErrIndexOutOfRange means the operation targeted a position
	// ordinal that does not exist.
	ErrIndexOutOfRange = errors.New("position index out of range")

	// ErrInsufficientShares means a sell asked for more shares than held.
	ErrInsufficientShares = errors.New("cannot sell more shares than held")

	// ErrQuoteUnavailable means a trade was attempted on a position
	// with no resolved current price.
	ErrQuoteUnavailable = errors.New("current price not available")
)
