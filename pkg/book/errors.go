package book

import "errors"

var (
	// ErrInvalidQuantity rejects order construction with quantity <= 0.
	ErrInvalidQuantity = errors.New("order quantity must be positive")

	// ErrUnknownOrderKind means no matcher is registered for the order kind.
	ErrUnknownOrderKind = errors.New("unknown order kind")

	// ErrNoLiquidity means a market order asked to convert its remainder to a
	// limit order but no opposing price was ever observed and no fallback
	// price was set.
	ErrNoLiquidity = errors.New("no liquidity to price converted order")

	// ErrAssetMismatch rejects orders whose asset differs from the book's.
	ErrAssetMismatch = errors.New("order asset does not match book asset")
)
