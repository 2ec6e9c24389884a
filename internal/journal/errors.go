package journal

import "errors"

var (
	// ErrUnsupportedInputType is returned when a timestamp input is neither a
	// recognized string shape nor a structured time value.
	ErrUnsupportedInputType = errors.New("unsupported timestamp input type")

	// ErrMalformedTimestamp is returned when a string looks like a timestamp
	// but cannot be decomposed into valid calendar components.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrEmptyTransactionSet is returned when a trade aggregate is requested
	// for zero transactions.
	ErrEmptyTransactionSet = errors.New("trade has no transactions")

	// ErrNotFound is returned when a trade does not exist or does not belong
	// to the requesting user.
	ErrNotFound = errors.New("trade not found")

	// ErrNoTradesParsed is returned when an entire import yields zero usable trades.
	ErrNoTradesParsed = errors.New("no trades could be parsed from import")
)
