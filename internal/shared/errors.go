package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Source store errors
	ErrSourceUnavailable = fmt.Errorf("source store unavailable")
	ErrQueryNotFound     = fmt.Errorf("no query configured")

	// Destination API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDuplicate          = fmt.Errorf("record already exists")
	ErrMediaUnavailable   = fmt.Errorf("media unavailable")

	// Migration errors
	ErrSnapshotIncomplete = fmt.Errorf("reference snapshot incomplete")
	ErrUnknownKind        = fmt.Errorf("unknown content kind")
	ErrLedgerWrite        = fmt.Errorf("ledger write failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
