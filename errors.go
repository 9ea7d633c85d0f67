package papaya

import (
	"context"
	"errors"
	"strings"
)

// Standard papaya error definitions

var (
	// ErrUnsupportedNetwork indicates the configured chain id is not in the
	// network registry.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrUnsupportedToken indicates the requested token symbol is not
	// supported on the configured network.
	ErrUnsupportedToken = errors.New("unsupported token")

	// ErrNotConfigured indicates a component was used before its Config was
	// initialized.
	ErrNotConfigured = errors.New("papaya: not configured")

	// ErrInvalidAmount indicates a malformed or out-of-range amount string.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCycle indicates an unrecognized billing cycle.
	ErrInvalidCycle = errors.New("invalid billing cycle")

	// ErrInvalidAddress indicates a malformed EVM address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrCannotSubscribe indicates the wallet cannot cover the required
	// deposit, so no transaction can be built.
	ErrCannotSubscribe = errors.New("insufficient balance to subscribe")

	// ErrSubmissionInFlight indicates a transaction for this session is
	// already outstanding. Each user-initiated action submits exactly once.
	ErrSubmissionInFlight = errors.New("transaction already in flight")

	// ErrUserRejected indicates the user declined the signature or
	// transaction in their wallet. It is suppressed, never surfaced as an
	// error category.
	ErrUserRejected = errors.New("user rejected request")
)

// Category is a human-readable classification of an on-chain, signature, or
// RPC failure, delivered to the host through the error callback.
type Category struct {
	// Code is a stable machine-readable identifier.
	Code string

	// Title is a short human-readable summary.
	Title string

	// Description explains the failure and what the user can do about it.
	Description string
}

// The fixed set of failure categories.
var (
	CategoryInsufficientFunds = Category{
		Code:        "insufficient_funds",
		Title:       "Insufficient funds",
		Description: "The wallet does not hold enough native tokens to pay for this transaction.",
	}
	CategoryGasExceedsAllowance = Category{
		Code:        "gas_exceeds_allowance",
		Title:       "Gas limit too low",
		Description: "The transaction needs more gas than the wallet allows.",
	}
	CategoryExecutionReverted = Category{
		Code:        "execution_reverted",
		Title:       "Transaction reverted",
		Description: "The contract rejected the transaction. Balances may have changed; try again.",
	}
	CategoryNetworkError = Category{
		Code:        "network_error",
		Title:       "Network error",
		Description: "The RPC provider could not be reached. Check the connection and retry.",
	}
	CategoryChainMismatch = Category{
		Code:        "chain_mismatch",
		Title:       "Wrong network",
		Description: "The wallet is connected to a different chain than the subscription expects.",
	}
	CategoryInvalidAddress = Category{
		Code:        "invalid_address",
		Title:       "Invalid address",
		Description: "One of the supplied addresses is malformed.",
	}
	CategoryInvalidSignature = Category{
		Code:        "invalid_signature",
		Title:       "Invalid signature",
		Description: "The signature was rejected. Re-sign and try again.",
	}
	CategoryTimeout = Category{
		Code:        "timeout",
		Title:       "Timed out",
		Description: "The operation took too long. The network may be congested.",
	}
	CategoryUnknown = Category{
		Code:        "unknown",
		Title:       "Something went wrong",
		Description: "An unexpected error occurred. Try again.",
	}
)

// categoryMatch maps an error-message substring to its category. Order
// matters: the first match wins.
var categoryMatches = []struct {
	substr   string
	category Category
}{
	{"insufficient funds", CategoryInsufficientFunds},
	{"gas required exceeds allowance", CategoryGasExceedsAllowance},
	{"out of gas", CategoryGasExceedsAllowance},
	{"execution reverted", CategoryExecutionReverted},
	{"chain mismatch", CategoryChainMismatch},
	{"wrong chain", CategoryChainMismatch},
	{"chain id", CategoryChainMismatch},
	{"invalid address", CategoryInvalidAddress},
	{"invalid signature", CategoryInvalidSignature},
	{"signature", CategoryInvalidSignature},
	{"timeout", CategoryTimeout},
	{"timed out", CategoryTimeout},
	{"deadline exceeded", CategoryTimeout},
	{"connection refused", CategoryNetworkError},
	{"connection reset", CategoryNetworkError},
	{"no such host", CategoryNetworkError},
	{"network", CategoryNetworkError},
}

// IsUserRejected reports whether the error is attributable to the user
// declining the request in their wallet. Such failures are suppressed
// rather than surfaced.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "rejected the request") ||
		strings.Contains(msg, "user cancel")
}

// Categorize maps an error onto one of the fixed human-readable categories
// by substring matching on the underlying message, defaulting to
// CategoryUnknown when nothing matches.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, ErrInvalidAddress) {
		return CategoryInvalidAddress
	}
	if errors.Is(err, ErrCannotSubscribe) {
		return CategoryInsufficientFunds
	}
	msg := strings.ToLower(err.Error())
	for _, m := range categoryMatches {
		if strings.Contains(msg, m.substr) {
			return m.category
		}
	}
	return CategoryUnknown
}
