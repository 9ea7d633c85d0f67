// Package validation checks host-supplied subscription parameters before any
// chain access happens. Every check reports a specific error; hosts surface
// these at configuration time rather than at submit time.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	papaya "github.com/papaya-fi/papaya-go"
)

// evmAddressRegex matches Ethereum-style addresses (0x followed by 40 hex chars)
var evmAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress validates an EVM address string.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address cannot be empty", papaya.ErrInvalidAddress)
	}
	if !evmAddressRegex.MatchString(address) {
		return fmt.Errorf("%w: %s (expected 0x followed by 40 hex characters)", papaya.ErrInvalidAddress, address)
	}
	return nil
}

// ValidateCost validates a decimal cost string: positive, well-formed, and
// within the token's decimal precision.
func ValidateCost(cost string, token papaya.TokenDescriptor) error {
	if cost == "" {
		return fmt.Errorf("%w: cost cannot be empty", papaya.ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(cost)
	if err != nil {
		return fmt.Errorf("%w: invalid cost format: %s", papaya.ErrInvalidAmount, cost)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: cost must be greater than 0, got: %s", papaya.ErrInvalidAmount, cost)
	}

	decimals := tokenDecimals(token)
	if -amount.Exponent() > decimals {
		return fmt.Errorf("%w: cost %s exceeds token precision of %d decimals", papaya.ErrInvalidAmount, cost, decimals)
	}

	return nil
}

// ValidateDetails performs comprehensive validation of subscription details
// against a network: author address, cost, cycle, and token support.
func ValidateDetails(details papaya.SubscriptionDetails, network papaya.NetworkDescriptor) error {
	if err := ValidateAddress(details.Author.Hex()); err != nil {
		return fmt.Errorf("invalid details: author %w", err)
	}
	if isZeroAddress(details.Author.Hex()) {
		return fmt.Errorf("invalid details: %w: author cannot be the zero address", papaya.ErrInvalidAddress)
	}

	if details.Cycle.Seconds() == 0 {
		return fmt.Errorf("invalid details: %w: %q", papaya.ErrInvalidCycle, details.Cycle)
	}

	token, err := network.Token(details.TokenSymbol)
	if err != nil {
		return fmt.Errorf("invalid details: %w", err)
	}

	if err := ValidateCost(details.Cost, token); err != nil {
		return fmt.Errorf("invalid details: %w", err)
	}

	return nil
}

func isZeroAddress(address string) bool {
	return strings.EqualFold(address, "0x0000000000000000000000000000000000000000")
}

// tokenDecimals recovers the decimal count from the token's unit scale.
func tokenDecimals(token papaya.TokenDescriptor) int32 {
	var decimals int32
	for scale := token.Scale; scale > 1; scale /= 10 {
		decimals++
	}
	return decimals
}
