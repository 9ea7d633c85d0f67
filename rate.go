package papaya

import (
	"fmt"
	"math/big"
)

// LedgerScale is the scaling factor of the Papaya internal ledger, which
// accounts in 18 decimals regardless of the underlying token.
const LedgerScale int64 = 1_000_000_000_000_000_000

// CalculateRate converts a flat per-cycle cost into a per-second on-chain
// rate using integer (floor) division. Both cost and rate are in 18-decimal
// ledger units.
//
// Floor division loses sub-unit remainders for short cycles on low-decimal
// tokens. The behavior is intentional: on-chain consumers round the same
// way, and the two sides must agree.
func CalculateRate(cost18 *big.Int, cycle Cycle) (*big.Int, error) {
	seconds := cycle.Seconds()
	if seconds == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCycle, cycle)
	}
	if cost18 == nil || cost18.Sign() < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative", ErrInvalidAmount)
	}
	return new(big.Int).Quo(cost18, big.NewInt(seconds)), nil
}

// ledgerMultiplier returns 10^(18-tokenDecimals) as an integer, i.e. the
// exact factor between token units and ledger units.
func ledgerMultiplier(token TokenDescriptor) *big.Int {
	return new(big.Int).Quo(big.NewInt(LedgerScale), big.NewInt(token.Scale))
}

// ToLedgerUnits converts an amount in token units into 18-decimal ledger
// units by exact integer scaling.
func ToLedgerUnits(amount *big.Int, token TokenDescriptor) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(amount, ledgerMultiplier(token))
}

// ToTokenUnits converts an amount in 18-decimal ledger units into token
// units, flooring any sub-token-unit remainder.
func ToTokenUnits(amount18 *big.Int, token TokenDescriptor) *big.Int {
	if amount18 == nil {
		return new(big.Int)
	}
	return new(big.Int).Quo(amount18, ledgerMultiplier(token))
}
