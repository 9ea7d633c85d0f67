package papaya

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Cycle represents a subscription billing cycle.
//
// Cycle lengths are fixed: a month is always 30 days and a year is always
// 365 days. On-chain consumers depend on these exact constants, so they are
// not calendar-aware.
type Cycle int

const (
	// CycleUnknown represents an unrecognized billing cycle.
	CycleUnknown Cycle = iota
	// CycleDaily bills once per 86,400 seconds.
	CycleDaily
	// CycleWeekly bills once per 604,800 seconds.
	CycleWeekly
	// CycleMonthly bills once per 2,592,000 seconds (fixed 30-day month).
	CycleMonthly
	// CycleYearly bills once per 31,536,000 seconds (fixed 365-day year).
	CycleYearly
)

// Cycle lengths in seconds.
const (
	SecondsPerDay   int64 = 86_400
	SecondsPerWeek  int64 = 604_800
	SecondsPerMonth int64 = 2_592_000
	SecondsPerYear  int64 = 31_536_000
)

// Seconds returns the cycle length in seconds, or 0 for CycleUnknown.
func (c Cycle) Seconds() int64 {
	switch c {
	case CycleDaily:
		return SecondsPerDay
	case CycleWeekly:
		return SecondsPerWeek
	case CycleMonthly:
		return SecondsPerMonth
	case CycleYearly:
		return SecondsPerYear
	default:
		return 0
	}
}

// String returns the lowercase cycle name.
func (c Cycle) String() string {
	switch c {
	case CycleDaily:
		return "daily"
	case CycleWeekly:
		return "weekly"
	case CycleMonthly:
		return "monthly"
	case CycleYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// ParseCycle parses a lowercase cycle name into a Cycle.
func ParseCycle(s string) (Cycle, error) {
	switch s {
	case "daily":
		return CycleDaily, nil
	case "weekly":
		return CycleWeekly, nil
	case "monthly":
		return CycleMonthly, nil
	case "yearly":
		return CycleYearly, nil
	default:
		return CycleUnknown, fmt.Errorf("%w: %q", ErrInvalidCycle, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Cycle) MarshalText() ([]byte, error) {
	if c.Seconds() == 0 {
		return nil, ErrInvalidCycle
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cycle) UnmarshalText(text []byte) error {
	parsed, err := ParseCycle(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SubscriptionDetails is the caller-supplied configuration for a single
// subscription: who gets paid, how much, how often, and in which token.
type SubscriptionDetails struct {
	// Author is the recipient address of the recurring payment.
	Author common.Address `json:"author"`

	// Cost is the human-readable subscription cost per cycle as a decimal
	// string (e.g., "1.5" = 1.5 USDC).
	Cost string `json:"cost"`

	// Cycle is the billing cycle.
	Cycle Cycle `json:"cycle"`

	// TokenSymbol is the symbol of the stablecoin to pay with (e.g., "USDC").
	TokenSymbol string `json:"tokenSymbol"`
}

// CostTokenUnits converts the human-readable cost string into atomic token
// units for the given token. The conversion is exact: a cost with more
// fractional digits than the token supports is rejected rather than rounded.
func (d SubscriptionDetails) CostTokenUnits(token TokenDescriptor) (*big.Int, error) {
	cost, err := decimal.NewFromString(d.Cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, d.Cost)
	}
	if cost.Sign() <= 0 {
		return nil, fmt.Errorf("%w: cost must be positive, got %q", ErrInvalidAmount, d.Cost)
	}

	units := cost.Mul(decimal.NewFromInt(token.Scale))
	if !units.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more precision than %s supports", ErrInvalidAmount, d.Cost, token.Symbol)
	}
	return units.BigInt(), nil
}

// SubscriptionState is the derived affordability state, recomputed on every
// balance/allowance poll while the host modal is open.
type SubscriptionState struct {
	// DepositBalance is the user's pre-funded Papaya balance in 18-decimal
	// ledger units.
	DepositBalance *big.Int

	// Allowance is the current ERC-20 allowance granted to the Papaya
	// contract, in token units.
	Allowance *big.Int

	// WalletBalance is the user's token balance in their wallet, in token
	// units.
	WalletBalance *big.Int

	// RequiredDeposit is the deposit needed to start the subscription with a
	// safety buffer, in 18-decimal ledger units.
	RequiredDeposit *big.Int

	// NeedsDeposit reports whether the deposit balance is below the required
	// deposit.
	NeedsDeposit bool

	// DepositShortfall is the amount the user must deposit, in token units.
	// Zero when NeedsDeposit is false.
	DepositShortfall *big.Int

	// NeedsApproval reports whether the current allowance cannot cover the
	// deposit shortfall.
	NeedsApproval bool

	// CanSubscribe reports whether the user can complete the subscription,
	// either directly or after depositing from their wallet balance.
	CanSubscribe bool
}

// StateView is the record exposed to the host application. It extends the
// derived SubscriptionState with configuration-mismatch flags and the
// resolved token.
type StateView struct {
	SubscriptionState

	// Token is the resolved token descriptor. Zero value when the token is
	// unsupported.
	Token TokenDescriptor

	// UnsupportedNetwork reports that the configured chain id is not in the
	// network registry. Terminal: no transaction is attempted.
	UnsupportedNetwork bool

	// UnsupportedToken reports that the requested token symbol is not
	// supported on the configured network. Terminal: no transaction is
	// attempted.
	UnsupportedToken bool
}

// AmountToBigInt converts a decimal amount string to *big.Int in atomic
// units. For example, "1.5" with scale 1000000 becomes 1500000. The
// conversion is exact; excess precision is an error.
func AmountToBigInt(amount string, scale int64) (*big.Int, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	units := value.Mul(decimal.NewFromInt(scale))
	if !units.IsInteger() {
		return nil, fmt.Errorf("%w: %q exceeds token precision", ErrInvalidAmount, amount)
	}
	return units.BigInt(), nil
}

// BigIntToAmount converts a *big.Int in atomic units to a decimal string.
// For example, 1500000 with scale 1000000 becomes "1.5".
func BigIntToAmount(value *big.Int, scale int64) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, 0).Div(decimal.NewFromInt(scale)).String()
}
