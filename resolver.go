package papaya

import "math/big"

// SafeLiquidationPeriod is the fixed safety buffer, in seconds, that the
// user pre-funds on top of the first cycle's cost. Two days of runway keeps
// the recurring rate from immediately under-collateralizing the subscription
// and triggering liquidation.
const SafeLiquidationPeriod int64 = 172_800

// ResolveInput carries the polled on-chain values an affordability
// resolution is computed from. Fetching them is the caller's concern.
type ResolveInput struct {
	// DepositBalance is the user's Papaya deposit balance in 18-decimal
	// ledger units.
	DepositBalance *big.Int

	// Allowance is the ERC-20 allowance granted to the Papaya contract, in
	// token units.
	Allowance *big.Int

	// WalletBalance is the user's wallet token balance, in token units.
	WalletBalance *big.Int

	// Cost18 is the per-cycle subscription cost in 18-decimal ledger units.
	Cost18 *big.Int

	// Rate18 is the per-second subscription rate in 18-decimal ledger units.
	Rate18 *big.Int
}

// RequiredDeposit returns the deposit, in 18-decimal ledger units, needed to
// start a subscription: one cycle's cost plus the safety buffer accrued at
// the per-second rate.
func RequiredDeposit(cost18, rate18 *big.Int) *big.Int {
	buffer := new(big.Int).Mul(rate18, big.NewInt(SafeLiquidationPeriod))
	return buffer.Add(buffer, cost18)
}

// Resolve derives the ordered set of required actions from the polled
// balances. It is a pure function of its inputs; increasing the deposit
// balance never revokes CanSubscribe, and growing the shortfall never clears
// NeedsApproval at constant allowance.
func Resolve(in ResolveInput, token TokenDescriptor) SubscriptionState {
	deposit := zeroIfNil(in.DepositBalance)
	allowance := zeroIfNil(in.Allowance)
	wallet := zeroIfNil(in.WalletBalance)

	required := RequiredDeposit(zeroIfNil(in.Cost18), zeroIfNil(in.Rate18))
	needsDeposit := deposit.Cmp(required) < 0

	shortfall := new(big.Int).Sub(ToTokenUnits(required, token), ToTokenUnits(deposit, token))
	if shortfall.Sign() < 0 {
		shortfall = new(big.Int)
	}

	needsApproval := allowance.Cmp(shortfall) < 0

	canSubscribe := !needsDeposit && deposit.Cmp(required) >= 0 ||
		needsDeposit && wallet.Cmp(shortfall) >= 0

	return SubscriptionState{
		DepositBalance:   deposit,
		Allowance:        allowance,
		WalletBalance:    wallet,
		RequiredDeposit:  required,
		NeedsDeposit:     needsDeposit,
		DepositShortfall: shortfall,
		NeedsApproval:    needsApproval,
		CanSubscribe:     canSubscribe,
	}
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
