package txbuild

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	papaya "github.com/papaya-fi/papaya-go"
	"github.com/papaya-fi/papaya-go/permit"
)

// PlanKind identifies which action a built plan performs.
type PlanKind int

const (
	// PlanNone means no action is possible or required.
	PlanNone PlanKind = iota
	// PlanApprove grants the Papaya contract an allowance.
	PlanApprove
	// PlanDepositAndSubscribe deposits and subscribes in one atomic action.
	PlanDepositAndSubscribe
	// PlanSponsoredDepositAndSubscribe deposits via a permit-backed relayed
	// call and subscribes, all in one multicall.
	PlanSponsoredDepositAndSubscribe
	// PlanSubscribe starts the subscription against the existing deposit.
	PlanSubscribe
)

// String returns the plan kind name.
func (k PlanKind) String() string {
	switch k {
	case PlanApprove:
		return "approve"
	case PlanDepositAndSubscribe:
		return "deposit-and-subscribe"
	case PlanSponsoredDepositAndSubscribe:
		return "sponsored-deposit-and-subscribe"
	case PlanSubscribe:
		return "subscribe"
	default:
		return "none"
	}
}

// Subscribes reports whether the plan kind includes the subscribe call.
// Confirming a subscribing plan completes the flow; other kinds are
// intermediate steps that leave further actions pending.
func (k PlanKind) Subscribes() bool {
	switch k {
	case PlanSubscribe, PlanDepositAndSubscribe, PlanSponsoredDepositAndSubscribe:
		return true
	default:
		return false
	}
}

// Plan is a prepared transaction: one or more calls submitted together as a
// single user-facing action.
type Plan struct {
	Kind  PlanKind
	Calls []papaya.Call
}

// Planner builds the transaction for the next required action of a
// subscription. It is a pure assembler over the resolved state; all chain
// access goes through the capabilities passed to Plan.
type Planner struct {
	network   papaya.NetworkDescriptor
	token     papaya.TokenDescriptor
	details   papaya.SubscriptionDetails
	projectID *big.Int

	cost18 *big.Int
	rate18 *big.Int
}

// NewPlanner derives the per-second rate for the subscription and returns a
// planner bound to its token and network.
func NewPlanner(cfg papaya.Config, token papaya.TokenDescriptor, details papaya.SubscriptionDetails) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	costUnits, err := details.CostTokenUnits(token)
	if err != nil {
		return nil, err
	}
	cost18 := papaya.ToLedgerUnits(costUnits, token)

	rate18, err := papaya.CalculateRate(cost18, details.Cycle)
	if err != nil {
		return nil, err
	}

	return &Planner{
		network:   cfg.Network,
		token:     token,
		details:   details,
		projectID: cfg.ProjectID,
		cost18:    cost18,
		rate18:    rate18,
	}, nil
}

// Cost18 returns the per-cycle cost in 18-decimal ledger units.
func (p *Planner) Cost18() *big.Int { return new(big.Int).Set(p.cost18) }

// Rate18 returns the per-second rate in 18-decimal ledger units.
func (p *Planner) Rate18() *big.Int { return new(big.Int).Set(p.rate18) }

// Plan selects and builds the next required action deterministically:
// approval first for tokens without permit support, then the combined
// deposit-and-subscribe transaction, then the plain subscribe call.
// Permit-capable tokens never need a separate approval; the permit rides
// inside the sponsored deposit.
func (p *Planner) Plan(ctx context.Context, state papaya.SubscriptionState, reader papaya.ChainReader, signer papaya.TypedDataSigner) (Plan, error) {
	if !state.CanSubscribe {
		return Plan{}, papaya.ErrCannotSubscribe
	}

	switch {
	case state.NeedsApproval && !p.token.PermitKind.SupportsPermit():
		call, err := p.Approve(state.DepositShortfall)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Kind: PlanApprove, Calls: []papaya.Call{call}}, nil

	case state.NeedsDeposit:
		if p.token.PermitKind.SupportsPermit() {
			call, err := p.SponsoredDepositAndSubscribe(ctx, state.DepositShortfall, reader, signer)
			if err != nil {
				return Plan{}, err
			}
			return Plan{Kind: PlanSponsoredDepositAndSubscribe, Calls: []papaya.Call{call}}, nil
		}
		call, err := p.DepositAndSubscribe(state.DepositShortfall)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Kind: PlanDepositAndSubscribe, Calls: []papaya.Call{call}}, nil

	default:
		call, err := p.Subscribe()
		if err != nil {
			return Plan{}, err
		}
		return Plan{Kind: PlanSubscribe, Calls: []papaya.Call{call}}, nil
	}
}

// Approve builds the ERC-20 approve call granting the Papaya contract the
// given amount in token units.
func (p *Planner) Approve(amount *big.Int) (papaya.Call, error) {
	data, err := packERC20("approve", p.token.PapayaAddress, amount)
	if err != nil {
		return papaya.Call{}, err
	}
	return papaya.Call{To: p.token.Address, Data: data}, nil
}

// Subscribe builds the plain subscribe call.
func (p *Planner) Subscribe() (papaya.Call, error) {
	data, err := packPapaya("subscribe", p.details.Author, p.rate18, p.projectID)
	if err != nil {
		return papaya.Call{}, err
	}
	return papaya.Call{To: p.token.PapayaAddress, Data: data}, nil
}

// Deposit builds the deposit call for the given amount in token units.
func (p *Planner) Deposit(amount *big.Int, isPermit2 bool) (papaya.Call, error) {
	data, err := packPapaya("deposit", amount, isPermit2)
	if err != nil {
		return papaya.Call{}, err
	}
	return papaya.Call{To: p.token.PapayaAddress, Data: data}, nil
}

// DepositAndSubscribe builds a single multicall transaction combining the
// deposit and the subscribe. The allowance must already cover the amount.
func (p *Planner) DepositAndSubscribe(amount *big.Int) (papaya.Call, error) {
	depositData, err := packPapaya("deposit", amount, false)
	if err != nil {
		return papaya.Call{}, err
	}
	subscribeData, err := packPapaya("subscribe", p.details.Author, p.rate18, p.projectID)
	if err != nil {
		return papaya.Call{}, err
	}
	data, err := packPapaya("multicall", [][]byte{depositData, subscribeData})
	if err != nil {
		return papaya.Call{}, err
	}
	return papaya.Call{To: p.token.PapayaAddress, Data: data}, nil
}

// BatchApproveDepositSubscribe builds the three-call approve, deposit,
// subscribe batch for wallets that can submit calls atomically. Tokens
// without permit support use this to complete the whole flow in one
// user-facing action.
func (p *Planner) BatchApproveDepositSubscribe(amount *big.Int) ([]papaya.Call, error) {
	approve, err := p.Approve(amount)
	if err != nil {
		return nil, err
	}
	deposit, err := p.Deposit(amount, false)
	if err != nil {
		return nil, err
	}
	subscribe, err := p.Subscribe()
	if err != nil {
		return nil, err
	}
	return []papaya.Call{approve, deposit, subscribe}, nil
}

// SponsoredDepositAndSubscribe builds the gas-sponsored path for
// permit-capable tokens: the deposit rides a permitAndCall wrapped in a
// bySig relayed call, authorized by two typed-data signatures, and is
// submitted together with the subscribe in one multicall.
func (p *Planner) SponsoredDepositAndSubscribe(ctx context.Context, amount *big.Int, reader papaya.ChainReader, signer papaya.TypedDataSigner) (papaya.Call, error) {
	owner := signer.Address()

	compactPermit, err := p.signPermit(ctx, owner, amount, reader, signer)
	if err != nil {
		return papaya.Call{}, err
	}

	depositData, err := packPapaya("deposit", amount, false)
	if err != nil {
		return papaya.Call{}, err
	}
	inner, err := packPapaya("permitAndCall", WrapTokenPermit(p.token.Address, compactPermit), depositData)
	if err != nil {
		return papaya.Call{}, err
	}

	traits, err := BuildTraits(NonceSelector, MaxTraitsDeadline, common.Address{}, new(big.Int))
	if err != nil {
		return papaya.Call{}, err
	}

	callSig, err := signer.SignTypedData(ctx, SignedCallTypedData(p.network, p.token, traits, inner))
	if err != nil {
		return papaya.Call{}, err
	}

	bySigData, err := packPapaya("bySig", owner, traits, inner, callSig)
	if err != nil {
		return papaya.Call{}, err
	}
	subscribeData, err := packPapaya("subscribe", p.details.Author, p.rate18, p.projectID)
	if err != nil {
		return papaya.Call{}, err
	}

	data, err := packPapaya("multicall", [][]byte{bySigData, subscribeData})
	if err != nil {
		return papaya.Call{}, err
	}
	return papaya.Call{To: p.token.PapayaAddress, Data: data}, nil
}

// signPermit obtains the token-permit signature, encodes the full permit
// call, and compresses it for on-chain transport.
func (p *Planner) signPermit(ctx context.Context, owner common.Address, amount *big.Int, reader papaya.ChainReader, signer papaya.TypedDataSigner) ([]byte, error) {
	nonce, err := ReadPermitNonce(ctx, reader, p.token, owner)
	if err != nil {
		return nil, fmt.Errorf("read permit nonce: %w", err)
	}

	deadline := new(big.Int).Set(permit.MaxUint256)

	typedData, err := PermitTypedData(p.network, p.token, owner, amount, nonce, deadline)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, fmt.Errorf("sign permit: %w", err)
	}
	r, s, v, err := splitSignature(sig)
	if err != nil {
		return nil, err
	}

	var encoded []byte
	switch p.token.PermitKind {
	case papaya.PermitEIP2612:
		encoded = (&permit.Eip2612Permit{
			Owner:    owner,
			Spender:  p.token.PapayaAddress,
			Value:    amount,
			Deadline: deadline,
			V:        v,
			R:        r,
			S:        s,
		}).Encode()
	case papaya.PermitDAI:
		encoded = (&permit.DaiPermit{
			Holder:  owner,
			Spender: p.token.PapayaAddress,
			Nonce:   nonce,
			Expiry:  deadline,
			Allowed: true,
			V:       v,
			R:       r,
			S:       s,
		}).Encode()
	default:
		return nil, fmt.Errorf("token %s does not support permit", p.token.Symbol)
	}

	return permit.Compress(encoded)
}

// splitSignature splits a 65-byte r || s || v signature, normalizing v from
// {0, 1} to {27, 28} when the signer returns the raw recovery id.
func splitSignature(sig []byte) (r, s common.Hash, v uint8, err error) {
	if len(sig) != 65 {
		return common.Hash{}, common.Hash{}, 0, fmt.Errorf("invalid signature length %d", len(sig))
	}
	r = common.BytesToHash(sig[0:32])
	s = common.BytesToHash(sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	return r, s, v, nil
}
