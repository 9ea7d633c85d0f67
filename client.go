package papaya

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Call is a single prepared contract invocation: byte-exact calldata bound
// to a target address.
type Call struct {
	// To is the contract address the call is directed at.
	To common.Address

	// Value is the native token value attached to the call. Nil means zero.
	Value *big.Int

	// Data is the ABI-encoded calldata including the function selector.
	Data []byte
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	// TxHash is the transaction hash.
	TxHash common.Hash

	// Status is 1 for success, 0 for revert.
	Status uint64

	// BlockNumber is the block the transaction was included in.
	BlockNumber uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r Receipt) Succeeded() bool {
	return r.Status == 1
}

// ChainReader is the polled read capability: a side-effect-free eth_call.
// Multiple reads may be issued concurrently.
type ChainReader interface {
	// CallContract executes a read-only call against the given contract and
	// returns the raw ABI-encoded result.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// GasEstimator estimates the gas units a call would consume.
type GasEstimator interface {
	EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error)
}

// TypedDataSigner produces EIP-712 signatures over typed data on behalf of
// the connected wallet. Signatures are 65 bytes, r || s || v with v in
// {27, 28}.
type TypedDataSigner interface {
	// Address returns the signing wallet's address.
	Address() common.Address

	// SignTypedData signs the EIP-712 digest of the given typed data.
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// TransactionSubmitter submits prepared calls and waits for their receipts.
// A multi-call plan is submitted as one atomic batch; how the wallet
// achieves atomicity is its concern.
type TransactionSubmitter interface {
	// SubmitCalls submits the calls as a single user-facing action and
	// returns the hash of the resulting transaction.
	SubmitCalls(ctx context.Context, calls []Call) (common.Hash, error)

	// WaitForReceipt blocks until the transaction is mined or ctx expires.
	WaitForReceipt(ctx context.Context, tx common.Hash) (Receipt, error)
}

// Capabilities bundles the opaque wallet collaborators the host wires in.
type Capabilities struct {
	Reader    ChainReader
	Estimator GasEstimator
	Signer    TypedDataSigner
	Submitter TransactionSubmitter
}

// Validate reports whether every required capability is present.
func (c Capabilities) Validate() error {
	if c.Reader == nil || c.Estimator == nil || c.Signer == nil || c.Submitter == nil {
		return ErrNotConfigured
	}
	return nil
}
