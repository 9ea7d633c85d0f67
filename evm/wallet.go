// Package evm provides a private-key wallet backed by an RPC endpoint. It
// implements every capability the subscription flow needs: read-only calls,
// gas estimation, EIP-712 typed-data signing, and transaction submission.
//
// Browser hosts normally wire the injected wallet instead; this package
// exists for servers, tests, and CLI tooling that hold their own key.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	papaya "github.com/papaya-fi/papaya-go"
)

var (
	// ErrInvalidKey is returned when the private key is missing or malformed.
	ErrInvalidKey = errors.New("invalid private key")
	// ErrInvalidKeystore is returned when a keystore file cannot be decrypted.
	ErrInvalidKeystore = errors.New("invalid keystore")
	// ErrInvalidMnemonic is returned when a mnemonic phrase fails validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrNoEndpoint is returned when neither an RPC URL nor a client is set.
	ErrNoEndpoint = errors.New("no rpc endpoint configured")
)

const receiptPollInterval = time.Second

// Wallet is a key-holding EVM account bound to one network.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	rpcURL     string
	client     *ethclient.Client
	logger     *zap.Logger
}

// WalletOption configures a Wallet.
type WalletOption func(*Wallet) error

// NewWallet creates a wallet with the given options. A private key and an
// endpoint (or pre-built client) are required.
func NewWallet(opts ...WalletOption) (*Wallet, error) {
	w := &Wallet{logger: zap.NewNop()}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	if w.privateKey == nil {
		return nil, ErrInvalidKey
	}
	if w.client == nil {
		if w.rpcURL == "" {
			return nil, ErrNoEndpoint
		}
		client, err := ethclient.Dial(w.rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", w.rpcURL, err)
		}
		w.client = client
	}

	w.address = crypto.PubkeyToAddress(w.privateKey.PublicKey)
	return w, nil
}

// WithPrivateKey sets the private key from a hex string.
func WithPrivateKey(hexKey string) WalletOption {
	return func(w *Wallet) error {
		hexKey = strings.TrimPrefix(hexKey, "0x")

		privateKey, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return ErrInvalidKey
		}

		w.privateKey = privateKey
		return nil
	}
}

// WithNetwork binds the wallet to a network, taking the chain ID and the
// default RPC endpoint from the descriptor.
func WithNetwork(network papaya.NetworkDescriptor) WalletOption {
	return func(w *Wallet) error {
		w.chainID = big.NewInt(network.ChainID)
		if w.rpcURL == "" {
			w.rpcURL = network.RPCURL
		}
		return nil
	}
}

// WithRPCURL overrides the RPC endpoint.
func WithRPCURL(url string) WalletOption {
	return func(w *Wallet) error {
		w.rpcURL = url
		return nil
	}
}

// WithClient supplies a pre-built RPC client, skipping the dial.
func WithClient(client *ethclient.Client) WalletOption {
	return func(w *Wallet) error {
		w.client = client
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) WalletOption {
	return func(w *Wallet) error {
		if logger != nil {
			w.logger = logger.Named("evm")
		}
		return nil
	}
}

// Capabilities returns the wallet wired into every capability slot.
func (w *Wallet) Capabilities() papaya.Capabilities {
	return papaya.Capabilities{
		Reader:    w,
		Estimator: w,
		Signer:    w,
		Submitter: w,
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// CallContract executes a read-only call and returns the raw result.
func (w *Wallet) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return w.client.CallContract(ctx, ethereum.CallMsg{
		From: w.address,
		To:   &to,
		Data: data,
	}, nil)
}

// EstimateGas estimates the gas units the call would consume.
func (w *Wallet) EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error) {
	return w.client.EstimateGas(ctx, ethereum.CallMsg{
		From: w.address,
		To:   &to,
		Data: data,
	})
}

// SignTypedData signs the EIP-712 digest of the typed data and returns the
// 65-byte r || s || v signature with v in {27, 28}.
func (w *Wallet) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}

	// keccak256("\x19\x01" || domainSeparator || messageHash)
	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	digest := crypto.Keccak256(rawData)

	signature, err := crypto.Sign(digest, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign typed data: %w", err)
	}

	// Adjust v from the raw recovery id to {27, 28}.
	signature[64] += 27
	return signature, nil
}

// SubmitCalls submits the calls as individual transactions, waiting for each
// to mine before sending the next, and returns the hash of the last one. A
// key-holding wallet has no atomic batch; hosts that need atomicity wire a
// batching wallet instead.
func (w *Wallet) SubmitCalls(ctx context.Context, calls []papaya.Call) (common.Hash, error) {
	if len(calls) == 0 {
		return common.Hash{}, errors.New("no calls to submit")
	}

	var last common.Hash
	for i, call := range calls {
		hash, err := w.submitCall(ctx, call)
		if err != nil {
			return common.Hash{}, err
		}
		last = hash

		// Intermediate calls must land before their successors are valid.
		if i < len(calls)-1 {
			receipt, err := w.WaitForReceipt(ctx, hash)
			if err != nil {
				return common.Hash{}, err
			}
			if !receipt.Succeeded() {
				return common.Hash{}, fmt.Errorf("call %d reverted: %s", i, hash)
			}
		}
	}
	return last, nil
}

func (w *Wallet) submitCall(ctx context.Context, call papaya.Call) (common.Hash, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	gas, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &call.To,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     call.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	w.logger.Info("transaction sent",
		zap.Stringer("tx", signed.Hash()),
		zap.Stringer("to", call.To),
		zap.Uint64("gas", gas))
	return signed.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or ctx expires.
func (w *Wallet) WaitForReceipt(ctx context.Context, tx common.Hash) (papaya.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, tx)
		if err == nil {
			return papaya.Receipt{
				TxHash:      tx,
				Status:      receipt.Status,
				BlockNumber: receipt.BlockNumber.Uint64(),
			}, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return papaya.Receipt{}, fmt.Errorf("fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return papaya.Receipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
