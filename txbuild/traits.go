package txbuild

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NonceType selects how the relayed-call nonce is tracked on-chain.
type NonceType uint8

const (
	// NonceAccount uses a single sequential nonce per signer account.
	NonceAccount NonceType = iota
	// NonceSelector tracks a sequential nonce per (signer, selector) pair.
	NonceSelector
	// NonceUnique treats every nonce as a one-shot unordered value.
	NonceUnique
)

// Traits bit layout, high to low: 2-bit nonce type at 254, 40-bit deadline
// at 208, 80-bit relayer-address fragment at 128, 128-bit nonce at 0.
const (
	traitsTypeShift     = 254
	traitsDeadlineShift = 208
	traitsRelayerShift  = 128

	// MaxTraitsDeadline is the maximum 40-bit deadline, meaning "never
	// expires".
	MaxTraitsDeadline uint64 = 1<<40 - 1
)

var (
	// ErrTraitsDeadlineOverflow indicates a deadline wider than 40 bits.
	ErrTraitsDeadlineOverflow = errors.New("traits deadline does not fit 40 bits")

	// ErrTraitsNonceOverflow indicates a nonce wider than 128 bits.
	ErrTraitsNonceOverflow = errors.New("traits nonce does not fit 128 bits")

	relayerMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 80), big.NewInt(1))
	nonceMask   = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// BuildTraits packs the relayed-call authorization traits into a single
// 256-bit value. Only the low 80 bits of the relayer address are encoded; a
// zero relayer allows anyone to relay.
func BuildTraits(nonceType NonceType, deadline uint64, relayer common.Address, nonce *big.Int) (*big.Int, error) {
	if deadline > MaxTraitsDeadline {
		return nil, fmt.Errorf("%w: %d", ErrTraitsDeadlineOverflow, deadline)
	}
	if nonce == nil {
		nonce = new(big.Int)
	}
	if nonce.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %s", ErrTraitsNonceOverflow, nonce)
	}

	traits := new(big.Int).Lsh(big.NewInt(int64(nonceType)), traitsTypeShift)

	deadlinePart := new(big.Int).Lsh(new(big.Int).SetUint64(deadline), traitsDeadlineShift)
	traits.Or(traits, deadlinePart)

	relayerPart := new(big.Int).And(new(big.Int).SetBytes(relayer.Bytes()), relayerMask)
	traits.Or(traits, relayerPart.Lsh(relayerPart, traitsRelayerShift))

	return traits.Or(traits, nonce), nil
}

// TraitsNonceType extracts the nonce type from a packed traits value.
func TraitsNonceType(traits *big.Int) NonceType {
	return NonceType(new(big.Int).Rsh(traits, traitsTypeShift).Uint64())
}

// TraitsDeadline extracts the 40-bit deadline from a packed traits value.
func TraitsDeadline(traits *big.Int) uint64 {
	shifted := new(big.Int).Rsh(traits, traitsDeadlineShift)
	return shifted.Uint64() & MaxTraitsDeadline
}

// TraitsNonce extracts the 128-bit nonce from a packed traits value.
func TraitsNonce(traits *big.Int) *big.Int {
	return new(big.Int).And(traits, nonceMask)
}
