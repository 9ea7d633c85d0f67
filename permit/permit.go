// Package permit encodes, decodes, compresses, and decompresses ERC-2612,
// DAI-style, and Permit2 permit call payloads.
//
// All functions are pure and total over the documented domain: a payload is
// either uncompressed (224, 256, or 352 bytes of selector-stripped ABI
// arguments) or compressed (100, 72, or 96 bytes of fixed-width packing);
// any other length is invalid. Compression round-trips exactly for every
// field that survives it — the owner, spender, and token addresses are
// elided because the caller can re-supply them from context.
package permit

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidPermitLength indicates a payload whose byte length matches
	// no known permit encoding.
	ErrInvalidPermitLength = errors.New("invalid permit length")

	// ErrAlreadyCompressed indicates Compress was given an already-compact
	// payload.
	ErrAlreadyCompressed = errors.New("permit already compressed")

	// ErrAlreadyDecompressed indicates Decompress was given a full-width
	// payload.
	ErrAlreadyDecompressed = errors.New("permit already decompressed")

	// ErrTimestampOverflow indicates a deadline or expiry that does not fit
	// the compressed 32-bit field.
	ErrTimestampOverflow = errors.New("permit timestamp does not fit compressed field")

	// ErrNonceOverflow indicates a nonce that does not fit the compressed
	// 32-bit field.
	ErrNonceOverflow = errors.New("permit nonce does not fit compressed field")

	// ErrAmountOverflow indicates a Permit2 amount wider than uint160.
	ErrAmountOverflow = errors.New("permit2 amount does not fit uint160")

	// ErrInvalidSignatureV indicates a signature v value outside {27, 28}.
	ErrInvalidSignatureV = errors.New("invalid signature v value")

	// ErrMalformedPermit2 indicates a Permit2 payload whose dynamic-bytes
	// head does not match the canonical single-permit layout.
	ErrMalformedPermit2 = errors.New("malformed permit2 payload")
)

// Uncompressed payload lengths in bytes, selector stripped.
const (
	LenEIP2612 = 224 // permit(owner,spender,value,deadline,v,r,s)
	LenDAI     = 256 // permit(holder,spender,nonce,expiry,allowed,v,r,s)
	LenPermit2 = 352 // permit(owner,PermitSingle,signature) with 64-byte compact signature
)

// Compressed payload lengths in bytes.
const (
	LenCompactEIP2612 = 100 // value(32) deadline'(4) r(32) vs(32)
	LenCompactDAI     = 72  // nonce(4) expiry'(4) r(32) vs(32)
	LenCompactPermit2 = 96  // amount(20) expiration'(4) nonce(4) sigDeadline'(4) sig(64)
)

const (
	wordLen     = 32
	selectorLen = 4

	// permit2HeadOffset is the byte offset of the signature bytes argument
	// in the canonical permit2 call: 8 head words.
	permit2HeadOffset = 8 * wordLen
	permit2SigLen     = 64
)

var (
	// MaxUint256 is the "no expiry" sentinel for EIP-2612 and DAI permits.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// MaxPermit2Timestamp is the Permit2 "no expiry" sentinel, the maximum
	// uint48 value.
	MaxPermit2Timestamp = big.NewInt(0xffffffffffff)

	maxUint32  = new(big.Int).SetUint64(0xffffffff)
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
)

// Eip2612Permit is a decoded ERC-2612 permit call.
type Eip2612Permit struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Deadline *big.Int
	V        uint8
	R        common.Hash
	S        common.Hash
}

// DaiPermit is a decoded DAI-style permit call.
type DaiPermit struct {
	Holder  common.Address
	Spender common.Address
	Nonce   *big.Int
	Expiry  *big.Int
	Allowed bool
	V       uint8
	R       common.Hash
	S       common.Hash
}

// Permit2Permit is a decoded Permit2 single-token permit call with a 64-byte
// compact (EIP-2098) signature.
type Permit2Permit struct {
	Owner       common.Address
	Token       common.Address
	Amount      *big.Int // uint160
	Expiration  *big.Int // uint48
	Nonce       *big.Int // uint48
	Spender     common.Address
	SigDeadline *big.Int
	Signature   [permit2SigLen]byte
}

// Encode returns the 224-byte ABI argument encoding of the permit call.
func (p *Eip2612Permit) Encode() []byte {
	out := make([]byte, LenEIP2612)
	copy(out[12:32], p.Owner.Bytes())
	copy(out[44:64], p.Spender.Bytes())
	p.Value.FillBytes(out[64:96])
	p.Deadline.FillBytes(out[96:128])
	out[159] = p.V
	copy(out[160:192], p.R[:])
	copy(out[192:224], p.S[:])
	return out
}

// DecodeEip2612 parses a 224-byte ABI argument blob into its fields.
func DecodeEip2612(data []byte) (*Eip2612Permit, error) {
	if len(data) != LenEIP2612 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPermitLength, len(data), LenEIP2612)
	}
	return &Eip2612Permit{
		Owner:    common.BytesToAddress(data[0:32]),
		Spender:  common.BytesToAddress(data[32:64]),
		Value:    new(big.Int).SetBytes(data[64:96]),
		Deadline: new(big.Int).SetBytes(data[96:128]),
		V:        data[159],
		R:        common.BytesToHash(data[160:192]),
		S:        common.BytesToHash(data[192:224]),
	}, nil
}

// Encode returns the 256-byte ABI argument encoding of the permit call.
func (p *DaiPermit) Encode() []byte {
	out := make([]byte, LenDAI)
	copy(out[12:32], p.Holder.Bytes())
	copy(out[44:64], p.Spender.Bytes())
	p.Nonce.FillBytes(out[64:96])
	p.Expiry.FillBytes(out[96:128])
	if p.Allowed {
		out[159] = 1
	}
	out[191] = p.V
	copy(out[192:224], p.R[:])
	copy(out[224:256], p.S[:])
	return out
}

// DecodeDai parses a 256-byte ABI argument blob into its fields.
func DecodeDai(data []byte) (*DaiPermit, error) {
	if len(data) != LenDAI {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPermitLength, len(data), LenDAI)
	}
	return &DaiPermit{
		Holder:  common.BytesToAddress(data[0:32]),
		Spender: common.BytesToAddress(data[32:64]),
		Nonce:   new(big.Int).SetBytes(data[64:96]),
		Expiry:  new(big.Int).SetBytes(data[96:128]),
		Allowed: data[159] != 0,
		V:       data[191],
		R:       common.BytesToHash(data[192:224]),
		S:       common.BytesToHash(data[224:256]),
	}, nil
}

// Encode returns the 352-byte ABI argument encoding of the permit call,
// including the dynamic-bytes head for the compact signature.
func (p *Permit2Permit) Encode() []byte {
	out := make([]byte, LenPermit2)
	copy(out[12:32], p.Owner.Bytes())
	copy(out[44:64], p.Token.Bytes())
	p.Amount.FillBytes(out[64:96])
	p.Expiration.FillBytes(out[96:128])
	p.Nonce.FillBytes(out[128:160])
	copy(out[172:192], p.Spender.Bytes())
	p.SigDeadline.FillBytes(out[192:224])
	big.NewInt(permit2HeadOffset).FillBytes(out[224:256])
	big.NewInt(permit2SigLen).FillBytes(out[256:288])
	copy(out[288:352], p.Signature[:])
	return out
}

// DecodePermit2 parses a 352-byte ABI argument blob into its fields,
// validating the canonical dynamic-bytes layout.
func DecodePermit2(data []byte) (*Permit2Permit, error) {
	if len(data) != LenPermit2 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPermitLength, len(data), LenPermit2)
	}
	offset := new(big.Int).SetBytes(data[224:256])
	sigLen := new(big.Int).SetBytes(data[256:288])
	if offset.Cmp(big.NewInt(permit2HeadOffset)) != 0 || sigLen.Cmp(big.NewInt(permit2SigLen)) != 0 {
		return nil, ErrMalformedPermit2
	}
	if !bytes.Equal(data[64:76], make([]byte, 12)) {
		return nil, ErrAmountOverflow
	}

	p := &Permit2Permit{
		Owner:       common.BytesToAddress(data[0:32]),
		Token:       common.BytesToAddress(data[32:64]),
		Amount:      new(big.Int).SetBytes(data[64:96]),
		Expiration:  new(big.Int).SetBytes(data[96:128]),
		Nonce:       new(big.Int).SetBytes(data[128:160]),
		Spender:     common.BytesToAddress(data[160:192]),
		SigDeadline: new(big.Int).SetBytes(data[192:224]),
	}
	copy(p.Signature[:], data[288:352])
	return p, nil
}
