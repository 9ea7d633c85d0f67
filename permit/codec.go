package permit

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// compressTimestamp maps a deadline onto its 32-bit compressed form: the
// variant's max sentinel becomes 0, reserving 0 to mean "no expiry", and
// every other value is incremented by one.
func compressTimestamp(t, sentinel *big.Int) (uint32, error) {
	if t.Cmp(sentinel) == 0 {
		return 0, nil
	}
	shifted := new(big.Int).Add(t, big.NewInt(1))
	if shifted.Cmp(maxUint32) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrTimestampOverflow, t)
	}
	return uint32(shifted.Uint64()), nil
}

// expandTimestamp is the exact inverse of compressTimestamp.
func expandTimestamp(t uint32, sentinel *big.Int) *big.Int {
	if t == 0 {
		return new(big.Int).Set(sentinel)
	}
	return new(big.Int).SetUint64(uint64(t) - 1)
}

// packVS folds the signature v value into the high bit of s, producing the
// EIP-2098 compact vs word.
func packVS(v uint8, s common.Hash) (common.Hash, error) {
	if v != 27 && v != 28 {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrInvalidSignatureV, v)
	}
	vs := s
	vs[0] |= (v - 27) << 7
	return vs, nil
}

// unpackVS recovers v as (vs >> 255) + 27 and s as the low 255 bits.
func unpackVS(vs common.Hash) (uint8, common.Hash) {
	v := 27 + vs[0]>>7
	s := vs
	s[0] &= 0x7f
	return v, s
}

// compressNonce packs a nonce into 4 bytes, rejecting values that do not
// fit.
func compressNonce(nonce *big.Int) (uint32, error) {
	if nonce.Cmp(maxUint32) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrNonceOverflow, nonce)
	}
	return uint32(nonce.Uint64()), nil
}

// stripSelector drops a leading 4-byte function selector when the remaining
// length matches a known uncompressed permit encoding.
func stripSelector(data []byte) []byte {
	switch len(data) - selectorLen {
	case LenEIP2612, LenDAI, LenPermit2:
		return data[selectorLen:]
	default:
		return data
	}
}

// Compress rewrites a full-width permit call payload into its compact
// fixed-width encoding. The variant is selected purely by byte length after
// stripping any function selector. Owner, spender, and token addresses are
// dropped; Decompress re-supplies them from context.
func Compress(data []byte) ([]byte, error) {
	data = stripSelector(data)
	switch len(data) {
	case LenEIP2612:
		p, err := DecodeEip2612(data)
		if err != nil {
			return nil, err
		}
		return p.Compress()
	case LenDAI:
		p, err := DecodeDai(data)
		if err != nil {
			return nil, err
		}
		return p.Compress()
	case LenPermit2:
		p, err := DecodePermit2(data)
		if err != nil {
			return nil, err
		}
		return p.Compress()
	case LenCompactEIP2612, LenCompactDAI, LenCompactPermit2:
		return nil, ErrAlreadyCompressed
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPermitLength, len(data))
	}
}

// Compress packs the permit as value(32) || deadline'(4) || r(32) || vs(32).
func (p *Eip2612Permit) Compress() ([]byte, error) {
	deadline, err := compressTimestamp(p.Deadline, MaxUint256)
	if err != nil {
		return nil, err
	}
	vs, err := packVS(p.V, p.S)
	if err != nil {
		return nil, err
	}

	out := make([]byte, LenCompactEIP2612)
	p.Value.FillBytes(out[0:32])
	binary.BigEndian.PutUint32(out[32:36], deadline)
	copy(out[36:68], p.R[:])
	copy(out[68:100], vs[:])
	return out, nil
}

// Compress packs the permit as nonce(4) || expiry'(4) || r(32) || vs(32).
// The allowed flag is not encoded: a compressed DAI permit always means
// "allow".
func (p *DaiPermit) Compress() ([]byte, error) {
	nonce, err := compressNonce(p.Nonce)
	if err != nil {
		return nil, err
	}
	expiry, err := compressTimestamp(p.Expiry, MaxUint256)
	if err != nil {
		return nil, err
	}
	vs, err := packVS(p.V, p.S)
	if err != nil {
		return nil, err
	}

	out := make([]byte, LenCompactDAI)
	binary.BigEndian.PutUint32(out[0:4], nonce)
	binary.BigEndian.PutUint32(out[4:8], expiry)
	copy(out[8:40], p.R[:])
	copy(out[40:72], vs[:])
	return out, nil
}

// Compress packs the permit as amount(20) || expiration'(4) || nonce(4) ||
// sigDeadline'(4) || signature(64). Both timestamps are mapped against the
// Permit2 uint48 sentinel.
func (p *Permit2Permit) Compress() ([]byte, error) {
	if p.Amount.Cmp(maxUint160) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, p.Amount)
	}
	expiration, err := compressTimestamp(p.Expiration, MaxPermit2Timestamp)
	if err != nil {
		return nil, err
	}
	nonce, err := compressNonce(p.Nonce)
	if err != nil {
		return nil, err
	}
	sigDeadline, err := compressTimestamp(p.SigDeadline, MaxPermit2Timestamp)
	if err != nil {
		return nil, err
	}

	out := make([]byte, LenCompactPermit2)
	p.Amount.FillBytes(out[0:20])
	binary.BigEndian.PutUint32(out[20:24], expiration)
	binary.BigEndian.PutUint32(out[24:28], nonce)
	binary.BigEndian.PutUint32(out[28:32], sigDeadline)
	copy(out[32:96], p.Signature[:])
	return out, nil
}

// Decompress rewrites a compact permit payload back into its full-width ABI
// encoding, re-supplying the token, owner, and spender addresses that
// compression elided. For EIP-2612 and DAI variants the token argument is
// unused; for Permit2 the spender is the contract the permit authorizes.
func Decompress(data []byte, token, owner, spender common.Address) ([]byte, error) {
	switch len(data) {
	case LenCompactEIP2612:
		p := DecompressEip2612(data, owner, spender)
		return p.Encode(), nil
	case LenCompactDAI:
		p := DecompressDai(data, owner, spender)
		return p.Encode(), nil
	case LenCompactPermit2:
		p := DecompressPermit2(data, token, owner, spender)
		return p.Encode(), nil
	case LenEIP2612, LenDAI, LenPermit2:
		return nil, ErrAlreadyDecompressed
	default:
		if stripped := stripSelector(data); len(stripped) != len(data) {
			return nil, ErrAlreadyDecompressed
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPermitLength, len(data))
	}
}

// DecompressEip2612 expands a 100-byte compact payload. The input length
// must already be validated.
func DecompressEip2612(data []byte, owner, spender common.Address) *Eip2612Permit {
	v, s := unpackVS(common.BytesToHash(data[68:100]))
	return &Eip2612Permit{
		Owner:    owner,
		Spender:  spender,
		Value:    new(big.Int).SetBytes(data[0:32]),
		Deadline: expandTimestamp(binary.BigEndian.Uint32(data[32:36]), MaxUint256),
		V:        v,
		R:        common.BytesToHash(data[36:68]),
		S:        s,
	}
}

// DecompressDai expands a 72-byte compact payload. Allowed is always
// restored as true.
func DecompressDai(data []byte, holder, spender common.Address) *DaiPermit {
	v, s := unpackVS(common.BytesToHash(data[40:72]))
	return &DaiPermit{
		Holder:  holder,
		Spender: spender,
		Nonce:   new(big.Int).SetUint64(uint64(binary.BigEndian.Uint32(data[0:4]))),
		Expiry:  expandTimestamp(binary.BigEndian.Uint32(data[4:8]), MaxUint256),
		Allowed: true,
		V:       v,
		R:       common.BytesToHash(data[8:40]),
		S:       s,
	}
}

// DecompressPermit2 expands a 96-byte compact payload.
func DecompressPermit2(data []byte, token, owner, spender common.Address) *Permit2Permit {
	p := &Permit2Permit{
		Owner:       owner,
		Token:       token,
		Amount:      new(big.Int).SetBytes(data[0:20]),
		Expiration:  expandTimestamp(binary.BigEndian.Uint32(data[20:24]), MaxPermit2Timestamp),
		Nonce:       new(big.Int).SetUint64(uint64(binary.BigEndian.Uint32(data[24:28]))),
		Spender:     spender,
		SigDeadline: expandTimestamp(binary.BigEndian.Uint32(data[28:32]), MaxPermit2Timestamp),
	}
	copy(p.Signature[:], data[32:96])
	return p
}
