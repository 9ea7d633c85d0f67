package permit

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testOwner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSpender = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testToken   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testR       = common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testS       = common.HexToHash("0x2bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestEip2612RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		deadline *big.Int
		v        uint8
	}{
		{name: "finite deadline v27", deadline: big.NewInt(1_700_000_000), v: 27},
		{name: "finite deadline v28", deadline: big.NewInt(1_700_000_000), v: 28},
		{name: "max sentinel deadline", deadline: new(big.Int).Set(MaxUint256), v: 27},
		{name: "zero deadline", deadline: big.NewInt(0), v: 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := &Eip2612Permit{
				Owner:    testOwner,
				Spender:  testSpender,
				Value:    big.NewInt(5_000_000),
				Deadline: tt.deadline,
				V:        tt.v,
				R:        testR,
				S:        testS,
			}

			compact, err := Compress(original.Encode())
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if len(compact) != LenCompactEIP2612 {
				t.Fatalf("compact length = %d, want %d", len(compact), LenCompactEIP2612)
			}

			expanded, err := Decompress(compact, testToken, testOwner, testSpender)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}

			restored, err := DecodeEip2612(expanded)
			if err != nil {
				t.Fatalf("DecodeEip2612() error = %v", err)
			}
			if restored.Owner != original.Owner {
				t.Errorf("Owner = %s, want %s", restored.Owner, original.Owner)
			}
			if restored.Spender != original.Spender {
				t.Errorf("Spender = %s, want %s", restored.Spender, original.Spender)
			}
			if restored.Value.Cmp(original.Value) != 0 {
				t.Errorf("Value = %s, want %s", restored.Value, original.Value)
			}
			if restored.Deadline.Cmp(original.Deadline) != 0 {
				t.Errorf("Deadline = %s, want %s", restored.Deadline, original.Deadline)
			}
			if restored.V != original.V {
				t.Errorf("V = %d, want %d", restored.V, original.V)
			}
			if restored.R != original.R {
				t.Errorf("R = %s, want %s", restored.R, original.R)
			}
			if restored.S != original.S {
				t.Errorf("S = %s, want %s", restored.S, original.S)
			}
		})
	}
}

func TestDaiRoundTrip(t *testing.T) {
	original := &DaiPermit{
		Holder:  testOwner,
		Spender: testSpender,
		Nonce:   big.NewInt(7),
		Expiry:  big.NewInt(1_800_000_000),
		Allowed: true,
		V:       28,
		R:       testR,
		S:       testS,
	}

	compact, err := Compress(original.Encode())
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(compact) != LenCompactDAI {
		t.Fatalf("compact length = %d, want %d", len(compact), LenCompactDAI)
	}

	expanded, err := Decompress(compact, testToken, testOwner, testSpender)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}

	restored, err := DecodeDai(expanded)
	if err != nil {
		t.Fatalf("DecodeDai() error = %v", err)
	}
	if restored.Nonce.Cmp(original.Nonce) != 0 {
		t.Errorf("Nonce = %s, want %s", restored.Nonce, original.Nonce)
	}
	if restored.Expiry.Cmp(original.Expiry) != 0 {
		t.Errorf("Expiry = %s, want %s", restored.Expiry, original.Expiry)
	}
	if !restored.Allowed {
		t.Error("Allowed = false, want true")
	}
	if restored.V != original.V || restored.R != original.R || restored.S != original.S {
		t.Errorf("signature = (%d, %s, %s), want (%d, %s, %s)",
			restored.V, restored.R, restored.S, original.V, original.R, original.S)
	}
}

func TestPermit2RoundTrip(t *testing.T) {
	var sig [64]byte
	for i := range sig {
		sig[i] = byte(i)
	}

	original := &Permit2Permit{
		Owner:       testOwner,
		Token:       testToken,
		Amount:      big.NewInt(1_000_000),
		Expiration:  new(big.Int).Set(MaxPermit2Timestamp),
		Nonce:       big.NewInt(3),
		Spender:     testSpender,
		SigDeadline: big.NewInt(1_750_000_000),
		Signature:   sig,
	}

	encoded := original.Encode()
	if len(encoded) != LenPermit2 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), LenPermit2)
	}

	compact, err := Compress(encoded)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(compact) != LenCompactPermit2 {
		t.Fatalf("compact length = %d, want %d", len(compact), LenCompactPermit2)
	}

	expanded, err := Decompress(compact, testToken, testOwner, testSpender)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}

	restored, err := DecodePermit2(expanded)
	if err != nil {
		t.Fatalf("DecodePermit2() error = %v", err)
	}
	if restored.Amount.Cmp(original.Amount) != 0 {
		t.Errorf("Amount = %s, want %s", restored.Amount, original.Amount)
	}
	if restored.Expiration.Cmp(MaxPermit2Timestamp) != 0 {
		t.Errorf("Expiration = %s, want sentinel %s", restored.Expiration, MaxPermit2Timestamp)
	}
	if restored.Nonce.Cmp(original.Nonce) != 0 {
		t.Errorf("Nonce = %s, want %s", restored.Nonce, original.Nonce)
	}
	if restored.SigDeadline.Cmp(original.SigDeadline) != 0 {
		t.Errorf("SigDeadline = %s, want %s", restored.SigDeadline, original.SigDeadline)
	}
	if restored.Signature != original.Signature {
		t.Error("Signature does not round-trip")
	}
}

func TestSentinelDeadlineCompressesToZero(t *testing.T) {
	p := &Eip2612Permit{
		Owner:    testOwner,
		Spender:  testSpender,
		Value:    big.NewInt(1),
		Deadline: new(big.Int).Set(MaxUint256),
		V:        27,
		R:        testR,
		S:        testS,
	}
	compact, err := p.Compress()
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !bytes.Equal(compact[32:36], []byte{0, 0, 0, 0}) {
		t.Errorf("sentinel deadline field = %x, want 00000000", compact[32:36])
	}
}

func TestFiniteTimestampShiftsByOne(t *testing.T) {
	p := &Eip2612Permit{
		Owner:    testOwner,
		Spender:  testSpender,
		Value:    big.NewInt(1),
		Deadline: big.NewInt(0),
		V:        27,
		R:        testR,
		S:        testS,
	}
	compact, err := p.Compress()
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !bytes.Equal(compact[32:36], []byte{0, 0, 0, 1}) {
		t.Errorf("zero deadline field = %x, want 00000001", compact[32:36])
	}
}

func TestCompressOverflows(t *testing.T) {
	base := func() *Eip2612Permit {
		return &Eip2612Permit{
			Owner:    testOwner,
			Spender:  testSpender,
			Value:    big.NewInt(1),
			Deadline: big.NewInt(1),
			V:        27,
			R:        testR,
			S:        testS,
		}
	}

	t.Run("timestamp overflow", func(t *testing.T) {
		p := base()
		p.Deadline = new(big.Int).SetUint64(0xffffffff) // +1 exceeds 32 bits
		if _, err := p.Compress(); !errors.Is(err, ErrTimestampOverflow) {
			t.Errorf("Compress() error = %v, want ErrTimestampOverflow", err)
		}
	})

	t.Run("timestamp fits at shifted max", func(t *testing.T) {
		p := base()
		p.Deadline = new(big.Int).SetUint64(0xfffffffe)
		compact, err := p.Compress()
		if err != nil {
			t.Fatalf("Compress() error = %v", err)
		}
		if !bytes.Equal(compact[32:36], []byte{0xff, 0xff, 0xff, 0xff}) {
			t.Errorf("deadline field = %x, want ffffffff", compact[32:36])
		}
	})

	t.Run("invalid v", func(t *testing.T) {
		p := base()
		p.V = 26
		if _, err := p.Compress(); !errors.Is(err, ErrInvalidSignatureV) {
			t.Errorf("Compress() error = %v, want ErrInvalidSignatureV", err)
		}
	})

	t.Run("dai nonce overflow", func(t *testing.T) {
		p := &DaiPermit{
			Holder:  testOwner,
			Spender: testSpender,
			Nonce:   new(big.Int).Lsh(big.NewInt(1), 32),
			Expiry:  big.NewInt(1),
			Allowed: true,
			V:       27,
			R:       testR,
			S:       testS,
		}
		if _, err := p.Compress(); !errors.Is(err, ErrNonceOverflow) {
			t.Errorf("Compress() error = %v, want ErrNonceOverflow", err)
		}
	})

	t.Run("permit2 amount overflow", func(t *testing.T) {
		p := &Permit2Permit{
			Owner:       testOwner,
			Token:       testToken,
			Amount:      new(big.Int).Lsh(big.NewInt(1), 160),
			Expiration:  big.NewInt(1),
			Nonce:       big.NewInt(1),
			Spender:     testSpender,
			SigDeadline: big.NewInt(1),
		}
		if _, err := p.Compress(); !errors.Is(err, ErrAmountOverflow) {
			t.Errorf("Compress() error = %v, want ErrAmountOverflow", err)
		}
	})
}

func TestPackVS(t *testing.T) {
	vs, err := packVS(28, testS)
	if err != nil {
		t.Fatalf("packVS() error = %v", err)
	}
	if vs[0]&0x80 == 0 {
		t.Error("v=28 should set the high bit of vs")
	}

	v, s := unpackVS(vs)
	if v != 28 {
		t.Errorf("unpackVS v = %d, want 28", v)
	}
	if s != testS {
		t.Errorf("unpackVS s = %s, want %s", s, testS)
	}
}

func TestCompressDispatch(t *testing.T) {
	valid := (&Eip2612Permit{
		Owner:    testOwner,
		Spender:  testSpender,
		Value:    big.NewInt(1),
		Deadline: big.NewInt(1),
		V:        27,
		R:        testR,
		S:        testS,
	}).Encode()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "valid eip2612", data: valid},
		{name: "selector prefixed", data: append([]byte{0xd5, 0x05, 0xac, 0xcf}, valid...)},
		{name: "already compressed eip2612", data: make([]byte, LenCompactEIP2612), wantErr: ErrAlreadyCompressed},
		{name: "already compressed dai", data: make([]byte, LenCompactDAI), wantErr: ErrAlreadyCompressed},
		{name: "already compressed permit2", data: make([]byte, LenCompactPermit2), wantErr: ErrAlreadyCompressed},
		{name: "empty", data: nil, wantErr: ErrInvalidPermitLength},
		{name: "garbage length", data: make([]byte, 123), wantErr: ErrInvalidPermitLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compress(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Compress() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compress() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecompressDispatch(t *testing.T) {
	uncompressed := make([]byte, LenEIP2612)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "already decompressed", data: uncompressed, wantErr: ErrAlreadyDecompressed},
		{name: "selector prefixed uncompressed", data: make([]byte, selectorLen+LenDAI), wantErr: ErrAlreadyDecompressed},
		{name: "garbage length", data: make([]byte, 50), wantErr: ErrInvalidPermitLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.data, testToken, testOwner, testSpender)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decompress() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodePermit2Malformed(t *testing.T) {
	p := &Permit2Permit{
		Owner:       testOwner,
		Token:       testToken,
		Amount:      big.NewInt(1),
		Expiration:  big.NewInt(1),
		Nonce:       big.NewInt(1),
		Spender:     testSpender,
		SigDeadline: big.NewInt(1),
	}

	t.Run("corrupted offset word", func(t *testing.T) {
		data := p.Encode()
		data[255] = 0x40 // offset no longer 0x100
		if _, err := DecodePermit2(data); !errors.Is(err, ErrMalformedPermit2) {
			t.Errorf("DecodePermit2() error = %v, want ErrMalformedPermit2", err)
		}
	})

	t.Run("corrupted length word", func(t *testing.T) {
		data := p.Encode()
		data[287] = 65
		if _, err := DecodePermit2(data); !errors.Is(err, ErrMalformedPermit2) {
			t.Errorf("DecodePermit2() error = %v, want ErrMalformedPermit2", err)
		}
	})

	t.Run("amount wider than uint160", func(t *testing.T) {
		data := p.Encode()
		data[64] = 1 // dirty high bytes of the amount word
		if _, err := DecodePermit2(data); !errors.Is(err, ErrAmountOverflow) {
			t.Errorf("DecodePermit2() error = %v, want ErrAmountOverflow", err)
		}
	})
}

func TestDaiDecompressAlwaysAllows(t *testing.T) {
	compact := make([]byte, LenCompactDAI)
	p := DecompressDai(compact, testOwner, testSpender)
	if !p.Allowed {
		t.Error("decompressed DAI permit must have Allowed = true")
	}
}
