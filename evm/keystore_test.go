package evm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Valid BIP39 test mnemonic (DO NOT use in production). Account 0 on the
// standard m/44'/60'/0'/0/x path is the testPrivateKeyHex account.
const testMnemonic = "test test test test test test test test test test test junk"

func TestWithMnemonic(t *testing.T) {
	tests := []struct {
		name         string
		mnemonic     string
		accountIndex uint32
		wantAddr     common.Address
		wantErr      error
	}{
		{
			name:         "account 0 matches the known derivation",
			mnemonic:     testMnemonic,
			accountIndex: 0,
			wantAddr:     testKeyAddress,
		},
		{
			name:         "account 1",
			mnemonic:     testMnemonic,
			accountIndex: 1,
			wantAddr:     common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		},
		{
			name:     "invalid mnemonic",
			mnemonic: "invalid mnemonic phrase",
			wantErr:  ErrInvalidMnemonic,
		},
		{
			name:     "empty mnemonic",
			mnemonic: "",
			wantErr:  ErrInvalidMnemonic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWallet(
				WithMnemonic(tt.mnemonic, tt.accountIndex),
				WithRPCURL(testRPCURL),
			)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewWallet() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWallet() error = %v", err)
			}
			if w.Address() != tt.wantAddr {
				t.Errorf("Address() = %s, want %s", w.Address(), tt.wantAddr)
			}
		})
	}
}

func TestWithKeystore(t *testing.T) {
	tmpDir := t.TempDir()
	password := "testpassword123"

	privateKey, err := crypto.HexToECDSA(testPrivateKeyHex)
	if err != nil {
		t.Fatalf("parse test key: %v", err)
	}
	ks := keystore.NewKeyStore(tmpDir, keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(privateKey, password)
	if err != nil {
		t.Fatalf("create keystore: %v", err)
	}

	tests := []struct {
		name         string
		keystorePath string
		password     string
		wantErr      error
	}{
		{
			name:         "correct password",
			keystorePath: account.URL.Path,
			password:     password,
		},
		{
			name:         "wrong password",
			keystorePath: account.URL.Path,
			password:     "wrongpassword",
			wantErr:      ErrInvalidKeystore,
		},
		{
			name:         "missing file",
			keystorePath: filepath.Join(tmpDir, "nonexistent.json"),
			password:     password,
			wantErr:      ErrInvalidKeystore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWallet(
				WithKeystore(tt.keystorePath, tt.password),
				WithRPCURL(testRPCURL),
			)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewWallet() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWallet() error = %v", err)
			}
			if w.Address() != account.Address {
				t.Errorf("Address() = %s, want %s", w.Address(), account.Address)
			}
		})
	}
}

func TestWithKeystoreInvalidJSON(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(invalidPath, []byte("not valid json"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := NewWallet(
		WithKeystore(invalidPath, "password"),
		WithRPCURL(testRPCURL),
	)
	if !errors.Is(err, ErrInvalidKeystore) {
		t.Fatalf("NewWallet() error = %v, want ErrInvalidKeystore", err)
	}
}

func TestDeriveEthereumKey(t *testing.T) {
	seed := []byte("deterministic seed for derivation tests - DO NOT USE IN PRODUCTION")

	key0, err := deriveEthereumKey(seed, 0)
	if err != nil {
		t.Fatalf("deriveEthereumKey(0) error = %v", err)
	}
	key1, err := deriveEthereumKey(seed, 1)
	if err != nil {
		t.Fatalf("deriveEthereumKey(1) error = %v", err)
	}

	addr0 := crypto.PubkeyToAddress(key0.PublicKey)
	addr1 := crypto.PubkeyToAddress(key1.PublicKey)
	if addr0 == addr1 {
		t.Error("different indices derived the same key")
	}

	key0Again, err := deriveEthereumKey(seed, 0)
	if err != nil {
		t.Fatalf("deriveEthereumKey(0) error = %v", err)
	}
	if crypto.PubkeyToAddress(key0Again.PublicKey) != addr0 {
		t.Error("same seed and index derived different keys")
	}
}
