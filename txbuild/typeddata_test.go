package txbuild

import (
	"math/big"
	"testing"

	papaya "github.com/papaya-fi/papaya-go"
)

func TestPermitTypedData(t *testing.T) {
	value := big.NewInt(1_000_000)
	nonce := big.NewInt(4)
	deadline := big.NewInt(1_900_000_000)

	t.Run("eip2612", func(t *testing.T) {
		network := papaya.PolygonMainnet
		token, _ := network.Token("USDC")

		typed, err := PermitTypedData(network, token, testOwner, value, nonce, deadline)
		if err != nil {
			t.Fatalf("PermitTypedData() error = %v", err)
		}
		if typed.PrimaryType != "Permit" {
			t.Errorf("PrimaryType = %q, want Permit", typed.PrimaryType)
		}
		if typed.Domain.Name != "USD Coin" || typed.Domain.Version != "2" {
			t.Errorf("domain = %s/%s, want USD Coin/2", typed.Domain.Name, typed.Domain.Version)
		}
		if typed.Domain.VerifyingContract != token.Address.Hex() {
			t.Errorf("verifying contract = %s, want token address", typed.Domain.VerifyingContract)
		}
		if _, ok := typed.Message["deadline"]; !ok {
			t.Error("eip2612 message must carry a deadline")
		}
		if typed.Message["spender"] != token.PapayaAddress.Hex() {
			t.Errorf("spender = %v, want papaya contract", typed.Message["spender"])
		}
	})

	t.Run("dai", func(t *testing.T) {
		network := papaya.EthereumMainnet
		token, _ := network.Token("DAI")

		typed, err := PermitTypedData(network, token, testOwner, value, nonce, deadline)
		if err != nil {
			t.Fatalf("PermitTypedData() error = %v", err)
		}
		if typed.Domain.Name != "Dai Stablecoin" || typed.Domain.Version != "1" {
			t.Errorf("domain = %s/%s, want Dai Stablecoin/1", typed.Domain.Name, typed.Domain.Version)
		}
		if allowed, ok := typed.Message["allowed"].(bool); !ok || !allowed {
			t.Error("dai message must carry allowed = true")
		}
		if _, ok := typed.Message["expiry"]; !ok {
			t.Error("dai message must carry an expiry")
		}
		if _, ok := typed.Message["value"]; ok {
			t.Error("dai message must not carry a value")
		}
	})

	t.Run("no permit support", func(t *testing.T) {
		network := papaya.PolygonMainnet
		token, _ := network.Token("USDT")

		if _, err := PermitTypedData(network, token, testOwner, value, nonce, deadline); err == nil {
			t.Error("PermitTypedData() error = nil, want unsupported")
		}
	})
}

func TestSignedCallTypedData(t *testing.T) {
	network := papaya.PolygonMainnet
	token, _ := network.Token("USDC")

	traits, err := BuildTraits(NonceSelector, MaxTraitsDeadline, testOwner, big.NewInt(0))
	if err != nil {
		t.Fatalf("BuildTraits() error = %v", err)
	}

	typed := SignedCallTypedData(network, token, traits, []byte{0xde, 0xad})
	if typed.PrimaryType != "SignedCall" {
		t.Errorf("PrimaryType = %q, want SignedCall", typed.PrimaryType)
	}
	if typed.Domain.Name != "Papaya" || typed.Domain.Version != "1" {
		t.Errorf("domain = %s/%s, want Papaya/1", typed.Domain.Name, typed.Domain.Version)
	}
	if typed.Domain.VerifyingContract != token.PapayaAddress.Hex() {
		t.Errorf("verifying contract = %s, want papaya contract", typed.Domain.VerifyingContract)
	}
	if typed.Message["data"] != "0xdead" {
		t.Errorf("data = %v, want 0xdead", typed.Message["data"])
	}
}
