package txbuild

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	papaya "github.com/papaya-fi/papaya-go"
)

// EIP-712 domain parameters of the Papaya contract itself, used for
// relayed-call authorization signatures.
const (
	papayaDomainName    = "Papaya"
	papayaDomainVersion = "1"
)

var eip712DomainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// PermitTypedData builds the typed data for the token's permit schema. The
// variant is selected on the token's PermitKind tag; PermitNone tokens have
// nothing to sign.
func PermitTypedData(network papaya.NetworkDescriptor, token papaya.TokenDescriptor, owner common.Address, value, nonce, deadline *big.Int) (apitypes.TypedData, error) {
	switch token.PermitKind {
	case papaya.PermitEIP2612:
		return eip2612TypedData(network, token, owner, value, nonce, deadline), nil
	case papaya.PermitDAI:
		return daiTypedData(network, token, owner, nonce, deadline), nil
	default:
		return apitypes.TypedData{}, fmt.Errorf("token %s does not support permit", token.Symbol)
	}
}

func eip2612TypedData(network papaya.NetworkDescriptor, token papaya.TokenDescriptor, owner common.Address, value, nonce, deadline *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"Permit": []apitypes.Type{
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              token.DomainName,
			Version:           token.DomainVersion,
			ChainId:           math.NewHexOrDecimal256(network.ChainID),
			VerifyingContract: token.Address.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    owner.Hex(),
			"spender":  token.PapayaAddress.Hex(),
			"value":    (*math.HexOrDecimal256)(value),
			"nonce":    (*math.HexOrDecimal256)(nonce),
			"deadline": (*math.HexOrDecimal256)(deadline),
		},
	}
}

func daiTypedData(network papaya.NetworkDescriptor, token papaya.TokenDescriptor, holder common.Address, nonce, expiry *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"Permit": []apitypes.Type{
				{Name: "holder", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "nonce", Type: "uint256"},
				{Name: "expiry", Type: "uint256"},
				{Name: "allowed", Type: "bool"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              token.DomainName,
			Version:           token.DomainVersion,
			ChainId:           math.NewHexOrDecimal256(network.ChainID),
			VerifyingContract: token.Address.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"holder":  holder.Hex(),
			"spender": token.PapayaAddress.Hex(),
			"nonce":   (*math.HexOrDecimal256)(nonce),
			"expiry":  (*math.HexOrDecimal256)(expiry),
			"allowed": true,
		},
	}
}

// SignedCallTypedData builds the typed data authorizing a gas-sponsored
// relayed call: the signature covers the packed traits and the exact
// calldata the relayer must submit.
func SignedCallTypedData(network papaya.NetworkDescriptor, token papaya.TokenDescriptor, traits *big.Int, data []byte) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"SignedCall": []apitypes.Type{
				{Name: "traits", Type: "uint256"},
				{Name: "data", Type: "bytes"},
			},
		},
		PrimaryType: "SignedCall",
		Domain: apitypes.TypedDataDomain{
			Name:              papayaDomainName,
			Version:           papayaDomainVersion,
			ChainId:           math.NewHexOrDecimal256(network.ChainID),
			VerifyingContract: token.PapayaAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"traits": (*math.HexOrDecimal256)(traits),
			"data":   hexutil.Encode(data),
		},
	}
}
