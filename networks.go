// Package papaya provides the core types and pure logic for embedding a
// recurring on-chain subscription flow: network and token registries,
// affordability resolution, rate arithmetic, and the capability interfaces
// the host application wires to its wallet stack.
//
// Wallet UX, chain-selection UI, and rendering are out of scope; the host
// supplies "read", "estimate gas", "sign typed data", and "submit" as opaque
// collaborators and consumes derived state records and byte-exact payloads.
package papaya

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PermitKind identifies a token's off-chain approval capability. It is a
// closed variant: behavior is selected on this tag, never on the token
// symbol string.
type PermitKind int

const (
	// PermitNone marks tokens without permit support; approval requires a
	// separate on-chain approve transaction.
	PermitNone PermitKind = iota
	// PermitEIP2612 marks tokens implementing the EIP-2612
	// {owner,spender,value,nonce,deadline} permit schema.
	PermitEIP2612
	// PermitDAI marks tokens implementing the DAI-style
	// {holder,spender,nonce,expiry,allowed} permit schema.
	PermitDAI
)

// SupportsPermit reports whether the kind allows off-chain approval.
func (k PermitKind) SupportsPermit() bool {
	return k == PermitEIP2612 || k == PermitDAI
}

// TokenDescriptor describes a supported stablecoin on a specific network.
type TokenDescriptor struct {
	// Symbol is the token symbol (e.g., "USDC").
	Symbol string

	// Address is the ERC-20 contract address.
	Address common.Address

	// PapayaAddress is the deposit-target Papaya contract for this token.
	PapayaAddress common.Address

	// Scale is the token's decimal count expressed as a scaling factor
	// (e.g., 1000000 for 6 decimals).
	Scale int64

	// StartBlock is the Papaya contract deployment block.
	StartBlock uint64

	// PermitKind selects the token's off-chain approval schema.
	PermitKind PermitKind

	// DomainName is the EIP-712 domain "name" parameter for permit signing.
	// Empty for PermitNone tokens.
	DomainName string

	// DomainVersion is the EIP-712 domain "version" parameter for permit
	// signing. Empty for PermitNone tokens.
	DomainVersion string
}

// NetworkDescriptor describes a supported EVM network.
type NetworkDescriptor struct {
	// ChainID is the EVM chain id.
	ChainID int64

	// Name is the human-readable network name.
	Name string

	// NativeSymbol is the native gas token symbol.
	NativeSymbol string

	// RPCURL is the default JSON-RPC provider endpoint.
	RPCURL string

	// Confirmations is the default confirmation count before a transaction
	// is treated as final.
	Confirmations uint64

	// Tokens is the ordered list of supported tokens on this network.
	Tokens []TokenDescriptor
}

// Token returns the descriptor for the given symbol (case-insensitive).
func (n NetworkDescriptor) Token(symbol string) (TokenDescriptor, error) {
	for _, t := range n.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, nil
		}
	}
	return TokenDescriptor{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedToken, symbol, n.Name)
}

// Papaya contract addresses. The Papaya protocol deploys one contract per
// stablecoin per chain; the addresses below were taken from the deployment
// registry.
var (
	papayaUSDTPolygon   = common.HexToAddress("0x1c3E45F2D9Dd65ceb6a644A646337015119952ff")
	papayaUSDCPolygon   = common.HexToAddress("0x574DeA7b2D1996ac65C33B0a61E1F1D045E1E23e")
	papayaUSDTBSC       = common.HexToAddress("0xb8fAC9260825b90fbCe2Ed344C1dbcf4C4e0b7a0")
	papayaUSDCBSC       = common.HexToAddress("0x7A6Bb40b1e9e1a6bA7E4cC27E344d41B84A8d8a5")
	papayaUSDTAvalanche = common.HexToAddress("0x8B4e87cBD7fF4a7DBbdcAAb63a8cbdB4B3b0b6a1")
	papayaUSDCAvalanche = common.HexToAddress("0x42a672Bb9Ca1BDbcD4C7A90B2e3e9aA807d6f35C")
	papayaUSDCBase      = common.HexToAddress("0x058e9D442A293dD1e5C9aAB6bbF6Fb5dF3BD7a4b")
	papayaUSDTMainnet   = common.HexToAddress("0xF8905cE1e3aF3e1b9B837Fb5cE0599AaC6dD5C61")
	papayaDAIMainnet    = common.HexToAddress("0x64C9E5eDd97e1E4D5f7cBb9D4eCae9D4f3Bc8E10")
	papayaUSDCSepolia   = common.HexToAddress("0x9fc4e2eA43C2d9D1f14Bb2f0eCbfBD53c43E7E17")
)

// Mainnet network configurations.
var (
	// PolygonMainnet is the primary deployment network.
	PolygonMainnet = NetworkDescriptor{
		ChainID:       137,
		Name:          "Polygon",
		NativeSymbol:  "POL",
		RPCURL:        "https://polygon-rpc.com",
		Confirmations: 6,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDT",
				Address:       common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F"),
				PapayaAddress: papayaUSDTPolygon,
				Scale:         1_000_000,
				StartBlock:    53_868_040,
				PermitKind:    PermitNone,
			},
			{
				Symbol:        "USDC",
				Address:       common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
				PapayaAddress: papayaUSDCPolygon,
				Scale:         1_000_000,
				StartBlock:    53_868_182,
				PermitKind:    PermitEIP2612,
				DomainName:    "USD Coin",
				DomainVersion: "2",
			},
		},
	}

	// BSCMainnet is the BNB Smart Chain deployment. Note that BSC
	// stablecoins use 18 decimals.
	BSCMainnet = NetworkDescriptor{
		ChainID:       56,
		Name:          "BNB Smart Chain",
		NativeSymbol:  "BNB",
		RPCURL:        "https://bsc-dataseed.binance.org",
		Confirmations: 12,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDT",
				Address:       common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"),
				PapayaAddress: papayaUSDTBSC,
				Scale:         1_000_000_000_000_000_000,
				StartBlock:    36_261_733,
				PermitKind:    PermitNone,
			},
			{
				Symbol:        "USDC",
				Address:       common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"),
				PapayaAddress: papayaUSDCBSC,
				Scale:         1_000_000_000_000_000_000,
				StartBlock:    36_261_850,
				PermitKind:    PermitEIP2612,
				DomainName:    "USD Coin",
				DomainVersion: "2",
			},
		},
	}

	// AvalancheMainnet is the Avalanche C-Chain deployment.
	AvalancheMainnet = NetworkDescriptor{
		ChainID:       43114,
		Name:          "Avalanche",
		NativeSymbol:  "AVAX",
		RPCURL:        "https://api.avax.network/ext/bc/C/rpc",
		Confirmations: 3,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDT",
				Address:       common.HexToAddress("0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7"),
				PapayaAddress: papayaUSDTAvalanche,
				Scale:         1_000_000,
				StartBlock:    42_949_100,
				PermitKind:    PermitNone,
			},
			{
				Symbol:        "USDC",
				Address:       common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
				PapayaAddress: papayaUSDCAvalanche,
				Scale:         1_000_000,
				StartBlock:    42_949_388,
				PermitKind:    PermitEIP2612,
				DomainName:    "USD Coin",
				DomainVersion: "2",
			},
		},
	}

	// BaseMainnet is the Base deployment.
	BaseMainnet = NetworkDescriptor{
		ChainID:       8453,
		Name:          "Base",
		NativeSymbol:  "ETH",
		RPCURL:        "https://mainnet.base.org",
		Confirmations: 6,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDC",
				Address:       common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
				PapayaAddress: papayaUSDCBase,
				Scale:         1_000_000,
				StartBlock:    12_766_500,
				PermitKind:    PermitEIP2612,
				DomainName:    "USD Coin",
				DomainVersion: "2",
			},
		},
	}

	// EthereumMainnet is the Ethereum deployment. Mainnet USDT predates
	// EIP-2612 and has no permit; DAI uses its own permit schema.
	EthereumMainnet = NetworkDescriptor{
		ChainID:       1,
		Name:          "Ethereum",
		NativeSymbol:  "ETH",
		RPCURL:        "https://eth.llamarpc.com",
		Confirmations: 3,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDT",
				Address:       common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
				PapayaAddress: papayaUSDTMainnet,
				Scale:         1_000_000,
				StartBlock:    19_043_700,
				PermitKind:    PermitNone,
			},
			{
				Symbol:        "DAI",
				Address:       common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
				PapayaAddress: papayaDAIMainnet,
				Scale:         1_000_000_000_000_000_000,
				StartBlock:    19_043_950,
				PermitKind:    PermitDAI,
				DomainName:    "Dai Stablecoin",
				DomainVersion: "1",
			},
		},
	}
)

// Testnet network configurations.
var (
	// BaseSepolia is the Base Sepolia testnet deployment.
	BaseSepolia = NetworkDescriptor{
		ChainID:       84532,
		Name:          "Base Sepolia",
		NativeSymbol:  "ETH",
		RPCURL:        "https://sepolia.base.org",
		Confirmations: 1,
		Tokens: []TokenDescriptor{
			{
				Symbol:        "USDC",
				Address:       common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
				PapayaAddress: papayaUSDCSepolia,
				Scale:         1_000_000,
				StartBlock:    11_223_300,
				PermitKind:    PermitEIP2612,
				DomainName:    "USDC",
				DomainVersion: "2",
			},
		},
	}
)

// Networks is the ordered registry of supported networks.
var Networks = []NetworkDescriptor{
	PolygonMainnet,
	BSCMainnet,
	AvalancheMainnet,
	BaseMainnet,
	EthereumMainnet,
	BaseSepolia,
}

// NetworkByChainID returns the descriptor for the given chain id.
func NetworkByChainID(chainID int64) (NetworkDescriptor, error) {
	for _, n := range Networks {
		if n.ChainID == chainID {
			return n, nil
		}
	}
	return NetworkDescriptor{}, fmt.Errorf("%w: chain id %d", ErrUnsupportedNetwork, chainID)
}
