// Package txbuild constructs the byte-exact transactions of the
// subscription flow: plain approve and subscribe calls, atomic
// deposit-and-subscribe batches, and gas-sponsored relayed calls authorized
// by typed-data signatures.
package txbuild

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"nonces","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const papayaJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"deposit","inputs":[{"name":"amount","type":"uint256"},{"name":"isPermit2","type":"bool"}],"outputs":[]},
	{"type":"function","name":"subscribe","inputs":[{"name":"author","type":"address"},{"name":"subscriptionRate","type":"uint96"},{"name":"projectId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"multicall","inputs":[{"name":"data","type":"bytes[]"}],"outputs":[{"name":"results","type":"bytes[]"}]},
	{"type":"function","name":"permitAndCall","inputs":[{"name":"permit","type":"bytes"},{"name":"action","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"bySig","inputs":[{"name":"signer","type":"address"},{"name":"traits","type":"uint256"},{"name":"data","type":"bytes"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]}
]`

var (
	erc20ABI  = mustParseABI(erc20JSON)
	papayaABI = mustParseABI(papayaJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("txbuild: bad embedded ABI: %v", err))
	}
	return parsed
}

func packERC20(method string, args ...interface{}) ([]byte, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func packPapaya(method string, args ...interface{}) ([]byte, error) {
	data, err := papayaABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func unpackUint256(parsed abi.ABI, method string, output []byte) (*big.Int, error) {
	values, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: want 1 value, got %d", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}
	return value, nil
}

// WrapTokenPermit prefixes a permit payload with its token address,
// producing the single opaque byte string permitAndCall expects.
func WrapTokenPermit(token common.Address, permitData []byte) []byte {
	out := make([]byte, 0, common.AddressLength+len(permitData))
	out = append(out, token.Bytes()...)
	return append(out, permitData...)
}
