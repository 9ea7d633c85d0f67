package txbuild

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	papaya "github.com/papaya-fi/papaya-go"
)

// ReadAllowance returns the ERC-20 allowance granted by owner to the
// token's Papaya contract, in token units.
func ReadAllowance(ctx context.Context, reader papaya.ChainReader, token papaya.TokenDescriptor, owner common.Address) (*big.Int, error) {
	data, err := packERC20("allowance", owner, token.PapayaAddress)
	if err != nil {
		return nil, err
	}
	out, err := reader.CallContract(ctx, token.Address, data)
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	return unpackUint256(erc20ABI, "allowance", out)
}

// ReadTokenBalance returns the owner's wallet token balance in token units.
func ReadTokenBalance(ctx context.Context, reader papaya.ChainReader, token papaya.TokenDescriptor, owner common.Address) (*big.Int, error) {
	data, err := packERC20("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := reader.CallContract(ctx, token.Address, data)
	if err != nil {
		return nil, fmt.Errorf("read token balance: %w", err)
	}
	return unpackUint256(erc20ABI, "balanceOf", out)
}

// ReadDepositBalance returns the owner's pre-funded Papaya balance in
// 18-decimal ledger units.
func ReadDepositBalance(ctx context.Context, reader papaya.ChainReader, token papaya.TokenDescriptor, owner common.Address) (*big.Int, error) {
	data, err := packPapaya("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := reader.CallContract(ctx, token.PapayaAddress, data)
	if err != nil {
		return nil, fmt.Errorf("read deposit balance: %w", err)
	}
	return unpackUint256(papayaABI, "balanceOf", out)
}

// ReadPermitNonce returns the owner's current permit nonce on the token
// contract.
func ReadPermitNonce(ctx context.Context, reader papaya.ChainReader, token papaya.TokenDescriptor, owner common.Address) (*big.Int, error) {
	data, err := packERC20("nonces", owner)
	if err != nil {
		return nil, err
	}
	out, err := reader.CallContract(ctx, token.Address, data)
	if err != nil {
		return nil, fmt.Errorf("read permit nonce: %w", err)
	}
	return unpackUint256(erc20ABI, "nonces", out)
}
