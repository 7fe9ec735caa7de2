package evaluator

import (
	solsha3 "github.com/miguelmota/go-solidity-sha3"

	"github.com/celer-network/go-l2-dispute/types"
)

// Signature messages bind the user-authorized fields of each transition
// type. Account ids are excluded on purpose so a signature stays valid no
// matter which slot the operator assigns; the nonce prevents replay.

func WithdrawSigMessage(t *types.WithdrawTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("withdraw"),
		solsha3.Uint256(t.AssetId),
		solsha3.Uint256(t.Amount),
		solsha3.Uint256(t.Fee),
		solsha3.Uint256(t.Nonce),
	)
}

func TransferSigMessage(t *types.TransferTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("transfer"),
		solsha3.Uint256(t.ToAccountId),
		solsha3.Uint256(t.AssetId),
		solsha3.Uint256(t.Amount),
		solsha3.Uint256(t.Nonce),
	)
}

func BuySigMessage(t *types.BuyTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("buy"),
		solsha3.Uint256(t.StrategyId),
		solsha3.Uint256(t.Amount),
		solsha3.Uint256(t.Nonce),
	)
}

func SellSigMessage(t *types.SellTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("sell"),
		solsha3.Uint256(t.StrategyId),
		solsha3.Uint256(t.Shares),
		solsha3.Uint256(t.Nonce),
	)
}

func StakeSigMessage(t *types.StakeTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("stake"),
		solsha3.Uint256(t.PoolId),
		solsha3.Uint256(t.Shares),
		solsha3.Uint256(t.Nonce),
	)
}

func UnstakeSigMessage(t *types.UnstakeTransition) []byte {
	return solsha3.SoliditySHA3(
		solsha3.String("unstake"),
		solsha3.Uint256(t.PoolId),
		solsha3.Uint256(t.Shares),
		solsha3.Uint256(t.Nonce),
	)
}
