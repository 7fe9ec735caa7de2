package evaluator

import (
	"math/big"

	"github.com/celer-network/go-l2-dispute/types"
)

var zero = big.NewInt(0)

// expandSlice pads a per-id balance slice with zeros so index is valid.
// Slices only ever grow; leaf encodings stay stable once an id is touched.
func expandSlice(slice []*big.Int, index int) []*big.Int {
	for len(slice) <= index {
		slice = append(slice, new(big.Int))
	}
	return slice
}

// sliceValue reads a per-id balance, treating missing entries as zero.
func sliceValue(slice []*big.Int, index int) *big.Int {
	if index >= len(slice) || slice[index] == nil {
		return zero
	}
	return slice[index]
}

func copyBigInt(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

func copyBigIntSlice(xs []*big.Int) []*big.Int {
	copied := make([]*big.Int, len(xs))
	for i, x := range xs {
		copied[i] = copyBigInt(x)
	}
	return copied
}

func copyAccountInfo(info *types.AccountInfo) *types.AccountInfo {
	return &types.AccountInfo{
		Account:      info.Account,
		AccountId:    copyBigInt(info.AccountId),
		IdleAssets:   copyBigIntSlice(info.IdleAssets),
		Shares:       copyBigIntSlice(info.Shares),
		StakedShares: copyBigIntSlice(info.StakedShares),
		Timestamp:    copyBigInt(info.Timestamp),
	}
}

func copyStrategyInfo(info *types.StrategyInfo) *types.StrategyInfo {
	return &types.StrategyInfo{
		AssetId:      copyBigInt(info.AssetId),
		AssetBalance: copyBigInt(info.AssetBalance),
		ShareSupply:  copyBigInt(info.ShareSupply),
	}
}

func copyStakingPoolInfo(info *types.StakingPoolInfo) *types.StakingPoolInfo {
	return &types.StakingPoolInfo{
		StrategyId:     copyBigInt(info.StrategyId),
		RewardPerEpoch: copyBigInt(info.RewardPerEpoch),
		TotalShares:    copyBigInt(info.TotalShares),
	}
}

func copyGlobalInfo(info *types.GlobalInfo) *types.GlobalInfo {
	return &types.GlobalInfo{
		CurrEpoch:     copyBigInt(info.CurrEpoch),
		CollectedFees: copyBigIntSlice(info.CollectedFees),
	}
}
