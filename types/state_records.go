package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// AccountInfo is one leaf of the account tree. IdleAssets is indexed by
// asset id, Shares by strategy id, StakedShares by staking pool id.
// Timestamp is the highest nonce the account has consumed.
type AccountInfo struct {
	Account      common.Address
	AccountId    *big.Int
	IdleAssets   []*big.Int
	Shares       []*big.Int
	StakedShares []*big.Int
	Timestamp    *big.Int
}

func createAccountInfoArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "account", Type: r.addressTy, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "idleAssets", Type: r.uint256SliceTy, Indexed: false},
		{Name: "shares", Type: r.uint256SliceTy, Indexed: false},
		{Name: "stakedShares", Type: r.uint256SliceTy, Indexed: false},
		{Name: "timestamp", Type: r.uint256Ty, Indexed: false},
	})
}

func (info *AccountInfo) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.accountInfoArguments.Pack(
		info.Account,
		info.AccountId,
		info.IdleAssets,
		info.Shares,
		info.StakedShares,
		info.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize AccountInfo %v: %w", info, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeAccountInfo(data []byte) (*AccountInfo, error) {
	var info AccountInfo
	err := s.accountInfoArguments.Unpack(&info, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize AccountInfo, data %v: %w", data, err)
	}
	return &info, nil
}

// Empty reports whether the record represents an untouched account slot.
func (info *AccountInfo) Empty() bool {
	return info == nil ||
		(info.Account == common.Address{} &&
			(info.AccountId == nil || info.AccountId.Sign() == 0))
}

// StrategyInfo is one leaf of the strategy tree.
type StrategyInfo struct {
	AssetId      *big.Int
	AssetBalance *big.Int
	ShareSupply  *big.Int
}

func createStrategyInfoArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "assetId", Type: r.uint256Ty, Indexed: false},
		{Name: "assetBalance", Type: r.uint256Ty, Indexed: false},
		{Name: "shareSupply", Type: r.uint256Ty, Indexed: false},
	})
}

func (info *StrategyInfo) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.strategyInfoArguments.Pack(
		info.AssetId,
		info.AssetBalance,
		info.ShareSupply,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize StrategyInfo %v: %w", info, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeStrategyInfo(data []byte) (*StrategyInfo, error) {
	var info StrategyInfo
	err := s.strategyInfoArguments.Unpack(&info, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize StrategyInfo, data %v: %w", data, err)
	}
	return &info, nil
}

func (info *StrategyInfo) Empty() bool {
	return info == nil || info.AssetId == nil || info.AssetId.Sign() == 0
}

// StakingPoolInfo is one leaf of the staking pool tree.
type StakingPoolInfo struct {
	StrategyId     *big.Int
	RewardPerEpoch *big.Int
	TotalShares    *big.Int
}

func createStakingPoolInfoArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "strategyId", Type: r.uint256Ty, Indexed: false},
		{Name: "rewardPerEpoch", Type: r.uint256Ty, Indexed: false},
		{Name: "totalShares", Type: r.uint256Ty, Indexed: false},
	})
}

func (info *StakingPoolInfo) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.stakingPoolInfoArguments.Pack(
		info.StrategyId,
		info.RewardPerEpoch,
		info.TotalShares,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize StakingPoolInfo %v: %w", info, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeStakingPoolInfo(data []byte) (*StakingPoolInfo, error) {
	var info StakingPoolInfo
	err := s.stakingPoolInfoArguments.Unpack(&info, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize StakingPoolInfo, data %v: %w", data, err)
	}
	return &info, nil
}

func (info *StakingPoolInfo) Empty() bool {
	return info == nil || info.StrategyId == nil || info.StrategyId.Sign() == 0
}

// GlobalInfo carries protocol-wide state. Its hash is the fourth sub-root
// of the state commitment. CollectedFees is indexed by asset id.
type GlobalInfo struct {
	CurrEpoch     *big.Int
	CollectedFees []*big.Int
}

func createGlobalInfoArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "currEpoch", Type: r.uint256Ty, Indexed: false},
		{Name: "collectedFees", Type: r.uint256SliceTy, Indexed: false},
	})
}

func (info *GlobalInfo) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.globalInfoArguments.Pack(
		info.CurrEpoch,
		info.CollectedFees,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize GlobalInfo %v: %w", info, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeGlobalInfo(data []byte) (*GlobalInfo, error) {
	var info GlobalInfo
	err := s.globalInfoArguments.Unpack(&info, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize GlobalInfo, data %v: %w", data, err)
	}
	return &info, nil
}
