package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type TransitionType int

const (
	TransitionTypeInit TransitionType = iota
	TransitionTypeDeposit
	TransitionTypeWithdraw
	TransitionTypeTransfer
	TransitionTypeBuy
	TransitionTypeSell
	TransitionTypeStake
	TransitionTypeUnstake
)

// Transition is one encoded state-changing operation inside a block. The
// StateRoot is the post-state commitment the transition claims.
type Transition interface {
	GetTransitionType() TransitionType
	GetStateRoot() [32]byte
	Serialize(*Serializer) ([]byte, error)
}

// TransitionTypeOfBytes reads the type tag of an encoded transition
// without decoding the rest of the payload.
func TransitionTypeOfBytes(data []byte) (TransitionType, error) {
	if len(data) < 32 {
		return 0, fmt.Errorf("transition data too short: %d bytes", len(data))
	}
	return TransitionType(new(big.Int).SetBytes(data[0:32]).Uint64()), nil
}

// InitTransition is the genesis transition. It only commits to the
// well-known empty state.
type InitTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
}

func (*InitTransition) GetTransitionType() TransitionType {
	return TransitionTypeInit
}

func (t *InitTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createInitTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
	})
}

func (transition *InitTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.initTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
	)
}

func (s *Serializer) DeserializeInitTransition(data []byte) (*InitTransition, error) {
	var transition InitTransition
	err := s.initTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize InitTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// DepositTransition credits an asset deposited on the mainchain. It is
// unsigned; the deposit was authorized on layer 1.
type DepositTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	Account        common.Address
	AccountId      *big.Int
	AssetId        *big.Int
	Amount         *big.Int
}

func (*DepositTransition) GetTransitionType() TransitionType {
	return TransitionTypeDeposit
}

func (t *DepositTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createDepositTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "account", Type: r.addressTy, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "assetId", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
	})
}

func (transition *DepositTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.depositTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.Account,
		transition.AccountId,
		transition.AssetId,
		transition.Amount,
	)
}

func (s *Serializer) DeserializeDepositTransition(data []byte) (*DepositTransition, error) {
	var transition DepositTransition
	err := s.depositTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize DepositTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// WithdrawTransition moves an idle asset back to the mainchain. The fee
// accrues to the global info.
type WithdrawTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	AccountId      *big.Int
	AssetId        *big.Int
	Amount         *big.Int
	Fee            *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*WithdrawTransition) GetTransitionType() TransitionType {
	return TransitionTypeWithdraw
}

func (t *WithdrawTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createWithdrawTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "assetId", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "fee", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *WithdrawTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.withdrawTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountId,
		transition.AssetId,
		transition.Amount,
		transition.Fee,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeWithdrawTransition(data []byte) (*WithdrawTransition, error) {
	var transition WithdrawTransition
	err := s.withdrawTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize WithdrawTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// TransferTransition moves an idle asset between two accounts.
type TransferTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	FromAccountId  *big.Int
	ToAccountId    *big.Int
	AssetId        *big.Int
	Amount         *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*TransferTransition) GetTransitionType() TransitionType {
	return TransitionTypeTransfer
}

func (t *TransferTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createTransferTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "fromAccountId", Type: r.uint256Ty, Indexed: false},
		{Name: "toAccountId", Type: r.uint256Ty, Indexed: false},
		{Name: "assetId", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *TransferTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.transferTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.FromAccountId,
		transition.ToAccountId,
		transition.AssetId,
		transition.Amount,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeTransferTransition(data []byte) (*TransferTransition, error) {
	var transition TransferTransition
	err := s.transferTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize TransferTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// BuyTransition converts an idle asset into strategy shares.
type BuyTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	AccountId      *big.Int
	StrategyId     *big.Int
	Amount         *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*BuyTransition) GetTransitionType() TransitionType {
	return TransitionTypeBuy
}

func (t *BuyTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createBuyTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "strategyId", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *BuyTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.buyTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountId,
		transition.StrategyId,
		transition.Amount,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeBuyTransition(data []byte) (*BuyTransition, error) {
	var transition BuyTransition
	err := s.buyTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize BuyTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// SellTransition redeems strategy shares back into the idle asset.
type SellTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	AccountId      *big.Int
	StrategyId     *big.Int
	Shares         *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*SellTransition) GetTransitionType() TransitionType {
	return TransitionTypeSell
}

func (t *SellTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createSellTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "strategyId", Type: r.uint256Ty, Indexed: false},
		{Name: "shares", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *SellTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.sellTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountId,
		transition.StrategyId,
		transition.Shares,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeSellTransition(data []byte) (*SellTransition, error) {
	var transition SellTransition
	err := s.sellTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize SellTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// StakeTransition locks strategy shares into a staking pool.
type StakeTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	AccountId      *big.Int
	PoolId         *big.Int
	Shares         *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*StakeTransition) GetTransitionType() TransitionType {
	return TransitionTypeStake
}

func (t *StakeTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createStakeTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "poolId", Type: r.uint256Ty, Indexed: false},
		{Name: "shares", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *StakeTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.stakeTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountId,
		transition.PoolId,
		transition.Shares,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeStakeTransition(data []byte) (*StakeTransition, error) {
	var transition StakeTransition
	err := s.stakeTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize StakeTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// UnstakeTransition releases staked shares back to the account.
type UnstakeTransition struct {
	TransitionType *big.Int
	StateRoot      [32]byte
	AccountId      *big.Int
	PoolId         *big.Int
	Shares         *big.Int
	Nonce          *big.Int
	Signature      []byte
}

func (*UnstakeTransition) GetTransitionType() TransitionType {
	return TransitionTypeUnstake
}

func (t *UnstakeTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createUnstakeTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountId", Type: r.uint256Ty, Indexed: false},
		{Name: "poolId", Type: r.uint256Ty, Indexed: false},
		{Name: "shares", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *UnstakeTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.unstakeTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountId,
		transition.PoolId,
		transition.Shares,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeUnstakeTransition(data []byte) (*UnstakeTransition, error) {
	var transition UnstakeTransition
	err := s.unstakeTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize UnstakeTransition, data %v: %w", data, err)
	}
	return &transition, nil
}

// DeserializeTransition dispatches on the leading type tag.
func (s *Serializer) DeserializeTransition(data []byte) (Transition, error) {
	transitionType, err := TransitionTypeOfBytes(data)
	if err != nil {
		return nil, err
	}
	switch transitionType {
	case TransitionTypeInit:
		return s.DeserializeInitTransition(data)
	case TransitionTypeDeposit:
		return s.DeserializeDepositTransition(data)
	case TransitionTypeWithdraw:
		return s.DeserializeWithdrawTransition(data)
	case TransitionTypeTransfer:
		return s.DeserializeTransferTransition(data)
	case TransitionTypeBuy:
		return s.DeserializeBuyTransition(data)
	case TransitionTypeSell:
		return s.DeserializeSellTransition(data)
	case TransitionTypeStake:
		return s.DeserializeStakeTransition(data)
	case TransitionTypeUnstake:
		return s.DeserializeUnstakeTransition(data)
	}
	return nil, fmt.Errorf("Unknown transition type %d", transitionType)
}
