// Package evaluator decodes transitions and deterministically re-executes
// them against supplied partial state. It is the semantics collaborator
// consumed by the dispute verifier; both the block producer and the
// verifier must use its leaf encodings.
package evaluator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celer-network/go-l2-dispute/dispute"
	"github.com/celer-network/go-l2-dispute/registry"
	"github.com/celer-network/go-l2-dispute/types"
	"github.com/celer-network/go-l2-dispute/utils"
)

var (
	errAccountNotFound  = errors.New("account not found")
	errInvalidSignature = errors.New("invalid signature")
	errInvalidNonce     = errors.New("invalid nonce")
	errInsufficient     = errors.New("insufficient balance")
)

// Enforce the dispute contract
var _ dispute.Evaluator = (*TransitionEvaluator)(nil)

type TransitionEvaluator struct {
	serializer *types.Serializer
}

func NewTransitionEvaluator(serializer *types.Serializer) *TransitionEvaluator {
	return &TransitionEvaluator{serializer: serializer}
}

// TransitionStateRootAndAccessIds decodes the post-state commitment and
// the up-to-four identifiers a transition accesses. Pure; no side effects.
func (e *TransitionEvaluator) TransitionStateRootAndAccessIds(data []byte) ([]byte, *dispute.AccessIds, error) {
	transition, err := e.serializer.DeserializeTransition(data)
	if err != nil {
		return nil, nil, err
	}
	stateRoot := stateRootOf(transition)
	ids := &dispute.AccessIds{}
	switch t := transition.(type) {
	case *types.InitTransition:
	case *types.DepositTransition:
		ids.AccountId, err = accessId(t.AccountId)
	case *types.WithdrawTransition:
		ids.AccountId, err = accessId(t.AccountId)
	case *types.TransferTransition:
		if ids.AccountId, err = accessId(t.FromAccountId); err == nil {
			ids.DestAccountId, err = accessId(t.ToAccountId)
		}
	case *types.BuyTransition:
		if ids.AccountId, err = accessId(t.AccountId); err == nil {
			ids.StrategyId, err = accessId(t.StrategyId)
		}
	case *types.SellTransition:
		if ids.AccountId, err = accessId(t.AccountId); err == nil {
			ids.StrategyId, err = accessId(t.StrategyId)
		}
	case *types.StakeTransition:
		if ids.AccountId, err = accessId(t.AccountId); err == nil {
			ids.StakingPoolId, err = accessId(t.PoolId)
		}
	case *types.UnstakeTransition:
		if ids.AccountId, err = accessId(t.AccountId); err == nil {
			ids.StakingPoolId, err = accessId(t.PoolId)
		}
	default:
		return nil, nil, fmt.Errorf("unknown transition %T", transition)
	}
	if err != nil {
		return nil, nil, err
	}
	return stateRoot, ids, nil
}

func stateRootOf(transition types.Transition) []byte {
	stateRoot := transition.GetStateRoot()
	return stateRoot[:]
}

// accessId narrows a decoded uint256 id to a tree index. Ids that do not
// fit make the whole transition undecodable.
func accessId(id *big.Int) (uint64, error) {
	if id == nil || !id.IsUint64() {
		return 0, fmt.Errorf("access id %v out of range", id)
	}
	return id.Uint64(), nil
}

// EvaluateTransition applies one transition to the supplied records and
// returns the new leaf hashes of everything that changed. It fails when
// the transition is semantically invalid against that state; for a
// committed transition such a failure is fraud evidence.
func (e *TransitionEvaluator) EvaluateTransition(
	data []byte,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*dispute.EvaluateResult, error) {
	transition, err := e.serializer.DeserializeTransition(data)
	if err != nil {
		return nil, err
	}
	switch t := transition.(type) {
	case *types.DepositTransition:
		return e.applyDeposit(t, state, reg)
	case *types.WithdrawTransition:
		return e.applyWithdraw(t, state, reg)
	case *types.TransferTransition:
		return e.applyTransfer(t, state)
	case *types.BuyTransition:
		return e.applyBuy(t, state, reg)
	case *types.SellTransition:
		return e.applySell(t, state, reg)
	case *types.StakeTransition:
		return e.applyStake(t, state)
	case *types.UnstakeTransition:
		return e.applyUnstake(t, state)
	}
	return nil, fmt.Errorf("transition %T is not evaluable", transition)
}

func (e *TransitionEvaluator) applyDeposit(
	t *types.DepositTransition,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*dispute.EvaluateResult, error) {
	_, registered, err := reg.AssetAddress(t.AssetId)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, fmt.Errorf("asset %v not registered", t.AssetId)
	}
	if t.Amount.Sign() < 0 {
		return nil, errors.New("negative amount")
	}

	account := state.AccountInfo
	if account.Empty() {
		account = &types.AccountInfo{
			Account:   t.Account,
			AccountId: new(big.Int).Set(t.AccountId),
			Timestamp: big.NewInt(0),
		}
	} else {
		if account.Account != t.Account {
			return nil, fmt.Errorf("deposit for %s against record of %s", t.Account.Hex(), account.Account.Hex())
		}
		account = copyAccountInfo(account)
	}
	assetId := int(t.AssetId.Uint64())
	account.IdleAssets = expandSlice(account.IdleAssets, assetId)
	account.IdleAssets[assetId].Add(account.IdleAssets[assetId], t.Amount)

	accountHash, err := e.AccountInfoHash(account)
	if err != nil {
		return nil, err
	}
	return &dispute.EvaluateResult{AccountHash: accountHash}, nil
}

func (e *TransitionEvaluator) applyWithdraw(
	t *types.WithdrawTransition,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*dispute.EvaluateResult, error) {
	_, registered, err := reg.AssetAddress(t.AssetId)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, fmt.Errorf("asset %v not registered", t.AssetId)
	}
	if state.AccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	account := copyAccountInfo(state.AccountInfo)
	if !utils.SigIsValid(account.Account, t.Signature, WithdrawSigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err = consumeNonce(account, t.Nonce); err != nil {
		return nil, err
	}

	assetId := int(t.AssetId.Uint64())
	total := new(big.Int).Add(t.Amount, t.Fee)
	balance := sliceValue(account.IdleAssets, assetId)
	if t.Amount.Sign() < 0 || balance.Cmp(total) < 0 {
		return nil, errInsufficient
	}
	account.IdleAssets = expandSlice(account.IdleAssets, assetId)
	account.IdleAssets[assetId].Sub(account.IdleAssets[assetId], total)

	result := &dispute.EvaluateResult{}
	result.AccountHash, err = e.AccountInfoHash(account)
	if err != nil {
		return nil, err
	}
	if t.Fee.Sign() > 0 {
		globalInfo := copyGlobalInfo(state.GlobalInfo)
		globalInfo.CollectedFees = expandSlice(globalInfo.CollectedFees, assetId)
		globalInfo.CollectedFees[assetId].Add(globalInfo.CollectedFees[assetId], t.Fee)
		result.GlobalInfoHash, err = e.GlobalInfoHash(globalInfo)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *TransitionEvaluator) applyTransfer(
	t *types.TransferTransition,
	state *dispute.PartialState,
) (*dispute.EvaluateResult, error) {
	// Source and destination resolve to distinct leaves; a transfer onto
	// its own slot has no valid evaluation.
	if t.FromAccountId.Cmp(t.ToAccountId) == 0 {
		return nil, errors.New("transfer within one account")
	}
	if state.AccountInfo.Empty() || state.DestAccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	sender := copyAccountInfo(state.AccountInfo)
	recipient := copyAccountInfo(state.DestAccountInfo)
	if !utils.SigIsValid(sender.Account, t.Signature, TransferSigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err := consumeNonce(sender, t.Nonce); err != nil {
		return nil, err
	}

	assetId := int(t.AssetId.Uint64())
	if t.Amount.Sign() < 0 || sliceValue(sender.IdleAssets, assetId).Cmp(t.Amount) < 0 {
		return nil, errInsufficient
	}
	sender.IdleAssets = expandSlice(sender.IdleAssets, assetId)
	sender.IdleAssets[assetId].Sub(sender.IdleAssets[assetId], t.Amount)
	recipient.IdleAssets = expandSlice(recipient.IdleAssets, assetId)
	recipient.IdleAssets[assetId].Add(recipient.IdleAssets[assetId], t.Amount)

	result := &dispute.EvaluateResult{}
	var err error
	result.AccountHash, err = e.AccountInfoHash(sender)
	if err != nil {
		return nil, err
	}
	result.DestAccountHash, err = e.AccountInfoHash(recipient)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *TransitionEvaluator) applyBuy(
	t *types.BuyTransition,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*dispute.EvaluateResult, error) {
	strategy, err := e.checkStrategy(t.StrategyId, state, reg)
	if err != nil {
		return nil, err
	}
	if state.AccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	account := copyAccountInfo(state.AccountInfo)
	if !utils.SigIsValid(account.Account, t.Signature, BuySigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err = consumeNonce(account, t.Nonce); err != nil {
		return nil, err
	}

	assetId := int(strategy.AssetId.Uint64())
	if t.Amount.Sign() <= 0 || sliceValue(account.IdleAssets, assetId).Cmp(t.Amount) < 0 {
		return nil, errInsufficient
	}
	// Pro-rata share issue; first buy is 1:1.
	shares := new(big.Int).Set(t.Amount)
	if strategy.ShareSupply.Sign() > 0 {
		if strategy.AssetBalance.Sign() == 0 {
			return nil, errors.New("strategy has shares but no assets")
		}
		shares.Mul(t.Amount, strategy.ShareSupply)
		shares.Div(shares, strategy.AssetBalance)
	}

	strategyId := int(t.StrategyId.Uint64())
	account.IdleAssets = expandSlice(account.IdleAssets, assetId)
	account.IdleAssets[assetId].Sub(account.IdleAssets[assetId], t.Amount)
	account.Shares = expandSlice(account.Shares, strategyId)
	account.Shares[strategyId].Add(account.Shares[strategyId], shares)
	strategy.AssetBalance.Add(strategy.AssetBalance, t.Amount)
	strategy.ShareSupply.Add(strategy.ShareSupply, shares)

	return e.accountAndStrategyResult(account, strategy)
}

func (e *TransitionEvaluator) applySell(
	t *types.SellTransition,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*dispute.EvaluateResult, error) {
	strategy, err := e.checkStrategy(t.StrategyId, state, reg)
	if err != nil {
		return nil, err
	}
	if state.AccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	account := copyAccountInfo(state.AccountInfo)
	if !utils.SigIsValid(account.Account, t.Signature, SellSigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err = consumeNonce(account, t.Nonce); err != nil {
		return nil, err
	}

	strategyId := int(t.StrategyId.Uint64())
	if t.Shares.Sign() <= 0 || sliceValue(account.Shares, strategyId).Cmp(t.Shares) < 0 {
		return nil, errInsufficient
	}
	if strategy.ShareSupply.Sign() == 0 {
		return nil, errors.New("strategy has no shares")
	}
	payout := new(big.Int).Mul(t.Shares, strategy.AssetBalance)
	payout.Div(payout, strategy.ShareSupply)

	assetId := int(strategy.AssetId.Uint64())
	account.Shares = expandSlice(account.Shares, strategyId)
	account.Shares[strategyId].Sub(account.Shares[strategyId], t.Shares)
	account.IdleAssets = expandSlice(account.IdleAssets, assetId)
	account.IdleAssets[assetId].Add(account.IdleAssets[assetId], payout)
	strategy.AssetBalance.Sub(strategy.AssetBalance, payout)
	strategy.ShareSupply.Sub(strategy.ShareSupply, t.Shares)

	return e.accountAndStrategyResult(account, strategy)
}

func (e *TransitionEvaluator) applyStake(
	t *types.StakeTransition,
	state *dispute.PartialState,
) (*dispute.EvaluateResult, error) {
	if state.StakingPoolInfo.Empty() {
		return nil, errors.New("staking pool not found")
	}
	if state.AccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	pool := copyStakingPoolInfo(state.StakingPoolInfo)
	account := copyAccountInfo(state.AccountInfo)
	if !utils.SigIsValid(account.Account, t.Signature, StakeSigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err := consumeNonce(account, t.Nonce); err != nil {
		return nil, err
	}

	strategyId := int(pool.StrategyId.Uint64())
	poolId := int(t.PoolId.Uint64())
	if t.Shares.Sign() <= 0 || sliceValue(account.Shares, strategyId).Cmp(t.Shares) < 0 {
		return nil, errInsufficient
	}
	account.Shares = expandSlice(account.Shares, strategyId)
	account.Shares[strategyId].Sub(account.Shares[strategyId], t.Shares)
	account.StakedShares = expandSlice(account.StakedShares, poolId)
	account.StakedShares[poolId].Add(account.StakedShares[poolId], t.Shares)
	pool.TotalShares.Add(pool.TotalShares, t.Shares)

	return e.accountAndPoolResult(account, pool)
}

func (e *TransitionEvaluator) applyUnstake(
	t *types.UnstakeTransition,
	state *dispute.PartialState,
) (*dispute.EvaluateResult, error) {
	if state.StakingPoolInfo.Empty() {
		return nil, errors.New("staking pool not found")
	}
	if state.AccountInfo.Empty() {
		return nil, errAccountNotFound
	}
	pool := copyStakingPoolInfo(state.StakingPoolInfo)
	account := copyAccountInfo(state.AccountInfo)
	if !utils.SigIsValid(account.Account, t.Signature, UnstakeSigMessage(t)) {
		return nil, errInvalidSignature
	}
	if err := consumeNonce(account, t.Nonce); err != nil {
		return nil, err
	}

	strategyId := int(pool.StrategyId.Uint64())
	poolId := int(t.PoolId.Uint64())
	if t.Shares.Sign() <= 0 || sliceValue(account.StakedShares, poolId).Cmp(t.Shares) < 0 {
		return nil, errInsufficient
	}
	if pool.TotalShares.Cmp(t.Shares) < 0 {
		return nil, errors.New("pool share accounting broken")
	}
	account.StakedShares = expandSlice(account.StakedShares, poolId)
	account.StakedShares[poolId].Sub(account.StakedShares[poolId], t.Shares)
	account.Shares = expandSlice(account.Shares, strategyId)
	account.Shares[strategyId].Add(account.Shares[strategyId], t.Shares)
	pool.TotalShares.Sub(pool.TotalShares, t.Shares)

	return e.accountAndPoolResult(account, pool)
}

func (e *TransitionEvaluator) checkStrategy(
	strategyId *big.Int,
	state *dispute.PartialState,
	reg *registry.Registry,
) (*types.StrategyInfo, error) {
	_, registered, err := reg.StrategyAddress(strategyId)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, fmt.Errorf("strategy %v not registered", strategyId)
	}
	if state.StrategyInfo.Empty() {
		return nil, fmt.Errorf("strategy %v has no record", strategyId)
	}
	return copyStrategyInfo(state.StrategyInfo), nil
}

func (e *TransitionEvaluator) accountAndStrategyResult(
	account *types.AccountInfo,
	strategy *types.StrategyInfo,
) (*dispute.EvaluateResult, error) {
	result := &dispute.EvaluateResult{}
	var err error
	result.AccountHash, err = e.AccountInfoHash(account)
	if err != nil {
		return nil, err
	}
	result.StrategyHash, err = e.StrategyInfoHash(strategy)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *TransitionEvaluator) accountAndPoolResult(
	account *types.AccountInfo,
	pool *types.StakingPoolInfo,
) (*dispute.EvaluateResult, error) {
	result := &dispute.EvaluateResult{}
	var err error
	result.AccountHash, err = e.AccountInfoHash(account)
	if err != nil {
		return nil, err
	}
	result.StakingPoolHash, err = e.StakingPoolInfoHash(pool)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// consumeNonce enforces strictly increasing nonces per account, tracked in
// the record's Timestamp field.
func consumeNonce(account *types.AccountInfo, nonce *big.Int) error {
	if nonce == nil || nonce.Cmp(account.Timestamp) <= 0 {
		return errInvalidNonce
	}
	account.Timestamp = new(big.Int).Set(nonce)
	return nil
}

// AccountInfoHash returns the canonical account tree leaf hash. An empty
// record hashes to the default leaf.
func (e *TransitionEvaluator) AccountInfoHash(info *types.AccountInfo) ([]byte, error) {
	if info.Empty() {
		return make([]byte, 32), nil
	}
	data, err := info.Serialize(e.serializer)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(data), nil
}

// StrategyInfoHash returns the canonical strategy tree leaf hash.
func (e *TransitionEvaluator) StrategyInfoHash(info *types.StrategyInfo) ([]byte, error) {
	if info.Empty() {
		return make([]byte, 32), nil
	}
	data, err := info.Serialize(e.serializer)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(data), nil
}

// StakingPoolInfoHash returns the canonical staking pool tree leaf hash.
func (e *TransitionEvaluator) StakingPoolInfoHash(info *types.StakingPoolInfo) ([]byte, error) {
	if info.Empty() {
		return make([]byte, 32), nil
	}
	data, err := info.Serialize(e.serializer)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(data), nil
}

// GlobalInfoHash returns the hash folded into the state commitment as its
// fourth sub-root.
func (e *TransitionEvaluator) GlobalInfoHash(info *types.GlobalInfo) ([]byte, error) {
	if info == nil {
		return nil, errors.New("nil global info")
	}
	data, err := info.Serialize(e.serializer)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(data), nil
}
