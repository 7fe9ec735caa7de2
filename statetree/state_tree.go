// Package statetree maintains the three state sub-trees plus the global
// info record, and produces the partial-state proofs a challenger submits
// with a dispute. The verifier itself never holds this state; this is the
// prover side.
package statetree

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	disputedb "github.com/celer-network/go-l2-dispute/db"
	"github.com/celer-network/go-l2-dispute/dispute"
	"github.com/celer-network/go-l2-dispute/merkle"
	"github.com/celer-network/go-l2-dispute/types"
)

// Tree depths are protocol constants. Record slot ids double as leaf
// indices, so the account space is deliberately the largest.
const (
	AccountTreeDepth     = 32
	StrategyTreeDepth    = 10
	StakingPoolTreeDepth = 10
)

type StateTree struct {
	evaluator  dispute.Evaluator
	accounts   *merkle.Tree
	strategies *merkle.Tree
	pools      *merkle.Tree

	accountRecords  map[uint64]*types.AccountInfo
	strategyRecords map[uint64]*types.StrategyInfo
	poolRecords     map[uint64]*types.StakingPoolInfo
	globalInfo      *types.GlobalInfo
}

func NewStateTree(database disputedb.DB, evaluator dispute.Evaluator) (*StateTree, error) {
	accounts, err := merkle.NewTree(
		database, disputedb.NamespaceAccountTrie, sha3.NewLegacyKeccak256(), nil, AccountTreeDepth)
	if err != nil {
		return nil, err
	}
	strategies, err := merkle.NewTree(
		database, disputedb.NamespaceStrategyTrie, sha3.NewLegacyKeccak256(), nil, StrategyTreeDepth)
	if err != nil {
		return nil, err
	}
	pools, err := merkle.NewTree(
		database, disputedb.NamespaceStakingPoolTrie, sha3.NewLegacyKeccak256(), nil, StakingPoolTreeDepth)
	if err != nil {
		return nil, err
	}
	return &StateTree{
		evaluator:       evaluator,
		accounts:        accounts,
		strategies:      strategies,
		pools:           pools,
		accountRecords:  make(map[uint64]*types.AccountInfo),
		strategyRecords: make(map[uint64]*types.StrategyInfo),
		poolRecords:     make(map[uint64]*types.StakingPoolInfo),
		globalInfo:      EmptyGlobalInfo(),
	}, nil
}

func (s *StateTree) SetAccountInfo(id uint64, info *types.AccountInfo) error {
	leaf, err := s.evaluator.AccountInfoHash(info)
	if err != nil {
		return err
	}
	if _, err = s.accounts.Update(id, leaf); err != nil {
		return err
	}
	s.accountRecords[id] = info
	return nil
}

func (s *StateTree) SetStrategyInfo(id uint64, info *types.StrategyInfo) error {
	leaf, err := s.evaluator.StrategyInfoHash(info)
	if err != nil {
		return err
	}
	if _, err = s.strategies.Update(id, leaf); err != nil {
		return err
	}
	s.strategyRecords[id] = info
	return nil
}

func (s *StateTree) SetStakingPoolInfo(id uint64, info *types.StakingPoolInfo) error {
	leaf, err := s.evaluator.StakingPoolInfoHash(info)
	if err != nil {
		return err
	}
	if _, err = s.pools.Update(id, leaf); err != nil {
		return err
	}
	s.poolRecords[id] = info
	return nil
}

func (s *StateTree) SetGlobalInfo(info *types.GlobalInfo) {
	s.globalInfo = info
}

func (s *StateTree) AccountInfo(id uint64) *types.AccountInfo {
	return s.accountRecords[id]
}

func (s *StateTree) GlobalInfo() *types.GlobalInfo {
	return s.globalInfo
}

// AccountProof proves the current record at id under the account root. An
// untouched slot yields a nil Value, which hashes to the default leaf.
func (s *StateTree) AccountProof(id uint64) (*types.AccountProof, error) {
	siblings, err := s.accounts.Prove(id)
	if err != nil {
		return nil, err
	}
	return &types.AccountProof{
		StateRoot: s.accounts.Root(),
		Value:     s.accountRecords[id],
		Index:     id,
		Siblings:  siblings,
	}, nil
}

func (s *StateTree) StrategyProof(id uint64) (*types.StrategyProof, error) {
	siblings, err := s.strategies.Prove(id)
	if err != nil {
		return nil, err
	}
	return &types.StrategyProof{
		StateRoot: s.strategies.Root(),
		Value:     s.strategyRecords[id],
		Index:     id,
		Siblings:  siblings,
	}, nil
}

func (s *StateTree) StakingPoolProof(id uint64) (*types.StakingPoolProof, error) {
	siblings, err := s.pools.Prove(id)
	if err != nil {
		return nil, err
	}
	return &types.StakingPoolProof{
		StateRoot: s.pools.Root(),
		Value:     s.poolRecords[id],
		Index:     id,
		Siblings:  siblings,
	}, nil
}

// StateRoot composes the current state commitment.
func (s *StateTree) StateRoot() ([]byte, error) {
	globalInfoHash, err := s.evaluator.GlobalInfoHash(s.globalInfo)
	if err != nil {
		return nil, err
	}
	return dispute.ComposeStateCommitment(
		s.accounts.Root(),
		s.strategies.Root(),
		s.pools.Root(),
		globalInfoHash,
	), nil
}

// EmptyGlobalInfo returns the genesis global record.
func EmptyGlobalInfo() *types.GlobalInfo {
	return &types.GlobalInfo{
		CurrEpoch:     big.NewInt(0),
		CollectedFees: []*big.Int{},
	}
}

// EmptyStateRoot returns the genesis state commitment the init transition
// must declare.
func EmptyStateRoot(evaluator dispute.Evaluator) ([]byte, error) {
	globalInfoHash, err := evaluator.GlobalInfoHash(EmptyGlobalInfo())
	if err != nil {
		return nil, err
	}
	return dispute.ComposeStateCommitment(
		merkle.EmptyTreeRoot(sha3.NewLegacyKeccak256(), AccountTreeDepth),
		merkle.EmptyTreeRoot(sha3.NewLegacyKeccak256(), StrategyTreeDepth),
		merkle.EmptyTreeRoot(sha3.NewLegacyKeccak256(), StakingPoolTreeDepth),
		globalInfoHash,
	), nil
}
