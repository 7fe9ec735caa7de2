package dispute

import (
	"github.com/celer-network/go-l2-dispute/registry"
	"github.com/celer-network/go-l2-dispute/types"
)

// AccessIds are the identifiers a transition operates on, decoded from its
// payload. 0 means not applicable.
type AccessIds struct {
	AccountId     uint64
	DestAccountId uint64
	StrategyId    uint64
	StakingPoolId uint64
}

// PartialState bundles the proven records a transition is re-executed
// against. DestAccountInfo, StrategyInfo and StakingPoolInfo are nil when
// the transition does not touch them.
type PartialState struct {
	AccountInfo     *types.AccountInfo
	DestAccountInfo *types.AccountInfo
	StrategyInfo    *types.StrategyInfo
	StakingPoolInfo *types.StakingPoolInfo
	GlobalInfo      *types.GlobalInfo
}

// EvaluateResult holds the new leaf hashes produced by re-executing a
// transition. A nil slot means the record did not change.
type EvaluateResult struct {
	AccountHash     []byte
	DestAccountHash []byte
	StrategyHash    []byte
	StakingPoolHash []byte
	GlobalInfoHash  []byte
}

// Evaluator decodes and deterministically applies transition semantics.
// It is bound once at disputer construction. Decode must be pure;
// EvaluateTransition may fail, and such a failure proves the transition
// invalid.
type Evaluator interface {
	TransitionStateRootAndAccessIds(transition []byte) ([]byte, *AccessIds, error)
	EvaluateTransition(transition []byte, state *PartialState, reg *registry.Registry) (*EvaluateResult, error)
	AccountInfoHash(info *types.AccountInfo) ([]byte, error)
	StrategyInfoHash(info *types.StrategyInfo) ([]byte, error)
	StakingPoolInfoHash(info *types.StakingPoolInfo) ([]byte, error)
	GlobalInfoHash(info *types.GlobalInfo) ([]byte, error)
}
