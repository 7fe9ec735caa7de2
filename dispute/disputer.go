// Package dispute implements the fraud-proof verifier of the rollup: it
// decides whether one committed transition, given its proven predecessor
// and proven partial state, produced the post-state commitment its block
// claims.
package dispute

import (
	"bytes"
	"errors"
	"fmt"
	"hash"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-l2-dispute/merkle"
	"github.com/celer-network/go-l2-dispute/registry"
	"github.com/celer-network/go-l2-dispute/types"
)

// Terminal outcomes of a dispute. Everything except OutcomeNoFraudDetected
// proves the disputed transition invalid; a malformed dispute returns an
// error instead.
const (
	OutcomeInvalidInitTransition = "invalid-init-transition"
	OutcomeInvalidEncoding       = "invalid-encoding"
	OutcomeInvalidAccountId      = "invalid-account-id"
	OutcomeInvalidPostStateRoot  = "invalid-post-state-root"
	OutcomeFailedToEvaluate      = "failed-to-evaluate"
	OutcomeNoFraudDetected       = "no-fraud-detected"
)

// ErrMalformedDispute marks caller errors: the dispute is rejected without
// deciding anything about the transition. Discriminate with errors.Is.
var ErrMalformedDispute = errors.New("malformed dispute")

// ErrNoAccountUpdate is returned when re-execution changed no account
// leaf, which no currently known transition type can legitimately do.
var ErrNoAccountUpdate = fmt.Errorf("%w: transition changed no account leaf", ErrMalformedDispute)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedDispute, fmt.Sprintf(format, args...))
}

// DisputeInput bundles everything a challenger submits: the adjacent
// transition proofs with their blocks, and the partial-state proofs the
// disputed transition touches. The strategy and staking pool proofs carry
// the pre-state sub-roots even when the transition does not touch them.
type DisputeInput struct {
	PrevTransitionProof     *types.TransitionProof
	DisputedTransitionProof *types.TransitionProof
	PrevBlock               *types.Block
	DisputedBlock           *types.Block
	AccountProofs           []*types.AccountProof
	StrategyProof           *types.StrategyProof
	StakingPoolProof        *types.StakingPoolProof
	GlobalInfo              *types.GlobalInfo
}

// disputeStateInfo is scratch data decoded per dispute.
type disputeStateInfo struct {
	preStateRoot  []byte
	postStateRoot []byte
	ids           *AccessIds
	disputed      types.Transition
}

// TransitionDisputer is the dispute verifier. The evaluator and the
// init state commitment are bound at construction and read-only after.
type TransitionDisputer struct {
	evaluator     Evaluator
	serializer    *types.Serializer
	initStateRoot []byte
}

func NewTransitionDisputer(
	evaluator Evaluator,
	serializer *types.Serializer,
	initStateRoot []byte,
) *TransitionDisputer {
	return &TransitionDisputer{
		evaluator:     evaluator,
		serializer:    serializer,
		initStateRoot: initStateRoot,
	}
}

// DisputeTransition runs the dispute decision procedure and returns one of
// the outcome strings, or an error wrapping ErrMalformedDispute when the
// dispute itself is invalid. It never mutates anything.
func (d *TransitionDisputer) DisputeTransition(input *DisputeInput, reg *registry.Registry) (string, error) {
	if input == nil || input.PrevTransitionProof == nil || input.DisputedTransitionProof == nil ||
		input.PrevBlock == nil || input.DisputedBlock == nil ||
		input.StrategyProof == nil || input.StakingPoolProof == nil || input.GlobalInfo == nil {
		return "", malformed("incomplete dispute input")
	}
	if len(input.AccountProofs) == 0 {
		return "", malformed("at least one account proof is required")
	}

	disputed := input.DisputedTransitionProof
	if disputed.BlockId == 0 && disputed.Index == 0 {
		return d.disputeInitTransition(disputed, input.DisputedBlock)
	}

	err := VerifySequentialTransitions(input.PrevTransitionProof, disputed, input.PrevBlock, input.DisputedBlock)
	if err != nil {
		return "", err
	}

	stateInfo, ok := d.decodeStateInfo(input.PrevTransitionProof.Transition, disputed.Transition)
	if !ok {
		log.Info().
			Uint64("blockId", disputed.BlockId).
			Uint64("index", disputed.Index).
			Msg("Disputed transition failed to decode")
		return OutcomeInvalidEncoding, nil
	}
	ids := stateInfo.ids

	if ids.AccountId == 0 {
		return "", malformed("transition references no account")
	}
	expectedProofs := 1
	if ids.DestAccountId != 0 {
		expectedProofs = 2
	}
	if len(input.AccountProofs) != expectedProofs {
		return "", malformed("expected %d account proofs, got %d", expectedProofs, len(input.AccountProofs))
	}

	accountRoot := input.AccountProofs[0].StateRoot
	for _, proof := range input.AccountProofs[1:] {
		if !bytes.Equal(proof.StateRoot, accountRoot) {
			return "", malformed("account proofs disagree on the account sub-tree root")
		}
	}
	globalInfoHash, err := d.evaluator.GlobalInfoHash(input.GlobalInfo)
	if err != nil {
		return "", malformed("hash global info: %v", err)
	}
	if !VerifyStateCommitment(
		stateInfo.preStateRoot,
		accountRoot,
		input.StrategyProof.StateRoot,
		input.StakingPoolProof.StateRoot,
		globalInfoHash,
	) {
		return "", malformed("pre-state commitment does not decompose into the supplied sub-roots")
	}

	for _, proof := range input.AccountProofs {
		leaf, hashErr := d.evaluator.AccountInfoHash(proof.Value)
		if hashErr != nil {
			return "", malformed("hash account record: %v", hashErr)
		}
		if !merkle.VerifyInclusion(proof.StateRoot, leaf, proof.Index, proof.Siblings, newHasher()) {
			return "", malformed("account record at index %d not included under the account root", proof.Index)
		}
	}
	if ids.StrategyId != 0 {
		leaf, hashErr := d.evaluator.StrategyInfoHash(input.StrategyProof.Value)
		if hashErr != nil {
			return "", malformed("hash strategy record: %v", hashErr)
		}
		if !merkle.VerifyInclusion(
			input.StrategyProof.StateRoot, leaf,
			input.StrategyProof.Index, input.StrategyProof.Siblings, newHasher(),
		) {
			return "", malformed("strategy record at index %d not included under the strategy root", input.StrategyProof.Index)
		}
	}
	if ids.StakingPoolId != 0 {
		leaf, hashErr := d.evaluator.StakingPoolInfoHash(input.StakingPoolProof.Value)
		if hashErr != nil {
			return "", malformed("hash staking pool record: %v", hashErr)
		}
		if !merkle.VerifyInclusion(
			input.StakingPoolProof.StateRoot, leaf,
			input.StakingPoolProof.Index, input.StakingPoolProof.Siblings, newHasher(),
		) {
			return "", malformed("staking pool record at index %d not included under the pool root", input.StakingPoolProof.Index)
		}
	}

	// A deposit that declares a different id for an address whose record
	// is proven under another id is an id-spoofing attempt.
	if deposit, ok := stateInfo.disputed.(*types.DepositTransition); ok {
		value := input.AccountProofs[0].Value
		if !value.Empty() && value.Account == deposit.Account && value.AccountId.Cmp(deposit.AccountId) != 0 {
			log.Info().
				Str("account", deposit.Account.Hex()).
				Msg("Deposit declares a wrong id for a proven account")
			return OutcomeInvalidAccountId, nil
		}
	}

	if input.AccountProofs[0].Index != ids.AccountId {
		return "", malformed("account proof is for index %d, transition accesses %d",
			input.AccountProofs[0].Index, ids.AccountId)
	}
	if expectedProofs == 2 && input.AccountProofs[1].Index != ids.DestAccountId {
		return "", malformed("destination account proof is for index %d, transition accesses %d",
			input.AccountProofs[1].Index, ids.DestAccountId)
	}
	if ids.StrategyId != 0 && input.StrategyProof.Index != ids.StrategyId {
		return "", malformed("strategy proof is for index %d, transition accesses %d",
			input.StrategyProof.Index, ids.StrategyId)
	}
	if ids.StakingPoolId != 0 && input.StakingPoolProof.Index != ids.StakingPoolId {
		return "", malformed("staking pool proof is for index %d, transition accesses %d",
			input.StakingPoolProof.Index, ids.StakingPoolId)
	}

	state := &PartialState{
		AccountInfo: input.AccountProofs[0].Value,
		GlobalInfo:  input.GlobalInfo,
	}
	if expectedProofs == 2 {
		state.DestAccountInfo = input.AccountProofs[1].Value
	}
	if ids.StrategyId != 0 {
		state.StrategyInfo = input.StrategyProof.Value
	}
	if ids.StakingPoolId != 0 {
		state.StakingPoolInfo = input.StakingPoolProof.Value
	}
	result, err := d.evaluator.EvaluateTransition(disputed.Transition, state, reg)
	if err != nil {
		log.Info().Err(err).
			Uint64("blockId", disputed.BlockId).
			Uint64("index", disputed.Index).
			Msg("Disputed transition failed to evaluate")
		return OutcomeFailedToEvaluate, nil
	}

	newAccountRoot, err := d.recomputeAccountRoot(input.AccountProofs, result)
	if err != nil {
		return "", err
	}
	newStrategyRoot := input.StrategyProof.StateRoot
	if result.StrategyHash != nil {
		newStrategyRoot, err = merkle.ComputeRoot(
			result.StrategyHash, input.StrategyProof.Index, input.StrategyProof.Siblings, newHasher())
		if err != nil {
			return "", malformed("recompute strategy root: %v", err)
		}
	}
	newStakingPoolRoot := input.StakingPoolProof.StateRoot
	if result.StakingPoolHash != nil {
		newStakingPoolRoot, err = merkle.ComputeRoot(
			result.StakingPoolHash, input.StakingPoolProof.Index, input.StakingPoolProof.Siblings, newHasher())
		if err != nil {
			return "", malformed("recompute staking pool root: %v", err)
		}
	}
	newGlobalInfoHash := globalInfoHash
	if result.GlobalInfoHash != nil {
		newGlobalInfoHash = result.GlobalInfoHash
	}

	recomputed := ComposeStateCommitment(newAccountRoot, newStrategyRoot, newStakingPoolRoot, newGlobalInfoHash)
	if !bytes.Equal(recomputed, stateInfo.postStateRoot) {
		log.Info().
			Uint64("blockId", disputed.BlockId).
			Uint64("index", disputed.Index).
			Msg("Post-state commitment mismatch, fraud proven")
		return OutcomeInvalidPostStateRoot, nil
	}
	return OutcomeNoFraudDetected, nil
}

// disputeInitTransition checks the very first transition against the
// well-known empty-state commitment; it has no predecessor to chain from.
func (d *TransitionDisputer) disputeInitTransition(proof *types.TransitionProof, block *types.Block) (string, error) {
	if !CheckTransitionInclusion(proof, block) {
		return "", malformed("init transition not included in block 0")
	}
	postStateRoot, _, err := d.evaluator.TransitionStateRootAndAccessIds(proof.Transition)
	if err != nil {
		// An undecodable init transition is itself invalid.
		return OutcomeInvalidInitTransition, nil
	}
	if !bytes.Equal(postStateRoot, d.initStateRoot) {
		return OutcomeInvalidInitTransition, nil
	}
	return OutcomeNoFraudDetected, nil
}

func (d *TransitionDisputer) decodeStateInfo(prevTransition, disputedTransition []byte) (*disputeStateInfo, bool) {
	preStateRoot, _, err := d.evaluator.TransitionStateRootAndAccessIds(prevTransition)
	if err != nil {
		return nil, false
	}
	postStateRoot, ids, err := d.evaluator.TransitionStateRootAndAccessIds(disputedTransition)
	if err != nil {
		return nil, false
	}
	decoded, err := d.serializer.DeserializeTransition(disputedTransition)
	if err != nil {
		return nil, false
	}
	return &disputeStateInfo{
		preStateRoot:  preStateRoot,
		postStateRoot: postStateRoot,
		ids:           ids,
		disputed:      decoded,
	}, true
}

func (d *TransitionDisputer) recomputeAccountRoot(proofs []*types.AccountProof, result *EvaluateResult) ([]byte, error) {
	if result.DestAccountHash != nil && len(proofs) < 2 {
		return nil, malformed("evaluation touched a destination account without a proof")
	}
	var newRoot []byte
	var err error
	switch {
	case result.AccountHash != nil && result.DestAccountHash != nil:
		newRoot, err = merkle.ComputeRootTwoLeaves(
			result.AccountHash, result.DestAccountHash,
			proofs[0].Index, proofs[1].Index,
			proofs[0].Siblings, proofs[1].Siblings,
			newHasher(),
		)
	case result.AccountHash != nil:
		newRoot, err = merkle.ComputeRoot(result.AccountHash, proofs[0].Index, proofs[0].Siblings, newHasher())
	case result.DestAccountHash != nil:
		newRoot, err = merkle.ComputeRoot(result.DestAccountHash, proofs[1].Index, proofs[1].Siblings, newHasher())
	default:
		return nil, ErrNoAccountUpdate
	}
	if err != nil {
		return nil, malformed("recompute account root: %v", err)
	}
	return newRoot, nil
}

func newHasher() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

func hashTransition(data []byte) []byte {
	hasher := newHasher()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// HashTransition returns the block tree leaf hash of an encoded
// transition.
func HashTransition(data []byte) []byte {
	return hashTransition(data)
}
