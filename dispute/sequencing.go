package dispute

import (
	"github.com/celer-network/go-l2-dispute/merkle"
	"github.com/celer-network/go-l2-dispute/types"
)

// VerifySequentialTransitions checks that prev and disputed are strictly
// adjacent, either inside one block or across a block boundary, and that
// each is included in its claimed block. Any failure makes the whole
// dispute malformed.
func VerifySequentialTransitions(
	prev *types.TransitionProof,
	disputed *types.TransitionProof,
	prevBlock *types.Block,
	disputedBlock *types.Block,
) error {
	if prev.BlockId == disputed.BlockId {
		if disputed.Index != prev.Index+1 {
			return malformed("transitions in block %d are not consecutive: %d then %d",
				prev.BlockId, prev.Index, disputed.Index)
		}
		if disputed.Index >= disputedBlock.BlockSize {
			return malformed("disputed index %d out of block size %d",
				disputed.Index, disputedBlock.BlockSize)
		}
	} else {
		if disputed.BlockId != prev.BlockId+1 {
			return malformed("blocks %d and %d are not adjacent", prev.BlockId, disputed.BlockId)
		}
		if prevBlock.BlockSize == 0 || prev.Index != prevBlock.BlockSize-1 {
			return malformed("prev transition %d is not the last of block %d", prev.Index, prev.BlockId)
		}
		if disputed.Index != 0 {
			return malformed("disputed transition %d is not the first of block %d",
				disputed.Index, disputed.BlockId)
		}
	}
	if !CheckTransitionInclusion(prev, prevBlock) {
		return malformed("prev transition not included in block %d", prev.BlockId)
	}
	if !CheckTransitionInclusion(disputed, disputedBlock) {
		return malformed("disputed transition not included in block %d", disputed.BlockId)
	}
	return nil
}

// CheckTransitionInclusion verifies the Merkle inclusion of the proof's
// transition, by its hash, at its claimed index under the block root.
func CheckTransitionInclusion(proof *types.TransitionProof, block *types.Block) bool {
	if proof.BlockId != block.BlockId {
		return false
	}
	if proof.Index >= block.BlockSize {
		return false
	}
	leaf := hashTransition(proof.Transition)
	return merkle.VerifyInclusion(block.Root, leaf, proof.Index, proof.Siblings, newHasher())
}
