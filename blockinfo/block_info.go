// Package blockinfo builds the per-block transition tree a dispute needs
// proofs against. Committed blocks only carry their root; this package
// reconstructs the tree from the block's transitions so inclusion proofs
// for any position can be produced on demand.
package blockinfo

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-l2-dispute/db"
	"github.com/celer-network/go-l2-dispute/db/memorydb"
	"github.com/celer-network/go-l2-dispute/dispute"
	"github.com/celer-network/go-l2-dispute/merkle"
	"github.com/celer-network/go-l2-dispute/types"
)

type BlockInfo struct {
	blockId            uint64
	encodedTransitions [][]byte
	tree               *merkle.Tree
}

func NewBlockInfo(serializer *types.Serializer, blockId uint64, transitions []types.Transition) (*BlockInfo, error) {
	if len(transitions) == 0 {
		return nil, fmt.Errorf("block %d has no transitions", blockId)
	}
	tree, err := merkle.NewTree(
		memorydb.NewDB(),
		db.NamespaceTransitionTrie,
		sha3.NewLegacyKeccak256(),
		nil,
		treeDepth(len(transitions)),
	)
	if err != nil {
		return nil, err
	}
	encodedTransitions := make([][]byte, len(transitions))
	for i, transition := range transitions {
		encoded, err := transition.Serialize(serializer)
		if err != nil {
			return nil, err
		}
		encodedTransitions[i] = encoded
		_, err = tree.Update(uint64(i), dispute.HashTransition(encoded))
		if err != nil {
			return nil, err
		}
	}
	return &BlockInfo{
		blockId:            blockId,
		encodedTransitions: encodedTransitions,
		tree:               tree,
	}, nil
}

func (info *BlockInfo) NumTransitions() int {
	return len(info.encodedTransitions)
}

func (info *BlockInfo) EncodedTransition(index int) []byte {
	return info.encodedTransitions[index]
}

// Block returns the header a sequencer would commit for these transitions.
func (info *BlockInfo) Block() *types.Block {
	return &types.Block{
		BlockId:   info.blockId,
		Root:      info.tree.Root(),
		BlockSize: uint64(len(info.encodedTransitions)),
	}
}

// TransitionProof returns the transition at index together with its
// inclusion proof against this block's root.
func (info *BlockInfo) TransitionProof(index int) (*types.TransitionProof, error) {
	if index < 0 || index >= len(info.encodedTransitions) {
		return nil, fmt.Errorf("transition index %d out of range [0, %d)", index, len(info.encodedTransitions))
	}
	siblings, err := info.tree.Prove(uint64(index))
	if err != nil {
		return nil, err
	}
	return &types.TransitionProof{
		BlockId:    info.blockId,
		Index:      uint64(index),
		Transition: info.encodedTransitions[index],
		Siblings:   siblings,
	}, nil
}

// treeDepth picks the smallest depth holding n leaves, with a floor of 1
// so single-transition blocks still produce non-degenerate proofs.
func treeDepth(n int) int {
	depth := 1
	for 1<<uint(depth) < n {
		depth++
	}
	return depth
}
