// Package merkle implements fixed-depth binary Merkle trees over
// position-indexed leaves, with inclusion proofs and root recomputation
// after single- and two-leaf updates.
package merkle

import (
	"bytes"
	"errors"
	"hash"
)

// maxDepth bounds tree depth so leaf positions fit in a uint64.
const maxDepth = 63

var (
	ErrDepthRange      = errors.New("tree depth out of range")
	ErrDepthMismatch   = errors.New("sibling paths have different lengths")
	ErrIndexOutOfRange = errors.New("leaf index out of range for tree depth")
	ErrNodeSize        = errors.New("node size does not match hasher size")
	ErrSameIndex       = errors.New("leaf indices must differ")
)

// VerifyInclusion checks that leafHash sits at index under root. The tree
// depth is implied by the sibling path length; siblings are ordered leaf
// level first.
func VerifyInclusion(root []byte, leafHash []byte, index uint64, siblings [][]byte, hasher hash.Hash) bool {
	computed, err := ComputeRoot(leafHash, index, siblings, hasher)
	if err != nil {
		return false
	}
	return bytes.Equal(computed, root)
}

// ComputeRoot folds leafHash up the sibling path, choosing left/right
// concatenation by the index bits, and returns the resulting root.
func ComputeRoot(leafHash []byte, index uint64, siblings [][]byte, hasher hash.Hash) ([]byte, error) {
	depth := len(siblings)
	if depth == 0 || depth > maxDepth {
		return nil, ErrDepthRange
	}
	if index>>uint(depth) != 0 {
		return nil, ErrIndexOutOfRange
	}
	size := hasher.Size()
	if len(leafHash) != size {
		return nil, ErrNodeSize
	}

	current := make([]byte, size)
	copy(current, leafHash)
	for i, sibling := range siblings {
		if len(sibling) != size {
			return nil, ErrNodeSize
		}
		if (index>>uint(i))&1 == 0 {
			current = digest(hasher, current, sibling)
		} else {
			current = digest(hasher, sibling, current)
		}
	}
	return current, nil
}

// ComputeRootTwoLeaves returns the root after replacing two leaves of the
// same tree in one pass. Both sibling paths must come from the same
// pre-update tree. Below the level where the two index paths merge each
// leaf folds with its own siblings, at the merge level the two running
// hashes are siblings of each other, and above it the fold continues with
// the first path's siblings.
func ComputeRootTwoLeaves(
	leafHashA []byte,
	leafHashB []byte,
	indexA uint64,
	indexB uint64,
	siblingsA [][]byte,
	siblingsB [][]byte,
	hasher hash.Hash,
) ([]byte, error) {
	depth := len(siblingsA)
	if depth == 0 || depth > maxDepth {
		return nil, ErrDepthRange
	}
	if len(siblingsB) != depth {
		return nil, ErrDepthMismatch
	}
	if indexA>>uint(depth) != 0 || indexB>>uint(depth) != 0 {
		return nil, ErrIndexOutOfRange
	}
	if indexA == indexB {
		return nil, ErrSameIndex
	}
	size := hasher.Size()
	if len(leafHashA) != size || len(leafHashB) != size {
		return nil, ErrNodeSize
	}

	currentA := make([]byte, size)
	copy(currentA, leafHashA)
	currentB := make([]byte, size)
	copy(currentB, leafHashB)
	pathA, pathB := indexA, indexB

	for level := 0; level < depth; level++ {
		if pathA>>1 == pathB>>1 {
			// The two subtrees are siblings at this level. Join them and
			// finish the fold along the first path.
			if pathA&1 == 0 {
				currentA = digest(hasher, currentA, currentB)
			} else {
				currentA = digest(hasher, currentB, currentA)
			}
			pathA >>= 1
			for upper := level + 1; upper < depth; upper++ {
				sibling := siblingsA[upper]
				if len(sibling) != size {
					return nil, ErrNodeSize
				}
				if pathA&1 == 0 {
					currentA = digest(hasher, currentA, sibling)
				} else {
					currentA = digest(hasher, sibling, currentA)
				}
				pathA >>= 1
			}
			return currentA, nil
		}
		if len(siblingsA[level]) != size || len(siblingsB[level]) != size {
			return nil, ErrNodeSize
		}
		if pathA&1 == 0 {
			currentA = digest(hasher, currentA, siblingsA[level])
		} else {
			currentA = digest(hasher, siblingsA[level], currentA)
		}
		if pathB&1 == 0 {
			currentB = digest(hasher, currentB, siblingsB[level])
		} else {
			currentB = digest(hasher, siblingsB[level], currentB)
		}
		pathA >>= 1
		pathB >>= 1
	}

	// Distinct in-range indices always merge by the top level.
	return nil, ErrIndexOutOfRange
}

func digest(hasher hash.Hash, data ...[]byte) []byte {
	hasher.Reset()
	for _, d := range data {
		hasher.Write(d)
	}
	sum := hasher.Sum(nil)
	hasher.Reset()
	return sum
}
