package merkle

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-l2-dispute/db/memorydb"
)

func populatedTree(t *testing.T, depth int) *Tree {
	t.Helper()
	tree, err := NewTree(memorydb.NewDB(), namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, depth)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1<<uint(depth); i += 3 {
		if _, err = tree.Update(uint64(i), testLeaf(byte(i))); err != nil {
			t.Fatal(err)
		}
	}
	return tree
}

func TestComputeRootMatchesTree(t *testing.T) {
	tree := populatedTree(t, 4)
	siblings, err := tree.Prove(9)
	if err != nil {
		t.Fatal(err)
	}
	newLeaf := testLeaf(0xaa)
	expected, err := tree.Update(9, newLeaf)
	if err != nil {
		t.Fatal(err)
	}
	computed, err := ComputeRoot(newLeaf, 9, siblings, sha3.NewLegacyKeccak256())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(computed, expected) {
		t.Error("recomputed root does not match the tree after the update")
	}
}

func TestVerifyInclusionRejectsTampering(t *testing.T) {
	tree := populatedTree(t, 4)
	leaf := testLeaf(3)
	if _, err := tree.Update(5, leaf); err != nil {
		t.Fatal(err)
	}
	siblings, err := tree.Prove(5)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyInclusion(tree.Root(), leaf, 5, siblings, sha3.NewLegacyKeccak256()) {
		t.Fatal("valid proof does not verify")
	}

	tamperedLeaf := append([]byte{}, leaf...)
	tamperedLeaf[0] ^= 1
	if VerifyInclusion(tree.Root(), tamperedLeaf, 5, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("accepted a tampered leaf")
	}
	if VerifyInclusion(tree.Root(), leaf, 6, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("accepted a wrong index")
	}
	siblings[2][0] ^= 1
	if VerifyInclusion(tree.Root(), leaf, 5, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("accepted a tampered sibling")
	}
}

func TestComputeRootValidation(t *testing.T) {
	leaf := testLeaf(1)
	if _, err := ComputeRoot(leaf, 0, nil, sha3.NewLegacyKeccak256()); err != ErrDepthRange {
		t.Errorf("expected ErrDepthRange, got %v", err)
	}
	siblings := [][]byte{testLeaf(2), testLeaf(3)}
	if _, err := ComputeRoot(leaf, 4, siblings, sha3.NewLegacyKeccak256()); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := ComputeRoot([]byte("short"), 0, siblings, sha3.NewLegacyKeccak256()); err != ErrNodeSize {
		t.Errorf("expected ErrNodeSize, got %v", err)
	}
	if _, err := ComputeRoot(leaf, 0, [][]byte{testLeaf(2), []byte("short")}, sha3.NewLegacyKeccak256()); err != ErrNodeSize {
		t.Errorf("expected ErrNodeSize, got %v", err)
	}
}

func TestComputeRootTwoLeaves(t *testing.T) {
	pairs := [][2]uint64{
		{2, 3}, // siblings at the leaf level
		{4, 5},
		{1, 6},  // merge one level below the root
		{0, 15}, // merge at the root
		{15, 0}, // order must not matter
	}
	for _, pair := range pairs {
		indexA, indexB := pair[0], pair[1]
		tree := populatedTree(t, 4)
		siblingsA, err := tree.Prove(indexA)
		if err != nil {
			t.Fatal(err)
		}
		siblingsB, err := tree.Prove(indexB)
		if err != nil {
			t.Fatal(err)
		}
		leafA := testLeaf(0xa0 + byte(indexA))
		leafB := testLeaf(0xb0 + byte(indexB))
		if _, err = tree.Update(indexA, leafA); err != nil {
			t.Fatal(err)
		}
		expected, err := tree.Update(indexB, leafB)
		if err != nil {
			t.Fatal(err)
		}
		computed, err := ComputeRootTwoLeaves(
			leafA, leafB, indexA, indexB, siblingsA, siblingsB, sha3.NewLegacyKeccak256())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(computed, expected) {
			t.Errorf("two-leaf root for (%d, %d) does not match sequential updates", indexA, indexB)
		}
	}
}

func TestComputeRootTwoLeavesValidation(t *testing.T) {
	tree := populatedTree(t, 4)
	siblings, err := tree.Prove(2)
	if err != nil {
		t.Fatal(err)
	}
	leaf := testLeaf(1)
	_, err = ComputeRootTwoLeaves(leaf, leaf, 2, 2, siblings, siblings, sha3.NewLegacyKeccak256())
	if err != ErrSameIndex {
		t.Errorf("expected ErrSameIndex, got %v", err)
	}
	short := siblings[:3]
	_, err = ComputeRootTwoLeaves(leaf, leaf, 2, 3, siblings, short, sha3.NewLegacyKeccak256())
	if err != ErrDepthMismatch {
		t.Errorf("expected ErrDepthMismatch, got %v", err)
	}
	_, err = ComputeRootTwoLeaves(leaf, leaf, 2, 16, siblings, siblings, sha3.NewLegacyKeccak256())
	if err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}
