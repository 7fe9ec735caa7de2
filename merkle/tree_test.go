package merkle

import (
	"bytes"
	"testing"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-l2-dispute/db/memorydb"
)

var namespaceTestTrie = []byte("tt")

func testLeaf(i byte) []byte {
	return digest(sha3.NewLegacyKeccak256(), []byte{i})
}

func TestTreeUpdateAndProve(t *testing.T) {
	db := memorydb.NewDB()
	tree, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := byte(0); i < 6; i++ {
		_, err = tree.Update(uint64(i), testLeaf(i))
		if err != nil {
			t.Fatal(err)
		}
	}
	for i := byte(0); i < 6; i++ {
		leaf, leafErr := tree.Leaf(uint64(i))
		if leafErr != nil {
			t.Fatal(leafErr)
		}
		if !bytes.Equal(leaf, testLeaf(i)) {
			t.Errorf("leaf %d does not round-trip", i)
		}
		siblings, proveErr := tree.Prove(uint64(i))
		if proveErr != nil {
			t.Fatal(proveErr)
		}
		if len(siblings) != 4 {
			t.Errorf("expected 4 siblings, got %d", len(siblings))
		}
		if !VerifyInclusion(tree.Root(), testLeaf(i), uint64(i), siblings, sha3.NewLegacyKeccak256()) {
			t.Errorf("inclusion proof for leaf %d does not verify", i)
		}
	}

	// Untouched positions still prove the default leaf.
	leaf, err := tree.Leaf(12)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(leaf, DefaultLeaf(sha3.NewLegacyKeccak256())) {
		t.Error("untouched position does not hold the default leaf")
	}
	siblings, err := tree.Prove(12)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyInclusion(tree.Root(), DefaultLeaf(sha3.NewLegacyKeccak256()), 12, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("default leaf proof does not verify")
	}
}

func TestEmptyTreeRoot(t *testing.T) {
	db := memorydb.NewDB()
	tree, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tree.Root(), EmptyTreeRoot(sha3.NewLegacyKeccak256(), 4)) {
		t.Error("fresh tree root differs from the empty tree root")
	}
	siblings, err := tree.Prove(7)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyInclusion(tree.Root(), DefaultLeaf(sha3.NewLegacyKeccak256()), 7, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("empty tree does not prove the default leaf")
	}
}

func TestTreeIndexOutOfRange(t *testing.T) {
	db := memorydb.NewDB()
	tree, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = tree.Update(16, testLeaf(0)); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err = tree.Prove(16); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err = tree.Update(3, []byte("short")); err != ErrNodeSize {
		t.Errorf("expected ErrNodeSize, got %v", err)
	}
}

func TestTreeDepthRange(t *testing.T) {
	db := memorydb.NewDB()
	if _, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 0); err != ErrDepthRange {
		t.Errorf("expected ErrDepthRange, got %v", err)
	}
	if _, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 64); err != ErrDepthRange {
		t.Errorf("expected ErrDepthRange, got %v", err)
	}
}

func TestTreeRestoreRoot(t *testing.T) {
	db := memorydb.NewDB()
	tree, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = tree.Update(3, testLeaf(3)); err != nil {
		t.Fatal(err)
	}
	root := tree.Root()

	restored, err := NewTree(db, namespaceTestTrie, sha3.NewLegacyKeccak256(), root, 4)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := restored.Leaf(3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(leaf, testLeaf(3)) {
		t.Error("restored tree lost the stored leaf")
	}
	siblings, err := restored.Prove(3)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyInclusion(root, testLeaf(3), 3, siblings, sha3.NewLegacyKeccak256()) {
		t.Error("restored tree proof does not verify")
	}
}

func TestTreeSha256(t *testing.T) {
	db := memorydb.NewDB()
	tree, err := NewTree(db, namespaceTestTrie, sha256.New(), nil, 8)
	if err != nil {
		t.Fatal(err)
	}
	leaf := digest(sha256.New(), []byte("leaf"))
	if _, err = tree.Update(200, leaf); err != nil {
		t.Fatal(err)
	}
	siblings, err := tree.Prove(200)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyInclusion(tree.Root(), leaf, 200, siblings, sha256.New()) {
		t.Error("sha256 tree proof does not verify")
	}
}
