package merkle

import (
	"errors"
	"hash"

	disputedb "github.com/celer-network/go-l2-dispute/db"
)

var errCorruptDb = errors.New("corrupt db")

// Tree is a fixed-depth Merkle tree over leaf hashes, persisted as
// content-addressed nodes in a namespaced db. Untouched positions hold the
// all-zero default leaf.
type Tree struct {
	hasher    hash.Hash
	db        disputedb.DB
	namespace []byte
	root      []byte
	depth     int
}

// NewTree creates a tree of the given depth, or restores one at root if
// root is non-nil. Trees of the same depth share default nodes in the db.
func NewTree(database disputedb.DB, namespace []byte, hasher hash.Hash, root []byte, depth int) (*Tree, error) {
	if depth <= 0 || depth > maxDepth {
		return nil, ErrDepthRange
	}
	tree := &Tree{
		hasher:    hasher,
		db:        database,
		namespace: namespace,
		depth:     depth,
	}

	nodes := defaultNodes(hasher, depth)
	marker := initMarker(depth)
	_, exists, err := database.Get(namespace, marker)
	if err != nil {
		return nil, err
	}
	if !exists {
		bulk := database.NewBulk()
		for level := 0; level < depth; level++ {
			child := nodes[level+1]
			err = bulk.Set(namespace, nodes[level], append(append([]byte{}, child...), child...))
			if err != nil {
				return nil, err
			}
		}
		err = bulk.Set(namespace, marker, []byte{})
		if err != nil {
			return nil, err
		}
		err = bulk.Flush()
		if err != nil {
			return nil, err
		}
	}

	if root != nil {
		tree.root = root
	} else {
		tree.root = nodes[0]
	}
	return tree, nil
}

// Root gets the current root of the tree.
func (tree *Tree) Root() []byte {
	return tree.root
}

// SetRoot rewinds the tree to a previously committed root.
func (tree *Tree) SetRoot(root []byte) {
	tree.root = root
}

func (tree *Tree) Depth() int {
	return tree.depth
}

// Update replaces the leaf hash at index and returns the new root, which
// also becomes the current root of the tree.
func (tree *Tree) Update(index uint64, leafHash []byte) ([]byte, error) {
	size := tree.hasher.Size()
	if index>>uint(tree.depth) != 0 {
		return nil, ErrIndexOutOfRange
	}
	if len(leafHash) != size {
		return nil, ErrNodeSize
	}
	sideNodes, err := tree.sideNodes(index)
	if err != nil {
		return nil, err
	}

	bulk := tree.db.NewBulk()
	current := make([]byte, size)
	copy(current, leafHash)
	for i := 0; i < tree.depth; i++ {
		sibling := sideNodes[tree.depth-1-i]
		var value []byte
		if (index>>uint(i))&1 == 0 {
			value = append(append([]byte{}, current...), sibling...)
		} else {
			value = append(append([]byte{}, sibling...), current...)
		}
		current = digest(tree.hasher, value)
		err = bulk.Set(tree.namespace, current, value)
		if err != nil {
			return nil, err
		}
	}
	err = bulk.Flush()
	if err != nil {
		return nil, err
	}

	tree.root = current
	return current, nil
}

// Prove generates the sibling path for the leaf at index, ordered leaf
// level first to match the proof engine.
func (tree *Tree) Prove(index uint64) ([][]byte, error) {
	if index>>uint(tree.depth) != 0 {
		return nil, ErrIndexOutOfRange
	}
	sideNodes, err := tree.sideNodes(index)
	if err != nil {
		return nil, err
	}
	return reverseNodes(sideNodes), nil
}

// Leaf returns the current leaf hash at index.
func (tree *Tree) Leaf(index uint64) ([]byte, error) {
	if index>>uint(tree.depth) != 0 {
		return nil, ErrIndexOutOfRange
	}
	size := tree.hasher.Size()
	current := tree.root
	for level := 0; level < tree.depth; level++ {
		value, exists, err := tree.db.Get(tree.namespace, current)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errCorruptDb
		}
		if (index>>uint(tree.depth-1-level))&1 == 0 {
			current = value[:size]
		} else {
			current = value[size:]
		}
	}
	return current, nil
}

// sideNodes walks from the root to the leaf at index and collects the off-
// path child at every level, root level first.
func (tree *Tree) sideNodes(index uint64) ([][]byte, error) {
	size := tree.hasher.Size()
	sideNodes := make([][]byte, tree.depth)
	current := tree.root
	for level := 0; level < tree.depth; level++ {
		value, exists, err := tree.db.Get(tree.namespace, current)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errCorruptDb
		}
		if (index>>uint(tree.depth-1-level))&1 == 0 {
			sideNodes[level] = value[size:]
			current = value[:size]
		} else {
			sideNodes[level] = value[:size]
			current = value[size:]
		}
	}
	return sideNodes, nil
}

// EmptyTreeRoot returns the root of a tree of the given depth whose leaves
// all hold the default leaf.
func EmptyTreeRoot(hasher hash.Hash, depth int) []byte {
	return defaultNodes(hasher, depth)[0]
}

// DefaultLeaf returns the leaf hash of an empty position.
func DefaultLeaf(hasher hash.Hash) []byte {
	return make([]byte, hasher.Size())
}

func defaultNodes(hasher hash.Hash, depth int) [][]byte {
	nodes := make([][]byte, depth+1)
	nodes[depth] = make([]byte, hasher.Size())
	for level := depth - 1; level >= 0; level-- {
		child := nodes[level+1]
		nodes[level] = digest(hasher, child, child)
	}
	return nodes
}

func initMarker(depth int) []byte {
	return append([]byte("init"), byte(depth))
}

func reverseNodes(nodes [][]byte) [][]byte {
	for i := len(nodes)/2 - 1; i >= 0; i-- {
		opp := len(nodes) - 1 - i
		nodes[i], nodes[opp] = nodes[opp], nodes[i]
	}
	return nodes
}
