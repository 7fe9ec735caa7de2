package blockinfo

import (
	"math/big"
	"testing"

	"github.com/celer-network/go-l2-dispute/dispute"
	"github.com/celer-network/go-l2-dispute/types"
)

func testTransitions(t *testing.T, n int) []types.Transition {
	t.Helper()
	transitions := make([]types.Transition, n)
	for i := 0; i < n; i++ {
		var stateRoot [32]byte
		stateRoot[0] = byte(i + 1)
		transitions[i] = &types.InitTransition{
			TransitionType: big.NewInt(int64(types.TransitionTypeInit)),
			StateRoot:      stateRoot,
		}
	}
	return transitions
}

func TestBlockInfoProofs(t *testing.T) {
	serializer, err := types.NewSerializer()
	if err != nil {
		t.Fatal(err)
	}
	info, err := NewBlockInfo(serializer, 7, testTransitions(t, 5))
	if err != nil {
		t.Fatal(err)
	}
	block := info.Block()
	if block.BlockId != 7 || block.BlockSize != 5 {
		t.Errorf("unexpected block header %+v", block)
	}
	for i := 0; i < 5; i++ {
		proof, proofErr := info.TransitionProof(i)
		if proofErr != nil {
			t.Fatal(proofErr)
		}
		if !dispute.CheckTransitionInclusion(proof, block) {
			t.Errorf("transition %d does not verify against the block root", i)
		}
	}
	if _, err = info.TransitionProof(5); err == nil {
		t.Error("expected an error for an out-of-range index")
	}
	if _, err = NewBlockInfo(serializer, 8, nil); err == nil {
		t.Error("expected an error for an empty block")
	}
}

func TestTreeDepthSizing(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4}
	for n, depth := range cases {
		if got := treeDepth(n); got != depth {
			t.Errorf("treeDepth(%d) = %d, want %d", n, got, depth)
		}
	}
}
