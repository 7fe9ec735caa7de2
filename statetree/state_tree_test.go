package statetree

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-l2-dispute/db/memorydb"
	"github.com/celer-network/go-l2-dispute/evaluator"
	"github.com/celer-network/go-l2-dispute/merkle"
	"github.com/celer-network/go-l2-dispute/types"
)

func newTestStateTree(t *testing.T) (*StateTree, *evaluator.TransitionEvaluator) {
	t.Helper()
	serializer, err := types.NewSerializer()
	require.NoError(t, err)
	ev := evaluator.NewTransitionEvaluator(serializer)
	state, err := NewStateTree(memorydb.NewDB(), ev)
	require.NoError(t, err)
	return state, ev
}

func TestFreshStateRootIsEmpty(t *testing.T) {
	state, ev := newTestStateTree(t)
	root, err := state.StateRoot()
	require.NoError(t, err)
	empty, err := EmptyStateRoot(ev)
	require.NoError(t, err)
	require.True(t, bytes.Equal(root, empty), "fresh tree must commit to the empty state")
}

func TestStateTreeProofs(t *testing.T) {
	state, ev := newTestStateTree(t)
	account := &types.AccountInfo{
		Account:    common.HexToAddress("0x5a0b54d5dc17e0aadc383d2db43b0a0d3e029c4c"),
		AccountId:  big.NewInt(3),
		IdleAssets: []*big.Int{big.NewInt(0), big.NewInt(42)},
		Timestamp:  big.NewInt(0),
	}
	require.NoError(t, state.SetAccountInfo(3, account))
	require.NoError(t, state.SetStrategyInfo(1, &types.StrategyInfo{
		AssetId:      big.NewInt(1),
		AssetBalance: big.NewInt(10),
		ShareSupply:  big.NewInt(10),
	}))

	proof, err := state.AccountProof(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), proof.Index)
	require.Equal(t, AccountTreeDepth, len(proof.Siblings))
	leaf, err := ev.AccountInfoHash(proof.Value)
	require.NoError(t, err)
	require.True(t,
		merkle.VerifyInclusion(proof.StateRoot, leaf, proof.Index, proof.Siblings, sha3.NewLegacyKeccak256()))

	// Untouched slots prove the default leaf.
	emptyProof, err := state.AccountProof(9)
	require.NoError(t, err)
	require.Nil(t, emptyProof.Value)
	require.True(t, merkle.VerifyInclusion(
		emptyProof.StateRoot,
		merkle.DefaultLeaf(sha3.NewLegacyKeccak256()),
		emptyProof.Index, emptyProof.Siblings, sha3.NewLegacyKeccak256()))

	strategyProof, err := state.StrategyProof(1)
	require.NoError(t, err)
	strategyLeaf, err := ev.StrategyInfoHash(strategyProof.Value)
	require.NoError(t, err)
	require.True(t, merkle.VerifyInclusion(
		strategyProof.StateRoot, strategyLeaf,
		strategyProof.Index, strategyProof.Siblings, sha3.NewLegacyKeccak256()))
}
