package types

// Block is a committed batch of transitions, addressed by the Merkle root
// over its transition leaves. Blocks are immutable once finalized.
type Block struct {
	BlockId   uint64
	Root      []byte
	BlockSize uint64
}

// TransitionProof references one transition inside one block and carries
// the sibling path proving its inclusion under the block root. Siblings
// are ordered leaf level first.
type TransitionProof struct {
	BlockId    uint64
	Index      uint64
	Transition []byte
	Siblings   [][]byte
}

// AccountProof proves one account record at Index under the account
// sub-tree root StateRoot.
type AccountProof struct {
	StateRoot []byte
	Value     *AccountInfo
	Index     uint64
	Siblings  [][]byte
}

// StrategyProof proves one strategy record at Index under the strategy
// sub-tree root StateRoot.
type StrategyProof struct {
	StateRoot []byte
	Value     *StrategyInfo
	Index     uint64
	Siblings  [][]byte
}

// StakingPoolProof proves one staking pool record at Index under the
// staking pool sub-tree root StateRoot.
type StakingPoolProof struct {
	StateRoot []byte
	Value     *StakingPoolInfo
	Index     uint64
	Siblings  [][]byte
}
