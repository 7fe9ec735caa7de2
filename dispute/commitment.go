package dispute

import (
	"bytes"

	solsha3 "github.com/miguelmota/go-solidity-sha3"
)

// ComposeStateCommitment combines the four sub-roots into the overall
// state commitment. The order is a protocol constant.
func ComposeStateCommitment(accountRoot, strategyRoot, stakingPoolRoot, globalInfoHash []byte) []byte {
	return solsha3.SoliditySHA3(
		solsha3.Bytes32(accountRoot),
		solsha3.Bytes32(strategyRoot),
		solsha3.Bytes32(stakingPoolRoot),
		solsha3.Bytes32(globalInfoHash),
	)
}

// VerifyStateCommitment recomputes the commitment from the sub-roots and
// compares it.
func VerifyStateCommitment(commitment, accountRoot, strategyRoot, stakingPoolRoot, globalInfoHash []byte) bool {
	return bytes.Equal(
		ComposeStateCommitment(accountRoot, strategyRoot, stakingPoolRoot, globalInfoHash),
		commitment,
	)
}
