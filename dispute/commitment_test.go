package dispute_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celer-network/go-l2-dispute/dispute"
)

func TestStateCommitment(t *testing.T) {
	accountRoot := crypto.Keccak256([]byte("accounts"))
	strategyRoot := crypto.Keccak256([]byte("strategies"))
	stakingPoolRoot := crypto.Keccak256([]byte("pools"))
	globalInfoHash := crypto.Keccak256([]byte("global"))

	commitment := dispute.ComposeStateCommitment(accountRoot, strategyRoot, stakingPoolRoot, globalInfoHash)
	if len(commitment) != 32 {
		t.Fatalf("commitment length %d", len(commitment))
	}
	if !dispute.VerifyStateCommitment(commitment, accountRoot, strategyRoot, stakingPoolRoot, globalInfoHash) {
		t.Error("commitment does not verify against its own sub-roots")
	}
	if dispute.VerifyStateCommitment(commitment, strategyRoot, accountRoot, stakingPoolRoot, globalInfoHash) {
		t.Error("commitment must bind sub-root order")
	}
	tampered := crypto.Keccak256([]byte("other"))
	if dispute.VerifyStateCommitment(commitment, accountRoot, strategyRoot, stakingPoolRoot, tampered) {
		t.Error("commitment accepted a wrong global info hash")
	}
}
