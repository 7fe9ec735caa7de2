package registry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-l2-dispute/db/memorydb"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry(memorydb.NewDB())
	token := common.HexToAddress("0x18e1bbab988f03ba446dc0f0c019dbd9d5f41a8f")
	strategy := common.HexToAddress("0x5a0b54d5dc17e0aadc383d2db43b0a0d3e029c4c")

	require.NoError(t, reg.RegisterAsset(big.NewInt(1), token))
	require.NoError(t, reg.RegisterStrategy(big.NewInt(1), strategy))

	address, exists, err := reg.AssetAddress(big.NewInt(1))
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, token, address)

	address, exists, err = reg.StrategyAddress(big.NewInt(1))
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, strategy, address)

	_, exists, err = reg.AssetAddress(big.NewInt(2))
	require.NoError(t, err)
	require.False(t, exists)

	// Id 0 is the "not applicable" sentinel and can never resolve.
	_, exists, err = reg.AssetAddress(big.NewInt(0))
	require.NoError(t, err)
	require.False(t, exists)

	require.Error(t, reg.RegisterAsset(big.NewInt(0), token))
	require.Equal(t, ErrIdTaken, reg.RegisterAsset(big.NewInt(1), token))
}
