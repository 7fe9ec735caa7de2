// Package registry maps asset and strategy ids to their mainchain
// addresses. The evaluator refuses transitions referencing unregistered
// ids.
package registry

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/celer-network/go-l2-dispute/db"
)

var ErrIdTaken = errors.New("id already registered")

type Registry struct {
	db db.DB
}

func NewRegistry(database db.DB) *Registry {
	return &Registry{db: database}
}

// RegisterAsset maps assetId to the token address, in both directions.
// Ids start at 1; 0 is reserved as "not applicable".
func (r *Registry) RegisterAsset(assetId *big.Int, token common.Address) error {
	return r.register(db.NamespaceAssetIdToAddress, db.NamespaceAssetAddressToId, assetId, token)
}

// AssetAddress looks up the token address for assetId.
func (r *Registry) AssetAddress(assetId *big.Int) (common.Address, bool, error) {
	return r.lookup(db.NamespaceAssetIdToAddress, assetId)
}

// RegisterStrategy maps strategyId to the strategy contract address.
func (r *Registry) RegisterStrategy(strategyId *big.Int, strategy common.Address) error {
	return r.register(db.NamespaceStrategyIdToAddress, db.NamespaceStrategyAddressToId, strategyId, strategy)
}

// StrategyAddress looks up the strategy contract address for strategyId.
func (r *Registry) StrategyAddress(strategyId *big.Int) (common.Address, bool, error) {
	return r.lookup(db.NamespaceStrategyIdToAddress, strategyId)
}

func (r *Registry) register(idToAddress []byte, addressToId []byte, id *big.Int, address common.Address) error {
	if id == nil || id.Sign() <= 0 {
		return errors.New("ids start at 1")
	}
	exists, err := r.db.Exist(idToAddress, id.Bytes())
	if err != nil {
		return err
	}
	if exists {
		return ErrIdTaken
	}
	err = r.db.Set(idToAddress, id.Bytes(), address.Bytes())
	if err != nil {
		return err
	}
	return r.db.Set(addressToId, address.Bytes(), id.Bytes())
}

func (r *Registry) lookup(idToAddress []byte, id *big.Int) (common.Address, bool, error) {
	if id == nil || id.Sign() <= 0 {
		return common.Address{}, false, nil
	}
	addressBytes, exists, err := r.db.Get(idToAddress, id.Bytes())
	if err != nil || !exists {
		return common.Address{}, false, err
	}
	return common.BytesToAddress(addressBytes), true, nil
}
