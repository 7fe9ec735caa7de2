// disputedemo commits a small block where the sequencer's declared
// post-state commitment may be corrupted, then runs a dispute against the
// suspect transition and prints the outcome.
package main

import (
	"flag"
	"io/ioutil"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/celer-network/go-l2-dispute/blockinfo"
	disputedb "github.com/celer-network/go-l2-dispute/db"
	"github.com/celer-network/go-l2-dispute/db/badgerdb"
	"github.com/celer-network/go-l2-dispute/db/memorydb"
	"github.com/celer-network/go-l2-dispute/dispute"
	"github.com/celer-network/go-l2-dispute/evaluator"
	"github.com/celer-network/go-l2-dispute/registry"
	"github.com/celer-network/go-l2-dispute/statetree"
	"github.com/celer-network/go-l2-dispute/types"
)

var (
	config  = flag.String("config", "", "Optional config file overriding the flags")
	dbDir   = flag.String("dbdir", "", "Badger directory for state, in-memory state if empty")
	genesis = flag.String("genesis", "", "YAML file listing genesis assets and strategies")
	fraud   = flag.Bool("fraud", true, "Corrupt the sequencer's declared post-state commitment")
)

type genesisConfig struct {
	Assets []struct {
		Id      int64  `yaml:"id"`
		Address string `yaml:"address"`
	} `yaml:"assets"`
	Strategies []struct {
		Id      int64  `yaml:"id"`
		Address string `yaml:"address"`
	} `yaml:"strategies"`
}

func main() {
	flag.Parse()
	log.Logger = log.With().Caller().Logger()

	if *config != "" {
		viper.SetConfigFile(*config)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal().Err(err).Send()
		}
		if viper.IsSet("dbDir") {
			*dbDir = viper.GetString("dbDir")
		}
		if viper.IsSet("genesis") {
			*genesis = viper.GetString("genesis")
		}
		if viper.IsSet("fraud") {
			*fraud = viper.GetBool("fraud")
		}
	}

	var database disputedb.DB
	var err error
	if *dbDir == "" {
		database = memorydb.NewDB()
	} else {
		database, err = badgerdb.NewDB(*dbDir)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
	}
	defer database.Close()

	serializer, err := types.NewSerializer()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	ev := evaluator.NewTransitionEvaluator(serializer)
	reg := registry.NewRegistry(database)
	if err = registerGenesis(reg, *genesis); err != nil {
		log.Fatal().Err(err).Send()
	}
	state, err := statetree.NewStateTree(database, ev)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	initStateRoot, err := statetree.EmptyStateRoot(ev)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	disputer := dispute.NewTransitionDisputer(ev, serializer, initStateRoot)

	// The sequencer's view: one deposit creating account 1. Proofs for the
	// dispute are taken against the pre-state, before the tree advances.
	user := common.HexToAddress("0x5a0b54d5dc17e0aadc383d2db43b0a0d3e029c4c")
	deposit := &types.DepositTransition{
		TransitionType: big.NewInt(int64(types.TransitionTypeDeposit)),
		Account:        user,
		AccountId:      big.NewInt(1),
		AssetId:        big.NewInt(1),
		Amount:         big.NewInt(100),
	}
	accountProof, err := state.AccountProof(1)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	strategyProof, err := state.StrategyProof(1)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	stakingPoolProof, err := state.StakingPoolProof(1)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	globalInfo := state.GlobalInfo()

	newAccount := &types.AccountInfo{
		Account:    user,
		AccountId:  big.NewInt(1),
		IdleAssets: []*big.Int{big.NewInt(0), big.NewInt(100)},
		Timestamp:  big.NewInt(0),
	}
	if err = state.SetAccountInfo(1, newAccount); err != nil {
		log.Fatal().Err(err).Send()
	}
	postStateRoot, err := state.StateRoot()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if *fraud {
		// A dishonest sequencer declares a commitment its transitions do
		// not produce.
		postStateRoot[0] ^= 0xff
		log.Info().Msg("Committing a corrupted post-state commitment")
	}
	copy(deposit.StateRoot[:], postStateRoot)

	transitions := []types.Transition{
		&types.InitTransition{
			TransitionType: big.NewInt(int64(types.TransitionTypeInit)),
			StateRoot:      toBytes32(initStateRoot),
		},
		deposit,
	}
	block, err := blockinfo.NewBlockInfo(serializer, 0, transitions)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	prevProof, err := block.TransitionProof(0)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	disputedProof, err := block.TransitionProof(1)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	outcome, err := disputer.DisputeTransition(&dispute.DisputeInput{
		PrevTransitionProof:     prevProof,
		DisputedTransitionProof: disputedProof,
		PrevBlock:               block.Block(),
		DisputedBlock:           block.Block(),
		AccountProofs:           []*types.AccountProof{accountProof},
		StrategyProof:           strategyProof,
		StakingPoolProof:        stakingPoolProof,
		GlobalInfo:              globalInfo,
	}, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("Dispute rejected")
	}
	log.Info().Str("outcome", outcome).Msg("Dispute decided")
}

func registerGenesis(reg *registry.Registry, path string) error {
	cfg := genesisConfig{}
	if path == "" {
		cfg.Assets = append(cfg.Assets, struct {
			Id      int64  `yaml:"id"`
			Address string `yaml:"address"`
		}{Id: 1, Address: "0x18e1bbab988f03ba446dc0f0c019dbd9d5f41a8f"})
	} else {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
	}
	for _, asset := range cfg.Assets {
		err := reg.RegisterAsset(big.NewInt(asset.Id), common.HexToAddress(asset.Address))
		if err != nil {
			return err
		}
	}
	for _, strategy := range cfg.Strategies {
		err := reg.RegisterStrategy(big.NewInt(strategy.Id), common.HexToAddress(strategy.Address))
		if err != nil {
			return err
		}
	}
	return nil
}

func toBytes32(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], data)
	return out
}
