package types

import "github.com/ethereum/go-ethereum/accounts/abi"

// Serializer holds the ABI argument layouts for every transition and state
// record, so encoding stays byte-identical between the block producer and
// the dispute verifier.
type Serializer struct {
	typeRegistry                *typeRegistry
	accountInfoArguments        abi.Arguments
	strategyInfoArguments       abi.Arguments
	stakingPoolInfoArguments    abi.Arguments
	globalInfoArguments         abi.Arguments
	initTransitionArguments     abi.Arguments
	depositTransitionArguments  abi.Arguments
	withdrawTransitionArguments abi.Arguments
	transferTransitionArguments abi.Arguments
	buyTransitionArguments      abi.Arguments
	sellTransitionArguments     abi.Arguments
	stakeTransitionArguments    abi.Arguments
	unstakeTransitionArguments  abi.Arguments
}

func NewSerializer() (*Serializer, error) {
	typeRegistry, err := newTypeRegistry()
	if err != nil {
		return nil, err
	}
	return &Serializer{
		typeRegistry:                typeRegistry,
		accountInfoArguments:        createAccountInfoArguments(typeRegistry),
		strategyInfoArguments:       createStrategyInfoArguments(typeRegistry),
		stakingPoolInfoArguments:    createStakingPoolInfoArguments(typeRegistry),
		globalInfoArguments:         createGlobalInfoArguments(typeRegistry),
		initTransitionArguments:     createInitTransitionArguments(typeRegistry),
		depositTransitionArguments:  createDepositTransitionArguments(typeRegistry),
		withdrawTransitionArguments: createWithdrawTransitionArguments(typeRegistry),
		transferTransitionArguments: createTransferTransitionArguments(typeRegistry),
		buyTransitionArguments:      createBuyTransitionArguments(typeRegistry),
		sellTransitionArguments:     createSellTransitionArguments(typeRegistry),
		stakeTransitionArguments:    createStakeTransitionArguments(typeRegistry),
		unstakeTransitionArguments:  createUnstakeTransitionArguments(typeRegistry),
	}, nil
}
