// Package utils holds signing helpers shared by the evaluator and the
// client tooling that produces transitions.
package utils

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
)

// SigIsValid checks that sig over the keccak hash of data recovers signer.
func SigIsValid(signer common.Address, sig []byte, data ...[]byte) bool {
	return RecoverSigner(sig, data...) == signer
}

// RecoverSigner recovers the address that signed the prefixed hash of data.
func RecoverSigner(sig []byte, data ...[]byte) common.Address {
	pubKey, err := crypto.SigToPub(generatePrefixedHash(data...), sig)
	if err != nil {
		log.Error().Msg(err.Error())
		return common.Address{}
	}
	return crypto.PubkeyToAddress(*pubKey)
}

// SignData signs the prefixed keccak hash of data.
func SignData(privateKey *ecdsa.PrivateKey, data ...[]byte) ([]byte, error) {
	return crypto.Sign(generatePrefixedHash(data...), privateKey)
}

func generatePrefixedHash(data ...[]byte) []byte {
	hash := crypto.Keccak256(data...)
	return crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%v", len(hash))),
		hash,
	)
}
