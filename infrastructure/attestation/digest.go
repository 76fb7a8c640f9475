// Package attestation verifies match result attestations before the ledger
// finalizes an event on their word.
package attestation

import (
	"fmt"
	"math/big"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var digestArguments abi.Arguments

func init() {
	mustType := func(name string) abi.Type {
		t, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(fmt.Sprintf("attestation: invalid abi type %s: %v", name, err))
		}
		return t
	}
	digestArguments = abi.Arguments{
		{Name: "attestationType", Type: mustType("string")},
		{Name: "sourceId", Type: mustType("string")},
		{Name: "votingRound", Type: mustType("uint64")},
		{Name: "date", Type: mustType("uint256")},
		{Name: "sport", Type: mustType("uint8")},
		{Name: "gender", Type: mustType("uint8")},
		{Name: "teams", Type: mustType("string")},
		{Name: "timestamp", Type: mustType("uint256")},
		{Name: "result", Type: mustType("uint8")},
	}
}

// Digest is keccak256 over the ABI encoding of every attestation field
func Digest(a *entities.Attestation) (common.Hash, error) {
	if a == nil {
		return common.Hash{}, fmt.Errorf("attestation is nil")
	}
	if a.RequestBody.Date < 0 || a.ResponseBody.Timestamp < 0 {
		return common.Hash{}, fmt.Errorf("attestation times must not be negative")
	}
	packed, err := digestArguments.Pack(
		a.AttestationType,
		a.SourceID,
		a.VotingRound,
		big.NewInt(a.RequestBody.Date),
		a.RequestBody.Sport,
		a.RequestBody.Gender,
		a.RequestBody.Teams,
		big.NewInt(a.ResponseBody.Timestamp),
		a.ResponseBody.Result,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode attestation: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}
