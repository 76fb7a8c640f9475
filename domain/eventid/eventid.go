// Package eventid derives the deterministic identifier of a sport event.
//
// The uid is keccak256 over the ABI encoding of (uint8 sportId, uint8 genderId,
// uint256 startTime, string title). ABI encoding is fixed-width per head slot,
// so the same four fields always hash to the same uid on every replica.
package eventid

import (
	"fmt"
	"math/big"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

var keyArguments abi.Arguments

func init() {
	uint8Type := mustType("uint8")
	keyArguments = abi.Arguments{
		{Name: "sportId", Type: uint8Type},
		{Name: "genderId", Type: uint8Type},
		{Name: "startTime", Type: mustType("uint256")},
		{Name: "title", Type: mustType("string")},
	}
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("eventid: invalid abi type %s: %v", name, err))
	}
	return t
}

// Key holds the fields a uid is derived from
type Key struct {
	SportID   uint8
	GenderID  uint8
	StartTime int64
	Title     string
}

// Encode returns the canonical encoding of the key
func (k Key) Encode() ([]byte, error) {
	if k.StartTime < 0 {
		return nil, fmt.Errorf("start time must not be negative: %d", k.StartTime)
	}
	packed, err := keyArguments.Pack(k.SportID, k.GenderID, big.NewInt(k.StartTime), k.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event key: %w", err)
	}
	return packed, nil
}

// Derive computes the uid of the key
func (k Key) Derive() (entities.EventUID, error) {
	packed, err := k.Encode()
	if err != nil {
		return entities.EventUID{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}

// Derive computes the uid for the given event fields
func Derive(sportID, genderID uint8, startTime int64, title string) (entities.EventUID, error) {
	return Key{SportID: sportID, GenderID: genderID, StartTime: startTime, Title: title}.Derive()
}

// FromEvent recomputes the uid of an existing event record
func FromEvent(e *entities.SportEvent) (entities.EventUID, error) {
	return Derive(e.SportID, e.GenderID, e.StartTime, e.Title)
}

// FromAttestation recomputes the uid an attestation refers to
func FromAttestation(a *entities.Attestation) (entities.EventUID, error) {
	req := a.RequestBody
	return Derive(req.Sport, req.Gender, req.Date, req.Teams)
}
