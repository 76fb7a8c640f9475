package entities

import (
	"github.com/ethereum/go-ethereum/common"
)

// MatchResultRequest identifies the match an attestation speaks about
type MatchResultRequest struct {
	Date   int64  `json:"date" yaml:"date"`
	Sport  uint8  `json:"sport" yaml:"sport"`
	Gender uint8  `json:"gender" yaml:"gender"`
	Teams  string `json:"teams" yaml:"teams"`
}

// MatchResultResponse carries the attested outcome
type MatchResultResponse struct {
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`
	Result    uint8 `json:"result" yaml:"result"`
}

// Attestation is an externally verifiable claim about a match result
type Attestation struct {
	AttestationType string              `json:"attestationType"`
	SourceID        string              `json:"sourceId"`
	VotingRound     uint64              `json:"votingRound"`
	RequestBody     MatchResultRequest  `json:"requestBody"`
	ResponseBody    MatchResultResponse `json:"responseBody"`
}

// AttestationProof is opaque to the ledger; verifiers interpret whichever part they need
type AttestationProof struct {
	MerkleProof []common.Hash `json:"merkleProof,omitempty"`
	Signature   []byte        `json:"signature,omitempty"`
}

// ResultChoiceID returns the attested winning choice
func (a *Attestation) ResultChoiceID() int {
	return int(a.ResponseBody.Result)
}
