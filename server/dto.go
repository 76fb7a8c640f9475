package server

import (
	"betledger/domain/entities"
	"betledger/infrastructure"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ChoiceResponse is one outcome of an event
type ChoiceResponse struct {
	ID                int    `json:"id"`
	Label             string `json:"label"`
	TotalBetsAmount   int64  `json:"totalBetsAmount"`
	CurrentMultiplier int64  `json:"currentMultiplier"`
	Odds              string `json:"odds"`
}

// EventResponse is the public view of a sport event
type EventResponse struct {
	UID            string           `json:"uid"`
	Title          string           `json:"title"`
	StartTime      int64            `json:"startTime"`
	SportID        uint8            `json:"sportId"`
	Sport          string           `json:"sport"`
	GenderID       uint8            `json:"genderId"`
	PoolAmount     int64            `json:"poolAmount"`
	Status         string           `json:"status"`
	ResultChoiceID *int             `json:"resultChoiceId,omitempty"`
	Choices        []ChoiceResponse `json:"choices"`
}

// BetResponse is the public view of a bet
type BetResponse struct {
	ID            int64  `json:"id"`
	EventUID      string `json:"eventUid"`
	Bettor        string `json:"bettor"`
	Amount        int64  `json:"amount"`
	ChoiceID      int    `json:"choiceId"`
	WinMultiplier int64  `json:"winMultiplier"`
	Odds          string `json:"odds"`
	Claimed       bool   `json:"claimed"`
	PlacedAt      int64  `json:"placedAt"`
}

// PreviewResponse is the projected outcome of a stake
type PreviewResponse struct {
	EventUID   string `json:"eventUid"`
	ChoiceID   int    `json:"choiceId"`
	Amount     int64  `json:"amount"`
	Multiplier int64  `json:"multiplier"`
	Odds       string `json:"odds"`
	Return     int64  `json:"return"`
}

// ClaimResponse describes a paid claim
type ClaimResponse struct {
	Bet    BetResponse `json:"bet"`
	Payout int64       `json:"payout"`
}

// AccountResponse is an account balance
type AccountResponse struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

// ChoiceRequest is one outcome of an event to create
type ChoiceRequest struct {
	Label         string `json:"label" binding:"required"`
	InitialWeight int64  `json:"initialWeight"`
}

// CreateEventRequest is the body of POST /v1/events
type CreateEventRequest struct {
	Title     string          `json:"title" binding:"required"`
	StartTime int64           `json:"startTime"`
	SportID   uint8           `json:"sportId"`
	GenderID  uint8           `json:"genderId"`
	Choices   []ChoiceRequest `json:"choices" binding:"required"`
	SeedPool  int64           `json:"seedPool"`
}

// PlaceBetRequest is the body of POST /v1/events/:uid/bets
type PlaceBetRequest struct {
	ChoiceID *int  `json:"choiceId" binding:"required"`
	Amount   int64 `json:"amount"`
}

// FinalizeRequest is the body of POST /v1/events/:uid/finalize
type FinalizeRequest struct {
	ResultChoiceID *int `json:"resultChoiceId" binding:"required"`
}

// DepositRequest is the body of POST /v1/accounts/:id/deposit
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// AttestationRequest is the body of POST /v1/attestations
type AttestationRequest struct {
	Attestation *entities.Attestation `json:"attestation" binding:"required"`
	Proof       struct {
		MerkleProof []common.Hash `json:"merkleProof"`
		Signature   hexutil.Bytes `json:"signature"`
	} `json:"proof"`
}

func (r *CreateEventRequest) params() entities.SportEventParams {
	params := entities.SportEventParams{
		Title:     r.Title,
		StartTime: r.StartTime,
		SportID:   r.SportID,
		GenderID:  r.GenderID,
		SeedPool:  r.SeedPool,
	}
	for _, c := range r.Choices {
		params.ChoiceLabels = append(params.ChoiceLabels, c.Label)
		params.InitialWeights = append(params.InitialWeights, c.InitialWeight)
	}
	return params
}

func (r *AttestationRequest) proof() *entities.AttestationProof {
	return &entities.AttestationProof{
		MerkleProof: r.Proof.MerkleProof,
		Signature:   r.Proof.Signature,
	}
}

func toEventResponse(e *entities.SportEvent) EventResponse {
	resp := EventResponse{
		UID:            e.UID.Hex(),
		Title:          e.Title,
		StartTime:      e.StartTime,
		SportID:        e.SportID,
		Sport:          entities.Sport(e.SportID).String(),
		GenderID:       e.GenderID,
		PoolAmount:     e.PoolAmount,
		Status:         string(e.Status),
		ResultChoiceID: e.ResultChoiceID,
		Choices:        make([]ChoiceResponse, len(e.Choices)),
	}
	for i, c := range e.Choices {
		resp.Choices[i] = ChoiceResponse{
			ID:                c.ID,
			Label:             c.Label,
			TotalBetsAmount:   c.TotalBetsAmount,
			CurrentMultiplier: c.CurrentMultiplier,
			Odds:              infrastructure.FormatMultiplier(c.CurrentMultiplier),
		}
	}
	return resp
}

func toEventResponses(events []*entities.SportEvent) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	return out
}

func toBetResponse(b *entities.Bet) BetResponse {
	return BetResponse{
		ID:            b.ID,
		EventUID:      b.EventUID.Hex(),
		Bettor:        b.Bettor,
		Amount:        b.Amount,
		ChoiceID:      b.ChoiceID,
		WinMultiplier: b.WinMultiplier,
		Odds:          infrastructure.FormatMultiplier(b.WinMultiplier),
		Claimed:       b.Claimed,
		PlacedAt:      b.PlacedAt,
	}
}

func toBetResponses(bets []*entities.Bet) []BetResponse {
	out := make([]BetResponse, len(bets))
	for i, b := range bets {
		out[i] = toBetResponse(b)
	}
	return out
}

func toPreviewResponse(p *entities.ReturnPreview) PreviewResponse {
	return PreviewResponse{
		EventUID:   p.EventUID.Hex(),
		ChoiceID:   p.ChoiceID,
		Amount:     p.Amount,
		Multiplier: p.Multiplier,
		Odds:       infrastructure.FormatMultiplier(p.Multiplier),
		Return:     p.Return,
	}
}
