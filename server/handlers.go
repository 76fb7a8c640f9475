package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// Page size bounds of GET /v1/users/:user/bets
const (
	DefaultPageSize = 100
	MaxPageSize     = 5000
)

// Ledger is the ledger surface exposed over HTTP
type Ledger interface {
	CreateSportEvent(ctx context.Context, params entities.SportEventParams) (*entities.SportEvent, error)
	PlaceBet(ctx context.Context, bettor string, uid entities.EventUID, choiceID int, amount int64) (*entities.Bet, error)
	PreviewReturn(ctx context.Context, uid entities.EventUID, choiceID int, amount int64) (*entities.ReturnPreview, error)
	SubmitAttestation(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (*entities.SportEvent, error)
	ManualFinalize(ctx context.Context, operator string, uid entities.EventUID, resultChoiceID int) (*entities.SportEvent, error)
	ClaimWinnings(ctx context.Context, caller string, betID int64) (*entities.ClaimResult, error)
	Deposit(ctx context.Context, operator, account string, amount int64) (*entities.Account, error)
	Balance(ctx context.Context, account string) (int64, error)
	GetSportEvent(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error)
	GetBet(ctx context.Context, betID int64) (*entities.Bet, error)
	EventsByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error)
	EventsByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error)
	BetsByDate(ctx context.Context, day int64) ([]*entities.Bet, error)
	BetsByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error)
	BetsPageByUser(ctx context.Context, bettor string, offset, limit int) (*entities.BetPage, error)
}

// LedgerHandler serves the ledger API
type LedgerHandler struct {
	ledger Ledger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func parseUID(c *gin.Context) (entities.EventUID, bool) {
	raw := c.Param("uid")
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		respondBadRequest(c, fmt.Sprintf("invalid event uid %q", raw))
		return entities.EventUID{}, false
	}
	return common.BytesToHash(b), true
}

func parseBetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, fmt.Sprintf("invalid bet id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

// parseDay accepts epoch seconds or a YYYY-MM-DD date
func parseDay(c *gin.Context) (int64, bool) {
	raw := c.Param("day")
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return secs, true
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.Unix(), true
	}
	respondBadRequest(c, fmt.Sprintf("invalid day %q", raw))
	return 0, false
}

func callerOf(c *gin.Context) (string, bool) {
	caller, ok := GetCaller(c)
	if !ok || caller == "" {
		abortUnauthenticated(c, "caller identity missing")
		return "", false
	}
	return caller, true
}

// CreateEvent registers a sport event (operator only)
func (h *LedgerHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	event, err := h.ledger.CreateSportEvent(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toEventResponse(event))
}

// GetEvent returns one event
func (h *LedgerHandler) GetEvent(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}

	event, err := h.ledger.GetSportEvent(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toEventResponse(event))
}

// PreviewReturn projects the return of a stake
func (h *LedgerHandler) PreviewReturn(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	choice, err := strconv.Atoi(c.Query("choice"))
	if err != nil {
		respondBadRequest(c, "choice query parameter must be an integer")
		return
	}
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		respondBadRequest(c, "amount query parameter must be an integer")
		return
	}

	preview, err := h.ledger.PreviewReturn(c.Request.Context(), uid, choice, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toPreviewResponse(preview))
}

// PlaceBet stakes on an event choice as the caller
func (h *LedgerHandler) PlaceBet(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	var req PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	bet, err := h.ledger.PlaceBet(c.Request.Context(), caller, uid, *req.ChoiceID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toBetResponse(bet))
}

// FinalizeEvent records a result without a proof (operator only)
func (h *LedgerHandler) FinalizeEvent(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	event, err := h.ledger.ManualFinalize(c.Request.Context(), caller, uid, *req.ResultChoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toEventResponse(event))
}

// SubmitAttestation finalizes an event from an attested result
func (h *LedgerHandler) SubmitAttestation(c *gin.Context) {
	var req AttestationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	event, err := h.ledger.SubmitAttestation(c.Request.Context(), req.Attestation, req.proof())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toEventResponse(event))
}

// GetBet returns one bet
func (h *LedgerHandler) GetBet(c *gin.Context) {
	id, ok := parseBetID(c)
	if !ok {
		return
	}

	bet, err := h.ledger.GetBet(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toBetResponse(bet))
}

// ClaimWinnings pays out a winning bet of the caller
func (h *LedgerHandler) ClaimWinnings(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseBetID(c)
	if !ok {
		return
	}

	result, err := h.ledger.ClaimWinnings(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, ClaimResponse{
		Bet:    toBetResponse(result.Bet),
		Payout: result.Payout,
	})
}

// Deposit funds an account (operator only)
func (h *LedgerHandler) Deposit(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	acc, err := h.ledger.Deposit(c.Request.Context(), caller, c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, AccountResponse{ID: acc.ID, Balance: acc.Balance})
}

// GetAccount returns an account balance
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id := c.Param("id")
	balance, err := h.ledger.Balance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, AccountResponse{ID: id, Balance: balance})
}

// EventsByDay lists the events of a day, optionally of one sport
func (h *LedgerHandler) EventsByDay(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	var (
		events []*entities.SportEvent
		err    error
	)
	if sport := c.Query("sport"); sport != "" {
		sportID, perr := strconv.ParseUint(sport, 10, 8)
		if perr != nil {
			parsed, nerr := entities.ParseSport(sport)
			if nerr != nil {
				respondBadRequest(c, nerr.Error())
				return
			}
			sportID = uint64(parsed)
		}
		events, err = h.ledger.EventsByDateAndSport(c.Request.Context(), day, uint8(sportID))
	} else {
		events, err = h.ledger.EventsByDate(c.Request.Context(), day)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, toEventResponses(events))
}

// BetsByDay lists the bets of a day, optionally of one user
func (h *LedgerHandler) BetsByDay(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	var (
		bets []*entities.Bet
		err  error
	)
	if user := c.Query("user"); user != "" {
		bets, err = h.ledger.BetsByDateAndUser(c.Request.Context(), day, user)
	} else {
		bets, err = h.ledger.BetsByDate(c.Request.Context(), day)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, toBetResponses(bets))
}

// BetsByUser pages through the bets of a user in placement order
func (h *LedgerHandler) BetsByUser(c *gin.Context) {
	user := c.Param("user")
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		respondBadRequest(c, "offset must be a non-negative integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || limit < 0 {
		respondBadRequest(c, "limit must be a non-negative integer")
		return
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page, err := h.ledger.BetsPageByUser(c.Request.Context(), user, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toBetResponses(page.Bets),
		"count":   len(page.Bets),
		"total":   page.Total,
		"offset":  page.Offset,
	})
}
