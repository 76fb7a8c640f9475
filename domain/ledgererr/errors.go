// Package ledgererr defines the failure taxonomy of the betting ledger.
//
// Every failure carries a Kind (the class of failure) and a Reason (the
// precise, stable cause). Callers match on reasons with errors.Is against the
// exported sentinels, e.g. errors.Is(err, ledgererr.ErrNotWinner).
package ledgererr

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
	KindAuthorization Kind = "authorization"
	KindTransfer      Kind = "transfer"
)

// Reason is the stable identifier of a failure cause
type Reason string

const (
	ReasonInvalidTitle       Reason = "InvalidTitle"
	ReasonInvalidStartTime   Reason = "InvalidStartTime"
	ReasonInvalidChoiceCount Reason = "InvalidChoiceCount"
	ReasonInvalidWeight      Reason = "InvalidWeight"
	ReasonInvalidSeedPool    Reason = "InvalidSeedPool"
	ReasonInvalidAmount      Reason = "InvalidAmount"
	ReasonInvalidChoice      Reason = "InvalidChoice"
	ReasonOverflow           Reason = "Overflow"
	ReasonMismatchedEvent    Reason = "MismatchedEvent"
	ReasonInvalidSport       Reason = "InvalidSport"
	ReasonInvalidGender      Reason = "InvalidGender"
	ReasonInvalidUID         Reason = "InvalidUid"

	ReasonEventNotFound Reason = "EventNotFound"
	ReasonInvalidBetID  Reason = "InvalidBetId"

	ReasonDuplicateEvent   Reason = "DuplicateEvent"
	ReasonEventFinalized   Reason = "EventFinalized"
	ReasonStakingClosed    Reason = "StakingClosed"
	ReasonAlreadyFinalized Reason = "AlreadyFinalized"
	ReasonResultNotDrawn   Reason = "ResultNotDrawn"
	ReasonAlreadyClaimed   Reason = "AlreadyClaimed"
	ReasonNotWinner        Reason = "NotWinner"

	ReasonNotBettor    Reason = "NotBettor"
	ReasonUnauthorized Reason = "Unauthorized"
	ReasonInvalidProof Reason = "InvalidProof"

	ReasonInsufficientFunds Reason = "InsufficientFunds"
	ReasonTransferFailed    Reason = "TransferFailed"
)

var reasonKinds = map[Reason]Kind{
	ReasonInvalidTitle:       KindValidation,
	ReasonInvalidStartTime:   KindValidation,
	ReasonInvalidChoiceCount: KindValidation,
	ReasonInvalidWeight:      KindValidation,
	ReasonInvalidSeedPool:    KindValidation,
	ReasonInvalidAmount:      KindValidation,
	ReasonInvalidChoice:      KindValidation,
	ReasonOverflow:           KindValidation,
	ReasonMismatchedEvent:    KindValidation,
	ReasonInvalidSport:       KindValidation,
	ReasonInvalidGender:      KindValidation,
	ReasonInvalidUID:         KindValidation,
	ReasonEventNotFound:      KindNotFound,
	ReasonInvalidBetID:       KindNotFound,
	ReasonDuplicateEvent:     KindStateConflict,
	ReasonEventFinalized:     KindStateConflict,
	ReasonStakingClosed:      KindStateConflict,
	ReasonAlreadyFinalized:   KindStateConflict,
	ReasonResultNotDrawn:     KindStateConflict,
	ReasonAlreadyClaimed:     KindStateConflict,
	ReasonNotWinner:          KindStateConflict,
	ReasonNotBettor:          KindAuthorization,
	ReasonUnauthorized:       KindAuthorization,
	ReasonInvalidProof:       KindAuthorization,
	ReasonInsufficientFunds:  KindTransfer,
	ReasonTransferFailed:     KindTransfer,
}

// KindOf returns the kind a reason belongs to
func (r Reason) KindOf() Kind {
	if k, ok := reasonKinds[r]; ok {
		return k
	}
	return KindValidation
}

// Error is a ledger failure with a stable reason
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Reason)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same reason, so sentinels compare by cause
// rather than by message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// New builds an error for the given reason
func New(reason Reason, format string, args ...any) *Error {
	return &Error{
		Kind:    reason.KindOf(),
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds an error for the given reason around an underlying cause
func Wrap(reason Reason, err error, format string, args ...any) *Error {
	e := New(reason, format, args...)
	e.Err = err
	return e
}

// ReasonOf extracts the reason of a ledger error, or "" for foreign errors
func ReasonOf(err error) Reason {
	var le *Error
	if errors.As(err, &le) {
		return le.Reason
	}
	return ""
}

// KindOf extracts the kind of a ledger error, or "" for foreign errors
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// Sentinels for errors.Is
var (
	ErrInvalidTitle       = &Error{Kind: KindValidation, Reason: ReasonInvalidTitle}
	ErrInvalidStartTime   = &Error{Kind: KindValidation, Reason: ReasonInvalidStartTime}
	ErrInvalidChoiceCount = &Error{Kind: KindValidation, Reason: ReasonInvalidChoiceCount}
	ErrInvalidWeight      = &Error{Kind: KindValidation, Reason: ReasonInvalidWeight}
	ErrInvalidSeedPool    = &Error{Kind: KindValidation, Reason: ReasonInvalidSeedPool}
	ErrInvalidAmount      = &Error{Kind: KindValidation, Reason: ReasonInvalidAmount}
	ErrInvalidChoice      = &Error{Kind: KindValidation, Reason: ReasonInvalidChoice}
	ErrOverflow           = &Error{Kind: KindValidation, Reason: ReasonOverflow}
	ErrMismatchedEvent    = &Error{Kind: KindValidation, Reason: ReasonMismatchedEvent}
	ErrInvalidSport       = &Error{Kind: KindValidation, Reason: ReasonInvalidSport}
	ErrInvalidGender      = &Error{Kind: KindValidation, Reason: ReasonInvalidGender}
	ErrInvalidUID         = &Error{Kind: KindValidation, Reason: ReasonInvalidUID}
	ErrEventNotFound      = &Error{Kind: KindNotFound, Reason: ReasonEventNotFound}
	ErrInvalidBetID       = &Error{Kind: KindNotFound, Reason: ReasonInvalidBetID}
	ErrDuplicateEvent     = &Error{Kind: KindStateConflict, Reason: ReasonDuplicateEvent}
	ErrEventFinalized     = &Error{Kind: KindStateConflict, Reason: ReasonEventFinalized}
	ErrStakingClosed      = &Error{Kind: KindStateConflict, Reason: ReasonStakingClosed}
	ErrAlreadyFinalized   = &Error{Kind: KindStateConflict, Reason: ReasonAlreadyFinalized}
	ErrResultNotDrawn     = &Error{Kind: KindStateConflict, Reason: ReasonResultNotDrawn}
	ErrAlreadyClaimed     = &Error{Kind: KindStateConflict, Reason: ReasonAlreadyClaimed}
	ErrNotWinner          = &Error{Kind: KindStateConflict, Reason: ReasonNotWinner}
	ErrNotBettor          = &Error{Kind: KindAuthorization, Reason: ReasonNotBettor}
	ErrUnauthorized       = &Error{Kind: KindAuthorization, Reason: ReasonUnauthorized}
	ErrInvalidProof       = &Error{Kind: KindAuthorization, Reason: ReasonInvalidProof}
	ErrInsufficientFunds  = &Error{Kind: KindTransfer, Reason: ReasonInsufficientFunds}
	ErrTransferFailed     = &Error{Kind: KindTransfer, Reason: ReasonTransferFailed}
)
