package services

import (
	"errors"
	"net/http"
)

// Outcome kinds surfaced to callers. None of them is fatal to the engine;
// anything not listed here is a storage failure and safe to retry.
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyOwned      = errors.New("item already owned")
	ErrInsufficientFunds = errors.New("insufficient coins")
	ErrAlreadyClaimed    = errors.New("achievement already claimed")
	ErrNotEligible       = errors.New("achievement target not reached")
	ErrValidationFailed  = errors.New("submission did not pass validation")
	ErrLocked            = errors.New("content is locked")
	ErrNotOwned          = errors.New("item not owned")
	ErrInvalidInput      = errors.New("invalid input")
)

// Outcome is the wire status for a command result.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeNotAuthenticated  Outcome = "not_authenticated"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeAlreadyOwned      Outcome = "already_owned"
	OutcomeInsufficientFunds Outcome = "insufficient_funds"
	OutcomeAlreadyClaimed    Outcome = "already_claimed"
	OutcomeNotEligible       Outcome = "not_eligible"
	OutcomeValidationFailed  Outcome = "validation_failed"
	OutcomeLocked            Outcome = "locked"
	OutcomeNotOwned          Outcome = "not_owned"
	OutcomeInvalidInput      Outcome = "invalid_input"
	OutcomeStorageError      Outcome = "storage_error"
)

var outcomes = []struct {
	err     error
	outcome Outcome
	status  int
}{
	{ErrNotAuthenticated, OutcomeNotAuthenticated, http.StatusOK},
	{ErrNotFound, OutcomeNotFound, http.StatusNotFound},
	{ErrAlreadyOwned, OutcomeAlreadyOwned, http.StatusConflict},
	{ErrInsufficientFunds, OutcomeInsufficientFunds, http.StatusPaymentRequired},
	{ErrAlreadyClaimed, OutcomeAlreadyClaimed, http.StatusConflict},
	{ErrNotEligible, OutcomeNotEligible, http.StatusConflict},
	{ErrValidationFailed, OutcomeValidationFailed, http.StatusOK},
	{ErrLocked, OutcomeLocked, http.StatusForbidden},
	{ErrNotOwned, OutcomeNotOwned, http.StatusForbidden},
	{ErrInvalidInput, OutcomeInvalidInput, http.StatusBadRequest},
}

// OutcomeOf maps an error returned by a service to its outcome and HTTP status.
func OutcomeOf(err error) (Outcome, int) {
	if err == nil {
		return OutcomeOK, http.StatusOK
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.outcome, o.status
		}
	}
	return OutcomeStorageError, http.StatusInternalServerError
}
