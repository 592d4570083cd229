package lifecycle

import "errors"

var (
	ErrUnknownStatus              = errors.New("unknown contract status")
	ErrInvalidAmount              = errors.New("amount must be positive")
	ErrContractClosed             = errors.New("contract is closed")
	ErrRepaymentExceedsPrincipal  = errors.New("repayment exceeds outstanding principal")
	ErrInvalidPayout              = errors.New("payout does not match its type")
	ErrNotEligibleForBadDebt      = errors.New("loan is not eligible for bad debt")
	ErrRecoveryExceedsOutstanding = errors.New("recovery exceeds outstanding written-off amount")
)
