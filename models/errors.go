package models

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("external service unavailable")
	ErrPaymentDeclined    = errors.New("payment declined")

	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidTransition  = errors.New("invalid wizard transition")
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	ErrResultsNotReady    = errors.New("results not ready")
	ErrSkipNotOffered     = errors.New("payment skip not offered")
	ErrPremiumLocked      = errors.New("premium content locked")
)
