package domain

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrLockedOut            = errors.New("authentication locked out")
	ErrNotFound             = errors.New("client not found")
	ErrDataAccess           = errors.New("data access failed")
	ErrScoreCalculation     = errors.New("score calculation failed")
	ErrExchangeUnavailable  = errors.New("exchange rates unavailable")
)
