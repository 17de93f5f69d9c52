package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinScore = 0
	MaxScore = 1000
)

// ClientRecord is one bank customer as stored in the registry.
type ClientRecord struct {
	CPF         string  `json:"cpf" yaml:"cpf"`
	Name        string  `json:"name" yaml:"name"`
	DateOfBirth string  `json:"dob" yaml:"dob"`
	CreditLimit float64 `json:"credit_limit" yaml:"credit_limit"`
	CreditScore int     `json:"credit_score" yaml:"credit_score"`
	Version     int64   `json:"version" yaml:"-"`
}

func (c ClientRecord) Validate() error {
	if err := ValidateCPF(c.CPF); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client %s has an empty name", ErrValidation, MaskCPF(c.CPF))
	}
	if err := validateDOBFormat(c.DateOfBirth); err != nil {
		return err
	}
	if err := ValidateLimit(c.CreditLimit); err != nil {
		return err
	}
	return ValidateScore(c.CreditScore)
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	default:
		return false
	}
}

// LimitRequest is one row of the append-only limit request log.
type LimitRequest struct {
	CPF            string        `json:"cpf"`
	Timestamp      time.Time     `json:"timestamp"`
	LimitBefore    float64       `json:"limit_before"`
	LimitRequested float64       `json:"limit_requested"`
	Status         RequestStatus `json:"status"`
}

func (r LimitRequest) Validate() error {
	if err := ValidateCPF(r.CPF); err != nil {
		return err
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: limit request timestamp is empty", ErrValidation)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown limit request status %q", ErrValidation, r.Status)
	}
	if !(r.LimitRequested > r.LimitBefore) {
		return fmt.Errorf("%w: requested limit %.2f is not above %.2f", ErrValidation, r.LimitRequested, r.LimitBefore)
	}
	return nil
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: score %d outside [%d,%d]", ErrValidation, score, MinScore, MaxScore)
	}
	return nil
}

func ValidateLimit(limit float64) error {
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit < 0 {
		return fmt.Errorf("%w: credit limit %v must be a finite non-negative amount", ErrValidation, limit)
	}
	return nil
}

// ValidateAmount accepts finite, strictly positive amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: amount %v must be a positive number", ErrValidation, amount)
	}
	return nil
}
