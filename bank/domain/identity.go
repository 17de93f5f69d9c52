package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	dobLayout  = "02/01/2006"
	minimumAge = 18
	maximumAge = 120
)

var dobPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// NormalizeCPF strips everything that is not an ASCII digit.
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF checks an already normalized cpf.
func ValidateCPF(cpf string) error {
	if len(cpf) != 11 {
		return fmt.Errorf("%w: cpf must have 11 digits", ErrValidation)
	}
	for _, r := range cpf {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: cpf must contain only digits", ErrValidation)
		}
	}
	if strings.Count(cpf, cpf[:1]) == len(cpf) {
		return fmt.Errorf("%w: cpf cannot repeat a single digit", ErrValidation)
	}
	return nil
}

// ValidateDOB checks a DD/MM/YYYY date of birth against now.
func ValidateDOB(dob string, now time.Time) error {
	if err := validateDOBFormat(dob); err != nil {
		return err
	}
	born, _ := time.Parse(dobLayout, dob)
	today := now.UTC()
	if born.After(today) {
		return fmt.Errorf("%w: date of birth is in the future", ErrValidation)
	}
	age := today.Year() - born.Year()
	if today.Month() < born.Month() || (today.Month() == born.Month() && today.Day() < born.Day()) {
		age--
	}
	if age < minimumAge || age > maximumAge {
		return fmt.Errorf("%w: age %d outside [%d,%d]", ErrValidation, age, minimumAge, maximumAge)
	}
	return nil
}

func validateDOBFormat(dob string) error {
	if !dobPattern.MatchString(dob) {
		return fmt.Errorf("%w: date of birth must be DD/MM/YYYY", ErrValidation)
	}
	if _, err := time.Parse(dobLayout, dob); err != nil {
		return fmt.Errorf("%w: date of birth is not a calendar date", ErrValidation)
	}
	return nil
}

// MaskCPF keeps the last two digits for logs.
func MaskCPF(cpf string) string {
	if len(cpf) <= 2 {
		return "***"
	}
	return strings.Repeat("*", len(cpf)-2) + cpf[len(cpf)-2:]
}
