/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: dates cross the
  wire as MM-DD-YYYY strings and amounts as decimal strings, and parsing
  happens exactly once, at this boundary.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - forecast/types.go: The domain model these map onto
*/
package api

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/forecast"
)

func errInvalidAmount(value string, err error) error {
	return fmt.Errorf("invalid amount %q: %w", value, err)
}

func errNegativeAmount(value string) error {
	return fmt.Errorf("amount %q must be non-negative", value)
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID                      string `json:"id"`
	UserID                  string `json:"user_id"`
	Type                    string `json:"type"`
	Name                    string `json:"name"`
	Amount                  string `json:"amount"`
	Frequency               string `json:"frequency"`
	DateOfTransaction       string `json:"date_of_transaction,omitempty"`
	DateOfSecondTransaction string `json:"date_of_second_transaction,omitempty"`
	Day                     int    `json:"day,omitempty"`
	StartDate               string `json:"start_date,omitempty"`
	EndDate                 string `json:"end_date,omitempty"`
	SkipEndDate             bool   `json:"skip_end_date"`
	LastDayOfMonth          bool   `json:"last_day_of_month"`
}

// CreateTransactionRequest is the request to create or update a transaction.
type CreateTransactionRequest struct {
	UserID                  string `json:"user_id"`
	Type                    string `json:"type"`
	Name                    string `json:"name"`
	Amount                  string `json:"amount"`
	Frequency               string `json:"frequency"`
	DateOfTransaction       string `json:"date_of_transaction,omitempty"`
	DateOfSecondTransaction string `json:"date_of_second_transaction,omitempty"`
	Day                     int    `json:"day,omitempty"`
	StartDate               string `json:"start_date,omitempty"`
	EndDate                 string `json:"end_date,omitempty"`
	SkipEndDate             bool   `json:"skip_end_date"`
	LastDayOfMonth          bool   `json:"last_day_of_month"`
}

// BorrowRequest records a loan: income now, expense on the return date.
type BorrowRequest struct {
	AmountBorrowed     string `json:"amount_borrowed"`
	AmountToBeReturned string `json:"amount_to_be_returned"`
	CurrentDate        string `json:"current_date"`
	DateOfReturn       string `json:"date_of_return"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// toDomain parses the raw request into a domain transaction. Field formats
// are validated here, once; the engine downstream assumes parsed input.
func (r CreateTransactionRequest) toDomain() (forecast.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return forecast.Transaction{}, errInvalidAmount(r.Amount, err)
	}
	if amount.IsNegative() {
		return forecast.Transaction{}, errNegativeAmount(r.Amount)
	}

	t := forecast.Transaction{
		UserID:         r.UserID,
		Type:           forecast.TransactionType(r.Type),
		Name:           r.Name,
		Amount:         amount,
		Frequency:      forecast.Frequency(r.Frequency),
		Day:            r.Day,
		SkipEndDate:    r.SkipEndDate,
		LastDayOfMonth: r.LastDayOfMonth,
	}

	dates := []struct {
		value string
		dst   *forecast.Date
		field string
	}{
		{r.DateOfTransaction, &t.DateOfTransaction, "date_of_transaction"},
		{r.DateOfSecondTransaction, &t.DateOfSecondTransaction, "date_of_second_transaction"},
		{r.StartDate, &t.StartDate, "start_date"},
		{r.EndDate, &t.EndDate, "end_date"},
	}
	for _, d := range dates {
		parsed, err := forecast.ParseDate(d.value)
		if err != nil {
			var malformed *forecast.MalformedDateError
			if errors.As(err, &malformed) {
				malformed.Field = d.field
			}
			return forecast.Transaction{}, err
		}
		*d.dst = parsed
	}

	return t, nil
}

func toTransactionDTO(t forecast.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                      t.ID,
		UserID:                  t.UserID,
		Type:                    string(t.Type),
		Name:                    t.Name,
		Amount:                  t.Amount.String(),
		Frequency:               string(t.Frequency),
		DateOfTransaction:       dateString(t.DateOfTransaction),
		DateOfSecondTransaction: dateString(t.DateOfSecondTransaction),
		Day:                     t.Day,
		StartDate:               dateString(t.StartDate),
		EndDate:                 dateString(t.EndDate),
		SkipEndDate:             t.SkipEndDate,
		LastDayOfMonth:          t.LastDayOfMonth,
	}
}

func toTransactionDTOs(ts []forecast.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(ts))
	for i, t := range ts {
		dtos[i] = toTransactionDTO(t)
	}
	return dtos
}

func dateString(d forecast.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
