package apiutil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/billing"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return value, nil
}

// ParseDateField parses a required YYYY-MM-DD value.
func ParseDateField(raw string, field string) (billing.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return billing.Date{}, FieldError{Field: field, Reason: "is required"}
	}
	day, err := billing.ParseDate(raw)
	if err != nil {
		return billing.Date{}, FieldError{Field: field, Reason: "must be a date in YYYY-MM-DD form"}
	}
	return day, nil
}

// DateRangeFromQuery reads either ?date= (single day) or ?start=&end=
// from the request. Range validity is checked before any query runs.
func DateRangeFromQuery(r *http.Request) (start, end billing.Date, err error) {
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		day, err := ParseDateField(raw, "date")
		if err != nil {
			return billing.Date{}, billing.Date{}, err
		}
		return day, day, nil
	}

	start, err = ParseDateField(query.Get("start"), "start")
	if err != nil {
		return billing.Date{}, billing.Date{}, err
	}
	end, err = ParseDateField(query.Get("end"), "end")
	if err != nil {
		return billing.Date{}, billing.Date{}, err
	}
	if end.Before(start) {
		return billing.Date{}, billing.Date{}, FieldError{Field: "end", Reason: "must not be before start"}
	}
	return start, end, nil
}

// ParseAmountField parses a non-negative decimal money amount.
func ParseAmountField(raw string, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, FieldError{Field: field, Reason: "is required"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, FieldError{Field: field, Reason: "must be a decimal amount"}
	}
	if amount.IsNegative() {
		return decimal.Zero, FieldError{Field: field, Reason: "must not be negative"}
	}
	return amount, nil
}

// ParsePhoneField validates an optional guest phone number. The front
// desk records mainland numbers, so bare national numbers parse against
// the CN region.
func ParsePhoneField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := phonenumbers.Parse(raw, "CN")
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be a valid phone number"}
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", FieldError{Field: field, Reason: "must be a valid phone number"}
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// FirstNonEmpty returns the first non-blank value.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
