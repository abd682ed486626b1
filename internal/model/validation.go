package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationError reports a missing or malformed input field.  It is raised
// before anything is persisted, and by the client before any request is
// sent.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

var phoneRE = regexp.MustCompile(`^\d{10}$`)

// ValidPhone reports whether s is exactly ten ASCII digits.
func ValidPhone(s string) bool { return phoneRE.MatchString(s) }

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// VisitorInput is the payload of a visitor registration.
type VisitorInput struct {
	VisitorName     string `json:"visitor_name" validate:"required"`
	VisitorPhone    string `json:"visitor_phone" validate:"required,phone10"`
	VisitorRelation string `json:"visitor_relation"`
	Purpose         string `json:"purpose" validate:"required"`
	ExpectedDate    string `json:"expected_date" validate:"required,datetime=2006-01-02"`
	ExpectedTimeIn  string `json:"expected_time_in"`
	ExpectedTimeOut string `json:"expected_time_out"`
}

// Normalize trims surrounding whitespace from every field.
func (in *VisitorInput) Normalize() {
	in.VisitorName = strings.TrimSpace(in.VisitorName)
	in.VisitorPhone = strings.TrimSpace(in.VisitorPhone)
	in.VisitorRelation = strings.TrimSpace(in.VisitorRelation)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.ExpectedDate = strings.TrimSpace(in.ExpectedDate)
	in.ExpectedTimeIn = strings.TrimSpace(in.ExpectedTimeIn)
	in.ExpectedTimeOut = strings.TrimSpace(in.ExpectedTimeOut)
}

// Validate checks the registration rules and returns the first violation.
func (in VisitorInput) Validate() error {
	switch {
	case strings.TrimSpace(in.VisitorName) == "":
		return invalid("visitor_name", "visitor name is required")
	case strings.TrimSpace(in.VisitorPhone) == "":
		return invalid("visitor_phone", "visitor phone is required")
	case !ValidPhone(strings.TrimSpace(in.VisitorPhone)):
		return invalid("visitor_phone", "visitor phone must be exactly 10 digits")
	case strings.TrimSpace(in.Purpose) == "":
		return invalid("purpose", "purpose is required")
	case strings.TrimSpace(in.ExpectedDate) == "":
		return invalid("expected_date", "expected date is required")
	case !ValidDate(strings.TrimSpace(in.ExpectedDate)):
		return invalid("expected_date", "expected date must be YYYY-MM-DD")
	}
	return nil
}

// ValidateRemarks requires non-blank remarks, as demanded on rejection.
func ValidateRemarks(remarks string) error {
	if strings.TrimSpace(remarks) == "" {
		return invalid("remarks", "remarks are required")
	}
	return nil
}

// PaymentRequestInput is the payload of POST /services/payments/request.
// Amount accepts a JSON number or a numeric string.
type PaymentRequestInput struct {
	StudentID   string      `json:"student_id" validate:"required"`
	StudentName string      `json:"student_name"`
	Amount      json.Number `json:"amount" validate:"required"`
	Type        string      `json:"type" validate:"required"`
	DueDate     string      `json:"due_date" validate:"required,datetime=2006-01-02"`
	Remarks     *string     `json:"remarks"`
}

func (in PaymentRequestInput) Validate() error {
	if strings.TrimSpace(in.StudentID) == "" {
		return invalid("student_id", "student id is required")
	}
	if err := validateAmount(in.Amount.String()); err != nil {
		return err
	}
	if !ValidPaymentType(in.Type) {
		return invalid("type", "unknown payment type")
	}
	if !ValidDate(in.DueDate) {
		return invalid("due_date", "due date must be YYYY-MM-DD")
	}
	return nil
}

// RecordPaymentInput is the payload of POST /services/payments/record.
type RecordPaymentInput struct {
	StudentID string      `json:"student_id" validate:"required"`
	Amount    json.Number `json:"amount" validate:"required"`
	Type      string      `json:"type" validate:"required"`
	Method    string      `json:"method" validate:"required"`
	Remarks   *string     `json:"remarks"`
}

func (in RecordPaymentInput) Validate() error {
	if strings.TrimSpace(in.StudentID) == "" {
		return invalid("student_id", "student id is required")
	}
	if err := validateAmount(in.Amount.String()); err != nil {
		return err
	}
	if !ValidPaymentType(in.Type) {
		return invalid("type", "unknown payment type")
	}
	if !ValidPaymentMethod(in.Method) {
		return invalid("method", "unknown payment method")
	}
	return nil
}

// NormalizeAmount parses a positive decimal with at most two fractional
// digits and returns it formatted with exactly two.
func NormalizeAmount(s string) (string, error) {
	if err := validateAmount(s); err != nil {
		return "", err
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return strconv.FormatFloat(f, 'f', 2, 64), nil
}

var amountRE = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

func validateAmount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return invalid("amount", "amount is required")
	}
	if !amountRE.MatchString(s) {
		return invalid("amount", "amount must be a decimal with at most two fraction digits")
	}
	if f, _ := strconv.ParseFloat(s, 64); f <= 0 {
		return invalid("amount", "amount must be greater than zero")
	}
	return nil
}
