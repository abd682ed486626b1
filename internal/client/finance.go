package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/smartstay/internal/model"
)

// PlaceholderAmount marks seed rows that listings hide unless the client
// was built with WithExcludePlaceholder(false).
const PlaceholderAmount = 20.0

// PaymentRecord is a settled payment as presented to screens.
type PaymentRecord struct {
	ID            uint64    `json:"id"`
	StudentID     string    `json:"studentId"`
	StudentName   string    `json:"studentName"`
	Amount        float64   `json:"amount"`
	Type          string    `json:"type"`
	Method        string    `json:"method"`
	ReceiptNumber string    `json:"receiptNumber"`
	Remarks       string    `json:"remarks,omitempty"`
	RequestID     *uint64   `json:"requestId,omitempty"`
	PaidAt        time.Time `json:"paidAt"`
}

// RequestRecord is a fee request as presented to screens.
type RequestRecord struct {
	ID            uint64     `json:"id"`
	StudentID     string     `json:"studentId"`
	StudentName   string     `json:"studentName"`
	Amount        float64    `json:"amount"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	DueDate       string     `json:"dueDate"`
	Remarks       string     `json:"remarks,omitempty"`
	ReceiptNumber string     `json:"receiptNumber,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToPaymentRecord maps a server payment row.
func ToPaymentRecord(p *model.Payment) (PaymentRecord, error) {
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return PaymentRecord{}, err
	}
	return PaymentRecord{
		ID:            p.ID,
		StudentID:     p.StudentID,
		StudentName:   p.StudentName,
		Amount:        amount,
		Type:          p.Type,
		Method:        p.Method,
		ReceiptNumber: p.ReceiptNumber,
		Remarks:       deref(p.Remarks),
		RequestID:     p.RequestID,
		PaidAt:        p.PaidAt,
	}, nil
}

// ToRequestRecord maps a server payment request row.
func ToRequestRecord(r *model.PaymentRequest) (RequestRecord, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return RequestRecord{}, err
	}
	return RequestRecord{
		ID:            r.ID,
		StudentID:     r.StudentID,
		StudentName:   r.StudentName,
		Amount:        amount,
		Type:          r.Type,
		Status:        r.Status,
		Method:        deref(r.Method),
		DueDate:       r.DueDate,
		Remarks:       deref(r.Remarks),
		ReceiptNumber: deref(r.ReceiptNumber),
		CreatedAt:     r.CreatedAt,
		PaidAt:        r.PaidAt,
		VerifiedAt:    r.VerifiedAt,
	}, nil
}

func (c *Client) payments(rows []*model.Payment) ([]PaymentRecord, error) {
	out := make([]PaymentRecord, 0, len(rows))
	for _, p := range rows {
		rec, err := ToPaymentRecord(p)
		if err != nil {
			return nil, err
		}
		if c.excludePlaceholder && rec.Amount == PlaceholderAmount {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) requests(rows []*model.PaymentRequest) ([]RequestRecord, error) {
	out := make([]RequestRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := ToRequestRecord(r)
		if err != nil {
			return nil, err
		}
		if c.excludePlaceholder && rec.Amount == PlaceholderAmount {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// RecentPayments lists the most recent payments across all students.  A
// limit of zero leaves the row count to the server default.
func (c *Client) RecentPayments(ctx context.Context, limit int) ([]PaymentRecord, error) {
	if limit < 0 {
		return nil, &model.ValidationError{Field: "limit", Message: "limit must be a positive integer"}
	}
	path := "/services/payments/all"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var rows []*model.Payment
	if _, err := c.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return c.payments(rows)
}

// StudentPayments lists one student's payments.  Students may only ask
// for their own.
func (c *Client) StudentPayments(ctx context.Context, studentID string) ([]PaymentRecord, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, &model.ValidationError{Field: "student_id", Message: "student id is required"}
	}
	var rows []*model.Payment
	if _, err := c.do(ctx, http.MethodGet, "/services/payments/student/"+url.PathEscape(studentID), nil, &rows); err != nil {
		return nil, err
	}
	return c.payments(rows)
}

// PaymentRequests lists fee requests, optionally narrowed to one status.
func (c *Client) PaymentRequests(ctx context.Context, status string) ([]RequestRecord, error) {
	path := "/services/payments/requests"
	if status != "" {
		if !model.ValidRequestStatus(status) {
			return nil, &model.ValidationError{Field: "status", Message: "unknown request status"}
		}
		path += "?status=" + url.QueryEscape(status)
	}
	var rows []*model.PaymentRequest
	if _, err := c.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return c.requests(rows)
}

// CreatePaymentRequest raises a fee request for a student.
func (c *Client) CreatePaymentRequest(ctx context.Context, in model.PaymentRequestInput) (RequestRecord, error) {
	if err := in.Validate(); err != nil {
		return RequestRecord{}, err
	}
	var row model.PaymentRequest
	if _, err := c.do(ctx, http.MethodPost, "/services/payments/request", in, &row); err != nil {
		return RequestRecord{}, err
	}
	return ToRequestRecord(&row)
}

type settledBody struct {
	Payment       model.Payment `json:"payment"`
	ReceiptNumber string        `json:"receipt_number"`
}

// RecordPayment records a payment taken at the office and returns it with
// its receipt number filled in.
func (c *Client) RecordPayment(ctx context.Context, in model.RecordPaymentInput) (PaymentRecord, error) {
	if err := in.Validate(); err != nil {
		return PaymentRecord{}, err
	}
	var body settledBody
	if _, err := c.do(ctx, http.MethodPost, "/services/payments/record", in, &body); err != nil {
		return PaymentRecord{}, err
	}
	return ToPaymentRecord(&body.Payment)
}

// VerifyPaymentRequest confirms a paid request and returns the payment it
// settled into.
func (c *Client) VerifyPaymentRequest(ctx context.Context, id uint64) (PaymentRecord, error) {
	var body settledBody
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/services/payments/%d/verify", id), nil, &body); err != nil {
		return PaymentRecord{}, err
	}
	return ToPaymentRecord(&body.Payment)
}

// PayRequest marks one of the caller's requests as paid with method.
func (c *Client) PayRequest(ctx context.Context, id uint64, method string) (RequestRecord, error) {
	if !model.ValidPaymentMethod(method) {
		return RequestRecord{}, &model.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	var row model.PaymentRequest
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/services/payments/%d/pay", id), map[string]string{"method": method}, &row); err != nil {
		return RequestRecord{}, err
	}
	return ToRequestRecord(&row)
}

func (c *Client) DeletePayment(ctx context.Context, id uint64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/services/payments/%d", id), nil, nil)
	return err
}

// ExportPayments downloads the xlsx export for the inclusive date range.
// Zero times leave the bound to the server default.
func (c *Client) ExportPayments(ctx context.Context, from, to time.Time) ([]byte, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		q.Set("to", to.Format("2006-01-02"))
	}
	path := "/services/payments/export"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
