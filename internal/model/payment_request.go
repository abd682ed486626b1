package model

import "time"

// PaymentRequest status values.
const (
	RequestPending        = "pending"
	RequestPaidUnverified = "paid_unverified"
	RequestVerified       = "verified"
	RequestOverdue        = "overdue"
)

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestPending, RequestPaidUnverified, RequestVerified, RequestOverdue:
		return true
	}
	return false
}

// PaymentRequest is a fee owed by a student (`payment_requests` table).
// A request moves pending → paid_unverified when the student pays and to
// verified when an admin confirms it.  Pending requests past their due date
// are marked overdue.
type PaymentRequest struct {
	ID            uint64     `json:"id"`             // payment_requests.id
	StudentID     string     `json:"student_id"`     // payment_requests.student_id
	StudentName   string     `json:"student_name"`   // payment_requests.student_name
	Amount        string     `json:"amount"`         // payment_requests.amount DECIMAL(10,2)
	Type          string     `json:"type"`           // payment_requests.type
	Status        string     `json:"status"`         // payment_requests.status
	Method        *string    `json:"method"`         // payment_requests.method (nullable)
	DueDate       string     `json:"due_date"`       // payment_requests.due_date
	Remarks       *string    `json:"remarks"`        // payment_requests.remarks (nullable)
	ReceiptNumber *string    `json:"receipt_number"` // payment_requests.receipt_number (nullable)
	CreatedAt     time.Time  `json:"created_at"`     // payment_requests.created_at
	PaidAt        *time.Time `json:"paid_at"`        // payment_requests.paid_at (nullable)
	VerifiedAt    *time.Time `json:"verified_at"`    // payment_requests.verified_at (nullable)
}
