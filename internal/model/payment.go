package model

import "time"

// Payment types accepted for requests and payments.
const (
	PaymentTypeHostelFee       = "Hostel Fee"
	PaymentTypeMessFee         = "Mess Fee"
	PaymentTypeSecurityDeposit = "Security Deposit"
	PaymentTypeFine            = "Fine"
	PaymentTypeOther           = "Other"
)

// Payment methods.
const (
	MethodCash   = "Cash"
	MethodOnline = "Online"
	MethodCheck  = "Check"
	MethodUPI    = "UPI"
)

// PaymentTypes lists the accepted payment types in display order.
var PaymentTypes = []string{PaymentTypeHostelFee, PaymentTypeMessFee, PaymentTypeSecurityDeposit, PaymentTypeFine, PaymentTypeOther}

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []string{MethodCash, MethodOnline, MethodCheck, MethodUPI}

// ValidPaymentType reports whether t is an accepted payment type.
func ValidPaymentType(t string) bool { return contains(PaymentTypes, t) }

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool { return contains(PaymentMethods, m) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Payment is a settled payment (`payments` table).  It is either recorded
// directly by an admin or created when a PaymentRequest is verified, in
// which case RequestID links back to the request.
//
// Amount is kept as the decimal string returned by the database so no
// precision is lost between the store and the wire.
type Payment struct {
	ID            uint64    `json:"id"`             // payments.id
	StudentID     string    `json:"student_id"`     // payments.student_id
	StudentName   string    `json:"student_name"`   // payments.student_name
	Amount        string    `json:"amount"`         // payments.amount DECIMAL(10,2)
	Type          string    `json:"type"`           // payments.type
	Method        string    `json:"method"`         // payments.method
	ReceiptNumber string    `json:"receipt_number"` // payments.receipt_number
	Remarks       *string   `json:"remarks"`        // payments.remarks (nullable)
	RequestID     *uint64   `json:"request_id"`     // payments.request_id (nullable)
	PaidAt        time.Time `json:"paid_at"`        // payments.paid_at
	CreatedAt     time.Time `json:"created_at"`     // payments.created_at
}
