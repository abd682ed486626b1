// Package queue defines the workflow events exchanged over the message
// broker and the worker that records them.
package queue

// Queue names.  Each queue is durable and carries one event type.
const (
	VisitorQueue = "smartstay.visitor"
	PaymentQueue = "smartstay.payment"
	RoomQueue    = "smartstay.room"
)

// Queues lists every queue the worker consumes.
var Queues = []string{VisitorQueue, PaymentQueue, RoomQueue}

// VisitorEvent is published after a visitor record is created or changes
// status.  From is empty for registrations.
type VisitorEvent struct {
	VisitorID   uint64 `json:"visitor_id"`
	StudentID   string `json:"student_id"`
	VisitorName string `json:"visitor_name"`
	RoomNumber  string `json:"room_number"`
	From        string `json:"from,omitempty"`
	To          string `json:"to"`
	Actor       string `json:"actor"`
	At          string `json:"at"`
}

// Payment event kinds.
const (
	PaymentRequested = "requested"
	PaymentRecorded  = "recorded"
	PaymentPaid      = "paid"
	PaymentVerified  = "verified"
	PaymentDeleted   = "deleted"
)

// PaymentEvent is published for every finance workflow write.
type PaymentEvent struct {
	Kind          string `json:"kind"`
	RequestID     uint64 `json:"request_id,omitempty"`
	PaymentID     uint64 `json:"payment_id,omitempty"`
	StudentID     string `json:"student_id,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Type          string `json:"type,omitempty"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Actor         string `json:"actor"`
	At            string `json:"at"`
}

// Room event kinds.
const (
	RoomAllocated   = "allocated"
	RoomDeallocated = "deallocated"
	RoomDeleted     = "deleted"
)

// RoomEvent is published after an occupancy change commits.
type RoomEvent struct {
	Kind      string `json:"kind"`
	Room      string `json:"room"`
	StudentID string `json:"student_id,omitempty"`
	Occupants int    `json:"occupants"`
	Capacity  int    `json:"capacity"`
	Status    string `json:"status"`
	At        string `json:"at"`
}
