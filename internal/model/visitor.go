package model

import "time"

// Visitor is a visitor pass request raised by a student.  It corresponds to
// a row in the `visitors` table.  Rows are never deleted; a visitor's
// lifecycle ends in one of the terminal statuses (checked_out, rejected,
// cancelled).
//
// Fields:
//
//   - ID: primary key identifier.
//   - StudentID: student who registered the visitor (owner).
//   - VisitorName: full name of the visitor.
//   - VisitorPhone: ten digit contact number.
//   - VisitorRelation: relation to the student (optional).
//   - Purpose: reason for the visit.
//   - ExpectedDate: date of the visit (YYYY-MM-DD).
//   - ExpectedTimeIn: expected arrival time (optional, HH:MM).
//   - ExpectedTimeOut: expected departure time (optional, HH:MM).
//   - RoomNumber: copied from the student's allocation at registration.
//   - Status: see VisitorStatus.
//   - ApprovedBy: admin who approved or rejected the request.
//   - ApprovedAt: when the request was approved or rejected.
//   - CheckedInAt: gate check-in time.
//   - CheckedOutAt: gate check-out time.
//   - AdminRemarks: free text left by the admin.
//   - QRCode: pass token, set only on approval.
type Visitor struct {
	ID              uint64        `json:"id"`                // visitors.id
	StudentID       string        `json:"student_id"`        // visitors.student_id
	VisitorName     string        `json:"visitor_name"`      // visitors.visitor_name
	VisitorPhone    string        `json:"visitor_phone"`     // visitors.visitor_phone
	VisitorRelation string        `json:"visitor_relation"`  // visitors.visitor_relation
	Purpose         string        `json:"purpose"`           // visitors.purpose
	ExpectedDate    string        `json:"expected_date"`     // visitors.expected_date
	ExpectedTimeIn  string        `json:"expected_time_in"`  // visitors.expected_time_in
	ExpectedTimeOut string        `json:"expected_time_out"` // visitors.expected_time_out
	RoomNumber      string        `json:"room_number"`       // visitors.room_number
	Status          VisitorStatus `json:"status"`            // visitors.status
	ApprovedBy      *string       `json:"approved_by"`       // visitors.approved_by (nullable)
	ApprovedAt      *time.Time    `json:"approved_at"`       // visitors.approved_at (nullable)
	CheckedInAt     *time.Time    `json:"checked_in_at"`     // visitors.checked_in_at (nullable)
	CheckedOutAt    *time.Time    `json:"checked_out_at"`    // visitors.checked_out_at (nullable)
	AdminRemarks    *string       `json:"admin_remarks"`     // visitors.admin_remarks (nullable)
	QRCode          *string       `json:"qr_code"`           // visitors.qr_code (nullable)
	CreatedAt       time.Time     `json:"created_at"`        // visitors.created_at
	UpdatedAt       time.Time     `json:"updated_at"`        // visitors.updated_at
}

// VisitorFilter narrows the admin listing.  Zero values mean "no filter".
// StartDate and EndDate are inclusive bounds on ExpectedDate.
type VisitorFilter struct {
	Status       VisitorStatus
	StartDate    string
	EndDate      string
	StudentID    string
	StudentEmail string
}
