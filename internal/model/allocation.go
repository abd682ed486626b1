package model

// Allocation is a student directory entry (`allocations` table).  It links a
// student to the room they currently live in and carries the fields that
// global search matches on.
type Allocation struct {
	StudentID string `json:"student_id"` // allocations.student_id
	Name      string `json:"name"`       // allocations.name
	RollNo    string `json:"roll_no"`    // allocations.roll_no
	Email     string `json:"email"`      // allocations.email
	Room      string `json:"room"`       // allocations.room (empty when unallocated)
}
