package model

import "time"

// DefaultRoomCapacity is the capacity given to rooms created implicitly by
// their first allocation and assumed for rooms whose capacity is unset.
const DefaultRoomCapacity = 2

// Room status values.  Status is derived from the occupant count and is
// stored only so that listings can filter on it.
const (
	RoomVacant   = "vacant"
	RoomOccupied = "occupied"
	RoomFull     = "full"
)

// Occupant is the denormalized display entry kept next to each occupant id.
type Occupant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is one entry of the occupancy ledger (`rooms` table).  Occupants and
// OccupantDetails are stored as JSON arrays.  They must always contain the
// same set of ids, although their order may differ.
//
// Fields:
//
//   - Number: room number, primary key.
//   - Capacity: maximum number of occupants.
//   - Occupants: ordered student ids.
//   - OccupantDetails: {id, name} pairs for display.
//   - Status: vacant, occupied or full.
//   - Version: incremented on every write; used for compare-and-swap.
type Room struct {
	Number          string     `json:"number"`           // rooms.number
	Capacity        int        `json:"capacity"`         // rooms.capacity
	Occupants       []string   `json:"occupants"`        // rooms.occupants (JSON)
	OccupantDetails []Occupant `json:"occupant_details"` // rooms.occupant_details (JSON)
	Status          string     `json:"status"`           // rooms.status
	Version         uint64     `json:"version"`          // rooms.version
	CreatedAt       time.Time  `json:"created_at"`       // rooms.created_at
	UpdatedAt       time.Time  `json:"updated_at"`       // rooms.updated_at
}

// RoomStatus derives the status for a room holding n occupants.
func RoomStatus(n, capacity int) string {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	switch {
	case n == 0:
		return RoomVacant
	case n >= capacity:
		return RoomFull
	default:
		return RoomOccupied
	}
}

// EffectiveCapacity returns the room capacity, falling back to the default
// when the stored value is unset.
func (r *Room) EffectiveCapacity() int {
	if r.Capacity <= 0 {
		return DefaultRoomCapacity
	}
	return r.Capacity
}

// SpotsLeft is the number of free beds in the room.
func (r *Room) SpotsLeft() int {
	n := r.EffectiveCapacity() - len(r.Occupants)
	if n < 0 {
		return 0
	}
	return n
}

// HasOccupant reports whether studentID is listed in Occupants.
func (r *Room) HasOccupant(studentID string) bool {
	for _, id := range r.Occupants {
		if id == studentID {
			return true
		}
	}
	return false
}

// AddOccupant appends a student to both occupant lists.  It returns
// changed=false when the student is already present (allocation is
// idempotent) and full=true when the room has no free bed.  A stale detail
// entry for the student is replaced.  The receiver is left untouched unless
// changed is true.
func (r *Room) AddOccupant(studentID, name string) (changed, full bool) {
	if r.HasOccupant(studentID) {
		return false, false
	}
	if len(r.Occupants) >= r.EffectiveCapacity() {
		return false, true
	}
	details := make([]Occupant, 0, len(r.OccupantDetails)+1)
	for _, d := range r.OccupantDetails {
		if d.ID != studentID {
			details = append(details, d)
		}
	}
	r.Occupants = append(r.Occupants, studentID)
	r.OccupantDetails = append(details, Occupant{ID: studentID, Name: name})
	r.Status = RoomStatus(len(r.Occupants), r.Capacity)
	return true, false
}

// RemoveOccupant filters studentID out of both occupant lists
// independently, so a detail entry is dropped even when the two lists
// have drifted apart.  It reports whether anything changed.
func (r *Room) RemoveOccupant(studentID string) bool {
	occupants := make([]string, 0, len(r.Occupants))
	for _, id := range r.Occupants {
		if id != studentID {
			occupants = append(occupants, id)
		}
	}
	details := make([]Occupant, 0, len(r.OccupantDetails))
	for _, d := range r.OccupantDetails {
		if d.ID != studentID {
			details = append(details, d)
		}
	}
	if len(occupants) == len(r.Occupants) && len(details) == len(r.OccupantDetails) {
		return false
	}
	r.Occupants = occupants
	r.OccupantDetails = details
	r.Status = RoomStatus(len(occupants), r.Capacity)
	return true
}
