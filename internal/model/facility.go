package model

import "time"

// Facility is an amenity shown on the hostel facilities screen.  Facilities
// are listed in SortOrder ascending.
type Facility struct {
	ID          uint64    `json:"id"`          // facilities.id
	Name        string    `json:"name"`        // facilities.name
	Description string    `json:"description"` // facilities.description
	Icon        string    `json:"icon"`        // facilities.icon
	SortOrder   int       `json:"sort_order"`  // facilities.sort_order
	CreatedAt   time.Time `json:"created_at"`  // facilities.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // facilities.updated_at
}

// HostelInfo is the single row of the `hostel_info` table.
type HostelInfo struct {
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	WardenName     string    `json:"warden_name"`
	WardenPhone    string    `json:"warden_phone"`
	EmergencyPhone string    `json:"emergency_phone"`
	Rules          string    `json:"rules"`
	UpdatedAt      time.Time `json:"updated_at"`
}
