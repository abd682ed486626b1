package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddOccupantIdempotentAndBounded(t *testing.T) {
	r := &Room{Number: "A-101", Capacity: 2}

	changed, full := r.AddOccupant("s1", "Asha")
	assert.True(t, changed)
	assert.False(t, full)
	assert.Equal(t, RoomOccupied, r.Status)

	changed, full = r.AddOccupant("s1", "Asha")
	assert.False(t, changed)
	assert.False(t, full)
	assert.Len(t, r.Occupants, 1)

	changed, _ = r.AddOccupant("s2", "Bina")
	assert.True(t, changed)
	assert.Equal(t, RoomFull, r.Status)

	changed, full = r.AddOccupant("s3", "Chetan")
	assert.False(t, changed)
	assert.True(t, full)
	assert.Equal(t, []string{"s1", "s2"}, r.Occupants)
	assert.Equal(t, 0, r.SpotsLeft())
}

func TestOccupantListsStayInSync(t *testing.T) {
	r := &Room{Number: "B-2", Capacity: 4}
	for i := 0; i < 6; i++ {
		r.AddOccupant(fmt.Sprintf("s%d", i%3), "n")
		assert.LessOrEqual(t, len(r.Occupants), r.EffectiveCapacity())
		assert.Len(t, r.OccupantDetails, len(r.Occupants))
	}
	r.RemoveOccupant("s1")
	assert.Equal(t, []string{"s0", "s2"}, r.Occupants)
	for i, d := range r.OccupantDetails {
		assert.Equal(t, r.Occupants[i], d.ID)
	}
}

func TestRemoveOccupantDropsDriftedDetail(t *testing.T) {
	r := &Room{
		Number:          "C-3",
		Capacity:        2,
		Occupants:       []string{"s1"},
		OccupantDetails: []Occupant{{ID: "s1", Name: "Asha"}, {ID: "s2", Name: "Bina"}},
	}
	assert.True(t, r.RemoveOccupant("s2"))
	assert.Equal(t, []string{"s1"}, r.Occupants)
	assert.Len(t, r.OccupantDetails, 1)

	assert.True(t, r.RemoveOccupant("s1"))
	assert.Empty(t, r.Occupants)
	assert.Equal(t, RoomVacant, r.Status)
	assert.False(t, r.RemoveOccupant("s1"))
}

func TestAddOccupantReplacesDriftedDetail(t *testing.T) {
	r := &Room{
		Number:          "A-103",
		Capacity:        3,
		Occupants:       []string{"s1"},
		OccupantDetails: []Occupant{{ID: "s1", Name: "Asha"}, {ID: "s2", Name: "Old Name"}},
	}

	changed, full := r.AddOccupant("s2", "Bilal")
	assert.True(t, changed)
	assert.False(t, full)
	assert.Equal(t, []string{"s1", "s2"}, r.Occupants)
	assert.Equal(t, []Occupant{{ID: "s1", Name: "Asha"}, {ID: "s2", Name: "Bilal"}}, r.OccupantDetails)
}

func TestUnsetCapacityFallsBackToDefault(t *testing.T) {
	r := &Room{Number: "D-4"}
	assert.Equal(t, DefaultRoomCapacity, r.EffectiveCapacity())
	assert.Equal(t, DefaultRoomCapacity, r.SpotsLeft())
	assert.Equal(t, RoomFull, RoomStatus(2, 0))
}
