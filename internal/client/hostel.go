package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/smartstay/internal/model"
)

// FacilityInput is the body of facility create and update calls.
type FacilityInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (c *Client) Facilities(ctx context.Context) ([]*model.Facility, error) {
	var out []*model.Facility
	_, err := c.do(ctx, http.MethodGet, "/facilities", nil, &out)
	return out, err
}

func (c *Client) CreateFacility(ctx context.Context, in FacilityInput) (*model.Facility, error) {
	return c.saveFacility(ctx, http.MethodPost, "/facilities", in)
}

func (c *Client) UpdateFacility(ctx context.Context, id uint64, in FacilityInput) (*model.Facility, error) {
	return c.saveFacility(ctx, http.MethodPut, fmt.Sprintf("/facilities/%d", id), in)
}

func (c *Client) saveFacility(ctx context.Context, method, path string, in FacilityInput) (*model.Facility, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	var f model.Facility
	if _, err := c.do(ctx, method, path, in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) DeleteFacility(ctx context.Context, id uint64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/facilities/%d", id), nil, nil)
	return err
}

// ReorderFacilities sets the display order and returns the reordered list.
func (c *Client) ReorderFacilities(ctx context.Context, ids []uint64) ([]*model.Facility, error) {
	if len(ids) == 0 {
		return nil, &model.ValidationError{Field: "orderedIds", Message: "orderedIds is required"}
	}
	var out []*model.Facility
	_, err := c.do(ctx, http.MethodPut, "/facilities/reorder", map[string][]uint64{"orderedIds": ids}, &out)
	return out, err
}

func (c *Client) HostelInfo(ctx context.Context) (*model.HostelInfo, error) {
	var h model.HostelInfo
	if _, err := c.do(ctx, http.MethodGet, "/hostel-info", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// UpdateHostelInfo replaces the hostel information.  Phone numbers, when
// given, must be ten digits.
func (c *Client) UpdateHostelInfo(ctx context.Context, in model.HostelInfo) (*model.HostelInfo, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	case in.WardenPhone != "" && !model.ValidPhone(in.WardenPhone):
		return nil, &model.ValidationError{Field: "warden_phone", Message: "phone must be exactly 10 digits"}
	case in.EmergencyPhone != "" && !model.ValidPhone(in.EmergencyPhone):
		return nil, &model.ValidationError{Field: "emergency_phone", Message: "phone must be exactly 10 digits"}
	}
	var h model.HostelInfo
	if _, err := c.do(ctx, http.MethodPut, "/hostel-info", in, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Rooms lists rooms, optionally narrowed to vacant, occupied or full.
func (c *Client) Rooms(ctx context.Context, status string) ([]*model.Room, error) {
	path := "/rooms"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []*model.Room
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, number string) (*model.Room, error) {
	var r model.Room
	if _, err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(number), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// AllocateRoom places a student in a room, creating the room on first use.
func (c *Client) AllocateRoom(ctx context.Context, number, studentID, studentName string) (*model.Room, error) {
	return c.roomOp(ctx, number, "allocate", studentID, studentName)
}

func (c *Client) DeallocateRoom(ctx context.Context, number, studentID string) (*model.Room, error) {
	return c.roomOp(ctx, number, "deallocate", studentID, "")
}

func (c *Client) roomOp(ctx context.Context, number, op, studentID, studentName string) (*model.Room, error) {
	if strings.TrimSpace(number) == "" {
		return nil, &model.ValidationError{Field: "number", Message: "room number is required"}
	}
	if strings.TrimSpace(studentID) == "" {
		return nil, &model.ValidationError{Field: "student_id", Message: "student id is required"}
	}
	body := map[string]string{"student_id": studentID, "student_name": studentName}
	var r model.Room
	if _, err := c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(number)+"/"+op, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRoom removes an empty room.  Occupied rooms fail with a 409.
func (c *Client) DeleteRoom(ctx context.Context, number string) error {
	_, err := c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(number), nil, nil)
	return err
}

// StudentHit is a student matched by the global search.
type StudentHit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
	Email  string `json:"email"`
	Room   string `json:"room"`
}

// RoomHit is a room matched by the global search.
type RoomHit struct {
	Number    string `json:"number"`
	Capacity  int    `json:"capacity"`
	Occupants int    `json:"occupants"`
	SpotsLeft int    `json:"spots_left"`
	Status    string `json:"status"`
}

type SearchResult struct {
	Students []StudentHit `json:"students"`
	Rooms    []RoomHit    `json:"rooms"`
}

// Search runs the global prefix search.  Blank text returns an empty
// result without a request.
func (c *Client) Search(ctx context.Context, text string) (*SearchResult, error) {
	res := &SearchResult{Students: []StudentHit{}, Rooms: []RoomHit{}}
	text = strings.TrimSpace(text)
	if text == "" {
		return res, nil
	}
	if _, err := c.do(ctx, http.MethodGet, "/search?q="+url.QueryEscape(text), nil, res); err != nil {
		return nil, err
	}
	return res, nil
}
