package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/smartstay/internal/metrics"
	"github.com/iliyamo/smartstay/internal/model"
)

// searchLimit caps each of the three prefix queries.
const searchLimit = 3

// StudentIndex is the student half of the search.
// *repository.AllocationRepo satisfies it.
type StudentIndex interface {
	SearchByName(ctx context.Context, prefix string, limit int) ([]model.Allocation, error)
	SearchByRollNo(ctx context.Context, prefix string, limit int) ([]model.Allocation, error)
}

// RoomIndex is the room half of the search.  *repository.RoomRepo
// satisfies it.
type RoomIndex interface {
	SearchByNumber(ctx context.Context, prefix string, limit int) ([]*model.Room, error)
}

// StudentHit is a student matched by name or roll number.
type StudentHit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
	Email  string `json:"email"`
	Room   string `json:"room"`
}

// RoomHit is a room matched by number.
type RoomHit struct {
	Number    string `json:"number"`
	Capacity  int    `json:"capacity"`
	Occupants int    `json:"occupants"`
	SpotsLeft int    `json:"spots_left"`
	Status    string `json:"status"`
}

// SearchResult is returned by GET /search.  Both lists are always present.
type SearchResult struct {
	Students []StudentHit `json:"students"`
	Rooms    []RoomHit    `json:"rooms"`
}

// SearchService runs the global prefix search over students and rooms.
type SearchService struct {
	students StudentIndex
	rooms    RoomIndex
	metrics  *metrics.Metrics
}

func NewSearchService(students StudentIndex, rooms RoomIndex, m *metrics.Metrics) *SearchService {
	return &SearchService{students: students, rooms: rooms, metrics: m}
}

// Search runs the name, roll number and room number queries in parallel.
// Input shorter than one character after trimming returns an empty result
// without querying.  Students found by both name and roll number appear
// once, with the name hit kept.  The first failing query fails the search.
func (s *SearchService) Search(ctx context.Context, text string) (*SearchResult, error) {
	text = strings.TrimSpace(text)
	res := &SearchResult{Students: []StudentHit{}, Rooms: []RoomHit{}}
	if len(text) < 1 {
		return res, nil
	}

	var (
		byName, byRoll []model.Allocation
		rooms          []*model.Room
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byName, err = s.students.SearchByName(gctx, text, searchLimit)
		return err
	})
	g.Go(func() (err error) {
		byRoll, err = s.students.SearchByRollNo(gctx, text, searchLimit)
		return err
	})
	g.Go(func() (err error) {
		rooms, err = s.rooms.SearchByNumber(gctx, text, searchLimit)
		return err
	})
	err := g.Wait()
	s.metrics.Search(err)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(byName)+len(byRoll))
	for _, group := range [][]model.Allocation{byName, byRoll} {
		for _, a := range group {
			if seen[a.StudentID] {
				continue
			}
			seen[a.StudentID] = true
			res.Students = append(res.Students, StudentHit{ID: a.StudentID, Name: a.Name, RollNo: a.RollNo, Email: a.Email, Room: a.Room})
		}
	}
	for _, r := range rooms {
		res.Rooms = append(res.Rooms, RoomHit{
			Number:    r.Number,
			Capacity:  r.EffectiveCapacity(),
			Occupants: len(r.Occupants),
			SpotsLeft: r.SpotsLeft(),
			Status:    r.Status,
		})
	}
	return res, nil
}
