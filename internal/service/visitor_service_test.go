package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/queue"
	"github.com/iliyamo/smartstay/internal/repository"
)

type memVisitors struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Visitor
	writes int
}

func newMemVisitors() *memVisitors { return &memVisitors{rows: map[uint64]model.Visitor{}} }

func (m *memVisitors) Create(_ context.Context, v *model.Visitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.writes++
	v.ID = m.nextID
	v.CreatedAt = time.Now()
	m.rows[v.ID] = *v
	return nil
}

func (m *memVisitors) GetByID(_ context.Context, id uint64) (*model.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (m *memVisitors) GetByQRCode(_ context.Context, code string) (*model.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.rows {
		if v.QRCode != nil && *v.QRCode == code {
			v := v
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memVisitors) ListByStudent(_ context.Context, studentID string) ([]*model.Visitor, error) {
	return m.filter(func(v model.Visitor) bool { return v.StudentID == studentID }), nil
}

func (m *memVisitors) ListByStatus(_ context.Context, statuses ...model.VisitorStatus) ([]*model.Visitor, error) {
	return m.filter(func(v model.Visitor) bool {
		for _, s := range statuses {
			if v.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (m *memVisitors) List(_ context.Context, f model.VisitorFilter) ([]*model.Visitor, error) {
	return m.filter(func(v model.Visitor) bool { return f.Status == "" || v.Status == f.Status }), nil
}

func (m *memVisitors) filter(keep func(model.Visitor) bool) []*model.Visitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Visitor{}
	for id := uint64(1); id <= m.nextID; id++ {
		if v, ok := m.rows[id]; ok && keep(v) {
			v := v
			out = append(out, &v)
		}
	}
	return out
}

func (m *memVisitors) Transition(_ context.Context, id uint64, from, to model.VisitorStatus, u repository.VisitorUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok || v.Status != from {
		return repository.ErrInvalidTransition
	}
	m.writes++
	v.Status = to
	if u.ApprovedBy != nil {
		v.ApprovedBy = u.ApprovedBy
	}
	if u.ApprovedAt != nil {
		v.ApprovedAt = u.ApprovedAt
	}
	if u.CheckedInAt != nil {
		v.CheckedInAt = u.CheckedInAt
	}
	if u.CheckedOutAt != nil {
		v.CheckedOutAt = u.CheckedOutAt
	}
	if u.AdminRemarks != nil {
		v.AdminRemarks = u.AdminRemarks
	}
	if u.QRCode != nil {
		v.QRCode = u.QRCode
	}
	m.rows[id] = v
	return nil
}

type staticDirectory map[string]model.Allocation

func (d staticDirectory) Get(_ context.Context, id string) (*model.Allocation, error) {
	a, ok := d[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	queues []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, q string, ev any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, q)
	p.events = append(p.events, ev)
	return p.err
}

func validInput() model.VisitorInput {
	return model.VisitorInput{
		VisitorName:  "Ravi Kumar",
		VisitorPhone: "9998887770",
		Purpose:      "Family visit",
		ExpectedDate: "2025-06-01",
	}
}

func newVisitorFixture() (*VisitorService, *memVisitors, *recordingPublisher) {
	store := newMemVisitors()
	pub := &recordingPublisher{}
	dir := staticDirectory{"stu-1": {StudentID: "stu-1", Name: "Asha", Room: "A-101"}}
	svc := NewVisitorService(store, dir, pub, nil, nil)
	var n atomic.Int64
	svc.newToken = func() string { return fmt.Sprintf("SSV-TOKEN-%d", n.Add(1)) }
	return svc, store, pub
}

func TestRegisterVisitorCreatesPendingWithRoom(t *testing.T) {
	svc, _, pub := newVisitorFixture()
	v, err := svc.RegisterVisitor(context.Background(), "stu-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, model.VisitorPending, v.Status)
	assert.Equal(t, "A-101", v.RoomNumber)
	assert.Nil(t, v.QRCode)
	require.Len(t, pub.queues, 1)
	assert.Equal(t, queue.VisitorQueue, pub.queues[0])
}

func TestRegisterVisitorRejectsShortPhone(t *testing.T) {
	svc, store, _ := newVisitorFixture()
	in := validInput()
	in.VisitorPhone = "555"
	_, err := svc.RegisterVisitor(context.Background(), "stu-1", in)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "visitor_phone", verr.Field)
	assert.Zero(t, store.writes)
}

func TestRegisterVisitorUnknownStudentHasNoRoom(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	v, err := svc.RegisterVisitor(context.Background(), "stu-unknown", validInput())
	require.NoError(t, err)
	assert.Empty(t, v.RoomNumber)
}

func TestVisitorHappyPath(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, err := svc.RegisterVisitor(ctx, "stu-1", validInput())
	require.NoError(t, err)

	v, err = svc.ApproveVisitor(ctx, v.ID, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, model.VisitorApproved, v.Status)
	require.NotNil(t, v.QRCode)
	require.NotNil(t, v.ApprovedBy)
	assert.Equal(t, "admin-1", *v.ApprovedBy)
	assert.NotNil(t, v.ApprovedAt)

	pass, err := svc.VerifyPass(ctx, *v.QRCode)
	require.NoError(t, err)
	assert.Equal(t, v.ID, pass.ID)

	v, err = svc.CheckInVisitor(ctx, v.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.VisitorCheckedIn, v.Status)
	assert.NotNil(t, v.CheckedInAt)

	v, err = svc.CheckOutVisitor(ctx, v.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.VisitorCheckedOut, v.Status)
	assert.NotNil(t, v.CheckedOutAt)

	_, err = svc.VerifyPass(ctx, *v.QRCode)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestCheckInFromPendingIsStateError(t *testing.T) {
	svc, store, _ := newVisitorFixture()
	ctx := context.Background()
	v, err := svc.RegisterVisitor(ctx, "stu-1", validInput())
	require.NoError(t, err)
	before := store.writes

	_, err = svc.CheckInVisitor(ctx, v.ID, "admin-1")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	assert.Equal(t, before, store.writes)

	got, _ := store.GetByID(ctx, v.ID)
	assert.Equal(t, model.VisitorPending, got.Status)
}

func TestRejectRequiresRemarksBeforeRead(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	// id 999 does not exist; validation must fire before the lookup
	_, err := svc.RejectVisitor(context.Background(), 999, "admin-1", "   ")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "remarks", verr.Field)
}

func TestRejectStoresRemarks(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())
	v, err := svc.RejectVisitor(ctx, v.ID, "admin-1", " not on the list ")
	require.NoError(t, err)
	assert.Equal(t, model.VisitorRejected, v.Status)
	require.NotNil(t, v.AdminRemarks)
	assert.Equal(t, "not on the list", *v.AdminRemarks)

	_, err = svc.ApproveVisitor(ctx, v.ID, "admin-1", nil)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestCancelVisitorOwnerOnly(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())

	_, err := svc.CancelVisitor(ctx, v.ID, "stu-2")
	assert.ErrorIs(t, err, repository.ErrForbidden)

	v, err = svc.CancelVisitor(ctx, v.ID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, model.VisitorCancelled, v.Status)

	_, err = svc.CancelVisitor(ctx, v.ID, "stu-1")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestCancelAfterCheckInIsStateError(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())
	_, err := svc.ApproveVisitor(ctx, v.ID, "admin-1", nil)
	require.NoError(t, err)
	_, err = svc.CheckInVisitor(ctx, v.ID, "admin-1")
	require.NoError(t, err)

	_, err = svc.CancelVisitor(ctx, v.ID, "stu-1")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestConcurrentApproveOnlyOneWins(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())

	const admins = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApproveVisitor(ctx, v.ID, "admin", nil); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, repository.ErrInvalidTransition)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestGetVisitorVisibility(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	v, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())

	_, err := svc.GetVisitor(ctx, v.ID, model.Caller{ID: "stu-2", Role: model.RoleStudent})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.GetVisitor(ctx, v.ID, model.Caller{ID: "stu-1", Role: model.RoleStudent})
	assert.NoError(t, err)
	_, err = svc.GetVisitor(ctx, v.ID, model.Caller{ID: "boss", Role: model.RoleAdmin})
	assert.NoError(t, err)
}

func TestActiveVisitorsListsApprovedAndCheckedIn(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	ctx := context.Background()
	a, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())
	b, _ := svc.RegisterVisitor(ctx, "stu-1", validInput())
	_, _ = svc.RegisterVisitor(ctx, "stu-1", validInput())
	_, _ = svc.ApproveVisitor(ctx, a.ID, "admin", nil)
	_, _ = svc.ApproveVisitor(ctx, b.ID, "admin", nil)
	_, _ = svc.CheckInVisitor(ctx, b.ID, "admin")

	active, err := svc.ActiveVisitors(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	pending, err := svc.PendingVisitors(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAllVisitorsRejectsBadFilter(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	_, err := svc.AllVisitors(context.Background(), model.VisitorFilter{Status: "gone"})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	_, err = svc.AllVisitors(context.Background(), model.VisitorFilter{StartDate: "01/02/2025"})
	assert.ErrorAs(t, err, &verr)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	svc, _, pub := newVisitorFixture()
	pub.err = errors.New("broker down")
	_, err := svc.RegisterVisitor(context.Background(), "stu-1", validInput())
	assert.NoError(t, err)
}

func TestVerifyPassUnknownCode(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	_, err := svc.VerifyPass(context.Background(), "SSV-NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
