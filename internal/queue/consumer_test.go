package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsVisitorLine(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", dir, nil)

	body, _ := json.Marshal(VisitorEvent{
		VisitorID: 7, StudentID: "stu-1", VisitorName: "Asha", RoomNumber: "A-101",
		From: "pending", To: "approved", Actor: "admin-1", At: "2025-01-02T10:00:00Z",
	})
	require.NoError(t, c.HandleMessage(VisitorQueue, body))
	require.NoError(t, c.HandleMessage(VisitorQueue, body))

	raw, err := os.ReadFile(filepath.Join(dir, "visitor.log"))
	require.NoError(t, err)
	want := "[2025-01-02T10:00:00Z] Visitor approved | visitor_id=7 | student_id=stu-1 | visitor=\"Asha\" | room=A-101 | from=pending | by=admin-1\n"
	assert.Equal(t, want+want, string(raw))
}

func TestHandleMessagePaymentAndRoom(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", dir, nil)

	pay, _ := json.Marshal(PaymentEvent{Kind: PaymentVerified, RequestID: 3, PaymentID: 9, StudentID: "stu-2",
		Amount: "1500.00", Type: "Hostel Fee", ReceiptNumber: "RCP-20250102-ABCDEF12", Actor: "admin", At: "t"})
	require.NoError(t, c.HandleMessage(PaymentQueue, pay))
	room, _ := json.Marshal(RoomEvent{Kind: RoomAllocated, Room: "101", StudentID: "stu-2", Occupants: 1, Capacity: 2, Status: "occupied", At: "t"})
	require.NoError(t, c.HandleMessage(RoomQueue, room))

	p, err := os.ReadFile(filepath.Join(dir, "payment.log"))
	require.NoError(t, err)
	assert.Contains(t, string(p), "Payment verified | request_id=3 | payment_id=9")
	assert.Contains(t, string(p), "receipt=RCP-20250102-ABCDEF12")

	r, err := os.ReadFile(filepath.Join(dir, "room.log"))
	require.NoError(t, err)
	assert.Contains(t, string(r), "occupants=1/2 | status=occupied")
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	c := NewConsumer("", t.TempDir(), nil)
	assert.Error(t, c.HandleMessage(VisitorQueue, []byte("{not json")))
	assert.Error(t, c.HandleMessage("other", []byte("{}")))
}
