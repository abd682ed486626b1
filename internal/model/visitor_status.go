package model

// VisitorStatus is the lifecycle state of a Visitor.
type VisitorStatus string

const (
	VisitorPending    VisitorStatus = "pending"
	VisitorApproved   VisitorStatus = "approved"
	VisitorRejected   VisitorStatus = "rejected"
	VisitorCheckedIn  VisitorStatus = "checked_in"
	VisitorCheckedOut VisitorStatus = "checked_out"
	VisitorCancelled  VisitorStatus = "cancelled"
)

// VisitorAction names an operation that moves a visitor between statuses.
type VisitorAction string

const (
	ActionApprove  VisitorAction = "approve"
	ActionReject   VisitorAction = "reject"
	ActionCheckIn  VisitorAction = "check_in"
	ActionCheckOut VisitorAction = "check_out"
	ActionCancel   VisitorAction = "cancel"
)

type visitorEdge struct {
	from []VisitorStatus
	to   VisitorStatus
}

var visitorTransitions = map[VisitorAction]visitorEdge{
	ActionApprove:  {from: []VisitorStatus{VisitorPending}, to: VisitorApproved},
	ActionReject:   {from: []VisitorStatus{VisitorPending}, to: VisitorRejected},
	ActionCancel:   {from: []VisitorStatus{VisitorPending, VisitorApproved}, to: VisitorCancelled},
	ActionCheckIn:  {from: []VisitorStatus{VisitorApproved}, to: VisitorCheckedIn},
	ActionCheckOut: {from: []VisitorStatus{VisitorCheckedIn}, to: VisitorCheckedOut},
}

// NextVisitorStatus returns the status reached by applying action to a
// visitor currently in from.  ok is false when the action is not allowed
// from that status.
func NextVisitorStatus(action VisitorAction, from VisitorStatus) (to VisitorStatus, ok bool) {
	edge, known := visitorTransitions[action]
	if !known {
		return "", false
	}
	for _, s := range edge.from {
		if s == from {
			return edge.to, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known statuses.
func (s VisitorStatus) Valid() bool {
	switch s {
	case VisitorPending, VisitorApproved, VisitorRejected, VisitorCheckedIn, VisitorCheckedOut, VisitorCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s VisitorStatus) Terminal() bool {
	return s == VisitorRejected || s == VisitorCancelled || s == VisitorCheckedOut
}

// Active reports whether the visit is still in progress or upcoming.
// Active visitors are pending, approved or checked_in; all others belong
// to the history list.
func (s VisitorStatus) Active() bool {
	return s == VisitorPending || s == VisitorApproved || s == VisitorCheckedIn
}

// PassValid reports whether a pass in status s may be presented at the gate.
func (s VisitorStatus) PassValid() bool {
	return s == VisitorApproved || s == VisitorCheckedIn
}
