package domain

// Event is a lifecycle operation applied to an occurrence.
type Event string

const (
	EventCreate            Event = "create"
	EventTriage            Event = "triage"
	EventStartExecution    Event = "start_execution"
	EventCompleteExecution Event = "complete_execution"
	EventApprove           Event = "approve"
	EventReject            Event = "reject"
	EventRate              Event = "rate"
	EventEvaluate          Event = "evaluate"
	EventContest           Event = "contest"
	EventSetStatus         Event = "set_status"
	EventReassign          Event = "reassign"
	EventSupport           Event = "support"
	EventAddPhotos         Event = "add_photos"
)

// Transition describes which statuses an event accepts and where it leads.
// An empty To keeps the current status.
type Transition struct {
	From []Status
	To   Status
}

// transitions holds the status-changing rules. Events absent from the map
// (set_status, reassign, support, add_photos) apply in any status.
var transitions = map[Event]Transition{
	EventTriage:            {From: []Status{StatusOpen}, To: StatusInProgress},
	EventStartExecution:    {From: []Status{StatusInProgress}},
	EventCompleteExecution: {From: []Status{StatusInProgress}, To: StatusResolved},
	EventApprove:           {From: []Status{StatusResolved}, To: StatusClosed},
	EventReject:            {From: []Status{StatusResolved}, To: StatusInProgress},
	EventRate:              {From: []Status{StatusResolved}, To: StatusClosed},
	EventEvaluate:          {From: []Status{StatusResolved, StatusClosed}, To: StatusClosed},
	EventContest:           {From: []Status{StatusResolved, StatusClosed}, To: StatusOpen},
}

// TransitionFor returns the rule for an event, if the event is status-gated.
func TransitionFor(event Event) (Transition, bool) {
	t, ok := transitions[event]
	return t, ok
}

// NextStatus validates that event may fire from the current status and
// returns the resulting status.
func NextStatus(current Status, event Event) (Status, error) {
	t, ok := transitions[event]
	if !ok {
		return current, nil
	}
	for _, from := range t.From {
		if from == current {
			if t.To == "" {
				return current, nil
			}
			return t.To, nil
		}
	}
	return current, Conflictf("cannot %s an occurrence with status %s", humanEvent(event), current)
}

func humanEvent(event Event) string {
	switch event {
	case EventStartExecution:
		return "start execution of"
	case EventCompleteExecution:
		return "complete execution of"
	default:
		return string(event)
	}
}
