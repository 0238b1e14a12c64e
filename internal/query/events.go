package query

import "strings"

// EventDetection is the classification marker the agents attach to fake-file
// detection events.
const EventDetection = "FAKE FILE DETECTED"

type EventClass string

const (
	ClassDetection EventClass = "detection"
	ClassStartup   EventClass = "startup"
	ClassHeartbeat EventClass = "heartbeat"
	ClassError     EventClass = "error"
	ClassOther     EventClass = ""
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Classify buckets a free-text event for display and statistics.
func Classify(event string) EventClass {
	switch {
	case containsFold(event, EventDetection):
		return ClassDetection
	case containsFold(event, "startup"), containsFold(event, "launched"):
		return ClassStartup
	case containsFold(event, "heartbeat"):
		return ClassHeartbeat
	case containsFold(event, "error"), containsFold(event, "failed"):
		return ClassError
	default:
		return ClassOther
	}
}

func IsDetection(event string) bool {
	return Classify(event) == ClassDetection
}
