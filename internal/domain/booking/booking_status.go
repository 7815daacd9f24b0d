package booking

import "fmt"

// Status is the stage a booking has reached in the workshop flow.
type Status string

const (
	StatusQueuing          Status = "QUEUING"
	StatusBayQueue         Status = "BAY_QUEUE"
	StatusNextJob          Status = "NEXT_JOB"
	StatusActiveBoard      Status = "ACTIVE_BOARD"
	StatusJobStoppage      Status = "JOB_STOPPAGE"
	StatusRepairCompletion Status = "REPAIR_COMPLETION"
)

// orderedStatuses lists the statuses in workshop order. The order is descriptive only:
// any status may move to any other, and only the pairs checked in Evaluate carry preconditions.
var orderedStatuses = []Status{
	StatusQueuing,
	StatusBayQueue,
	StatusNextJob,
	StatusActiveBoard,
	StatusJobStoppage,
	StatusRepairCompletion,
}

// Statuses returns all statuses in workshop order.
func Statuses() []Status {
	out := make([]Status, len(orderedStatuses))
	copy(out, orderedStatuses)
	return out
}

// IsValid returns true if the status is one of the six defined values.
func (s Status) IsValid() bool {
	return s.Ordinal() >= 0
}

// Ordinal returns the position of s in workshop order, or -1 if s is unknown.
func (s Status) Ordinal() int {
	for i, st := range orderedStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// IsActiveWork returns true while a technician is working on, or has paused, the job.
func (s Status) IsActiveWork() bool {
	return s == StatusActiveBoard || s == StatusJobStoppage
}

// String returns the label stored in the process ledger.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
