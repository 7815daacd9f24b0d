package booking

import "fmt"

// JobType classifies the size of the repair.
type JobType string

const (
	JobTypeLight  JobType = "LIGHT"
	JobTypeMedium JobType = "MEDIUM"
	JobTypeHeavy  JobType = "HEAVY"
)

// IsValid returns true if the job type is recognized.
func (j JobType) IsValid() bool {
	switch j {
	case JobTypeLight, JobTypeMedium, JobTypeHeavy:
		return true
	}
	return false
}

// ParseJobType converts a string to a JobType.
func ParseJobType(s string) (JobType, error) {
	jt := JobType(s)
	if !jt.IsValid() {
		return "", fmt.Errorf("invalid job type: %s", s)
	}
	return jt, nil
}
