package agents

import (
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

// Status classifies how an agent call ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusTimeout Status = "timeout"
	StatusFailure Status = "failure"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Outcome is the terminal record of one agent call. Exactly one of Result
// and Err is set.
type Outcome struct {
	Role     proto.Role
	Status   Status
	Result   *Result
	Err      error
	Duration time.Duration
}

// OK reports whether the call produced a usable result.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess && o.Result != nil
}

// ErrorString returns the error text, or "" on success.
func (o Outcome) ErrorString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
