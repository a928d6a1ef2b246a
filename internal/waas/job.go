package waas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// State is the lifecycle state of a remote transcription job.
type State int

const (
	StateSubmitted State = iota
	StatePending
	StateInProgress
	StateCompleted
	StateFailed
	// StateTimedOut is set client-side when the poll budget runs out.
	StateTimedOut
)

var stateNames = map[State]string{
	StateSubmitted:  "SUBMITTED",
	StatePending:    "PENDING",
	StateInProgress: "IN_PROGRESS",
	StateCompleted:  "COMPLETED",
	StateFailed:     "FAILED",
	StateTimedOut:   "TIMED_OUT",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// ParseState decodes a server reported state. Only the states the status
// endpoint may return are accepted.
func ParseState(value string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "PENDING":
		return StatePending, nil
	case "IN_PROGRESS":
		return StateInProgress, nil
	case "COMPLETED":
		return StateCompleted, nil
	case "FAILED":
		return StateFailed, nil
	default:
		return 0, fmt.Errorf("unknown job state %q", value)
	}
}

// UnmarshalJSON accepts the status body, a bare JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode job state: %w", err)
	}
	parsed, err := ParseState(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// decodeState parses a status body. Servers send a JSON string; some send
// the bare enum name instead.
func decodeState(body []byte) (State, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] != '"' {
		return ParseState(string(body))
	}
	var state State
	if err := json.Unmarshal(body, &state); err != nil {
		return 0, err
	}
	return state, nil
}

// Job tracks one submitted request. It is owned by a single Generate call.
type Job struct {
	ID    string
	State State
}

func newJob(id string) *Job {
	return &Job{ID: id, State: StateSubmitted}
}

// Advance moves the job to next if that is a forward transition and reports
// whether the state changed. Reports that would move the job backwards, or
// out of a terminal state, are ignored.
func (j *Job) Advance(next State) bool {
	if j.State.Terminal() {
		return false
	}
	if next > j.State {
		j.State = next
		return true
	}
	return false
}
