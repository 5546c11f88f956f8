package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
)

// State is the orchestrator lifecycle state for one analysis request.
type State string

const (
	StateInit         State = "INIT"
	StateDispatching  State = "DISPATCHING"
	StateCollecting   State = "COLLECTING"
	StateSynthesizing State = "SYNTHESIZING"
	StateFinalizing   State = "FINALIZING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// TransitionTable maps each state to the states it may move to. Failed is
// reachable only from Init (request validation) and Synthesizing (internal
// invariant violations); agent unavailability degrades the result instead of
// failing the run.
type TransitionTable map[State][]State

//nolint:gochecknoglobals // Static transition table
var validTransitions = TransitionTable{
	StateInit:         {StateDispatching, StateFailed},
	StateDispatching:  {StateCollecting},
	StateCollecting:   {StateSynthesizing},
	StateSynthesizing: {StateFinalizing, StateFailed},
	StateFinalizing:   {StateDone},
	StateDone:         {},
	StateFailed:       {},
}

// StateTransition records one transition for inspection.
type StateTransition struct {
	From      State
	To        State
	Timestamp time.Time
}

// stateMachine tracks the lifecycle of a single request.
type stateMachine struct {
	mu          sync.Mutex
	current     State
	transitions []StateTransition
	logger      *logx.Logger
}

func newStateMachine(logger *logx.Logger) *stateMachine {
	return &stateMachine{
		current: StateInit,
		logger:  logger,
	}
}

// Current returns the current state.
func (sm *stateMachine) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// TransitionTo moves to a new state, rejecting transitions the table does
// not allow.
func (sm *stateMachine) TransitionTo(to State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	allowed := validTransitions[sm.current]
	valid := false
	for _, s := range allowed {
		if s == to {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid state transition: %s -> %s", sm.current, to)
	}

	sm.logger.Debug("state transition: %s -> %s", sm.current, to)
	sm.transitions = append(sm.transitions, StateTransition{
		From:      sm.current,
		To:        to,
		Timestamp: time.Now().UTC(),
	})
	sm.current = to
	return nil
}

// Transitions returns a copy of the recorded transitions.
func (sm *stateMachine) Transitions() []StateTransition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	out := make([]StateTransition, len(sm.transitions))
	copy(out, sm.transitions)
	return out
}
