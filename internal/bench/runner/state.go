package runner

import "fmt"

// State is the lifecycle of one condition run.
type State string

const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StatePartial   State = "PARTIAL"
	StateFailed    State = "FAILED"
)

var transitions = map[State][]State{
	StatePending: {StateRunning},
	StateRunning: {StateCompleted, StatePartial, StateFailed},
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StatePartial || s == StateFailed
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// finalState derives the terminal state from article outcomes.
func finalState(total, failed int) State {
	switch {
	case total > 0 && failed == total:
		return StateFailed
	case failed > 0:
		return StatePartial
	default:
		return StateCompleted
	}
}

type stateMachine struct {
	condition string
	state     State
}

func (m *stateMachine) transition(to State) error {
	if !m.state.CanTransition(to) {
		return fmt.Errorf("condition %s: invalid transition %s -> %s", m.condition, m.state, to)
	}
	m.state = to
	return nil
}
