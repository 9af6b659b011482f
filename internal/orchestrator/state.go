package orchestrator

// State is a stage of an agent run.
type State string

const (
	StateIdle       State = "idle"
	StatePerceiving State = "perceiving"
	StatePlanning   State = "planning"
	StateActing     State = "acting"
	StateEvaluating State = "evaluating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
