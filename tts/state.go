package tts

// StateType represents the current state of a playback session.
type StateType int

const (
	// StateIdle indicates no session is active.
	StateIdle StateType = iota
	// StatePlaying indicates chunks are being spoken.
	StatePlaying
	// StatePaused indicates the session is suspended and can be resumed.
	StatePaused
	// StateStopping indicates the session is being torn down.
	StateStopping
	// StateCompleted indicates the last chunk finished.
	StateCompleted
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// IsActive returns true if a session is playing or paused.
func (s StateType) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// StateSnapshot is what observers see on every state change.
type StateSnapshot struct {
	State       StateType
	IsPlaying   bool
	IsPaused    bool
	IsEnabled   bool // a session is active
	CharIndex   int
	TotalChars  int
	ChunkIndex  int
	TotalChunks int
	Rate        float64
	Pitch       float64
	VoiceIndex  int
	Voice       string
}

// Percent returns playback progress as an integer percentage.
func (s StateSnapshot) Percent() int {
	return percent(s.CharIndex, s.TotalChars)
}

func percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return current * 100 / total
}

// StateMachine manages state transitions for the playback controller.
// It is not safe for concurrent use; the controller serializes access.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
	onExit      map[StateType]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:      {StatePlaying},
			StatePlaying:   {StatePaused, StateStopping, StateCompleted},
			StatePaused:    {StatePlaying, StateStopping, StateCompleted},
			StateStopping:  {StateIdle},
			StateCompleted: {StateIdle},
		},
		onEnter: make(map[StateType]func()),
		onExit:  make(map[StateType]func()),
	}
}

// CanTransition reports whether moving to the given state is allowed.
func (sm *StateMachine) CanTransition(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition to the specified state.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.CanTransition(to) {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = fn
}
