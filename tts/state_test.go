package tts

import "testing"

// TestStateTypeString tests the String() method for StateType.
func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{StateStopping, "stopping"},
		{StateCompleted, "completed"},
		{StateType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.state.String(); result != tt.expected {
				t.Errorf("StateType.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests valid and invalid state transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name     string
		path     []StateType
		to       StateType
		expected bool
	}{
		{"idle to playing", nil, StatePlaying, true},
		{"idle to paused", nil, StatePaused, false},
		{"idle to stopping", nil, StateStopping, false},
		{"playing to paused", []StateType{StatePlaying}, StatePaused, true},
		{"playing to completed", []StateType{StatePlaying}, StateCompleted, true},
		{"playing to idle", []StateType{StatePlaying}, StateIdle, false},
		{"paused to playing", []StateType{StatePlaying, StatePaused}, StatePlaying, true},
		{"paused to stopping", []StateType{StatePlaying, StatePaused}, StateStopping, true},
		{"stopping to idle", []StateType{StatePlaying, StateStopping}, StateIdle, true},
		{"stopping to playing", []StateType{StatePlaying, StateStopping}, StatePlaying, false},
		{"completed to idle", []StateType{StatePlaying, StateCompleted}, StateIdle, true},
		{"completed to playing", []StateType{StatePlaying, StateCompleted}, StatePlaying, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for _, s := range tt.path {
				if !sm.Transition(s) {
					t.Fatalf("setup transition to %v failed", s)
				}
			}
			from := sm.Current()
			if got := sm.Transition(tt.to); got != tt.expected {
				t.Errorf("Transition(%v) = %v, want %v", tt.to, got, tt.expected)
			}
			if !tt.expected && sm.Current() != from {
				t.Errorf("failed transition changed state to %v", sm.Current())
			}
		})
	}
}

// TestStateMachineCallbacks tests OnEnter and OnExit hooks.
func TestStateMachineCallbacks(t *testing.T) {
	sm := NewStateMachine()

	var calls []string
	sm.OnEnter(StatePlaying, func() { calls = append(calls, "enter playing") })
	sm.OnExit(StatePlaying, func() { calls = append(calls, "exit playing") })
	sm.OnEnter(StatePaused, func() { calls = append(calls, "enter paused") })

	sm.Transition(StatePlaying)
	sm.Transition(StatePaused)
	sm.Transition(StateIdle) // invalid, no callbacks

	want := []string{"enter playing", "exit playing", "enter paused"}
	if !equalStrings(calls, want) {
		t.Errorf("callbacks = %v, want %v", calls, want)
	}
}

func TestSnapshotPercent(t *testing.T) {
	tests := []struct {
		current, total, want int
	}{
		{0, 0, 0},
		{0, 100, 0},
		{50, 200, 25},
		{199, 200, 99},
		{200, 200, 100},
		{250, 200, 100},
	}
	for _, tt := range tests {
		s := StateSnapshot{CharIndex: tt.current, TotalChars: tt.total}
		if got := s.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %d, want %d", tt.current, tt.total, got, tt.want)
		}
	}
}
