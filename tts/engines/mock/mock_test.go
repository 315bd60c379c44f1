package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/tts"
)

// collect drains events until the channel closes.
func collect(t *testing.T, ch <-chan tts.SynthesisEvent) []tts.SynthesisEvent {
	t.Helper()
	var events []tts.SynthesisEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("events did not finish, got %v", events)
		}
	}
}

func fast(opts Options) Options {
	opts.WordsPerMinute = 60000 // 1ms per word
	return opts
}

// TestSpeakReportsBoundaries tests the event sequence of a normal request.
func TestSpeakReportsBoundaries(t *testing.T) {
	e := New(fast(Options{}))

	ch, err := e.Speak(tts.Utterance{Text: "Hello big wide world.", Rate: 1})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	events := collect(t, ch)

	if events[0].Type != tts.SynthesisStart {
		t.Errorf("first event = %v, want start", events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != tts.SynthesisEnd {
		t.Errorf("last event = %v, want end", last.Type)
	}

	var boundaries []int
	for _, ev := range events {
		if ev.Type == tts.SynthesisBoundary {
			boundaries = append(boundaries, ev.CharIndex)
		}
	}
	want := []int{0, 6, 10, 15}
	if len(boundaries) != len(want) {
		t.Fatalf("boundaries = %v, want %v", boundaries, want)
	}
	for i := range want {
		if boundaries[i] != want[i] {
			t.Errorf("boundary %d = %d, want %d", i, boundaries[i], want[i])
		}
	}
}

// TestWordStartsCountsRunes tests that offsets are rune based.
func TestWordStartsCountsRunes(t *testing.T) {
	got := wordStarts("Schöne  Grüße aus Köln")
	want := []int{0, 8, 14, 18}
	if len(got) != len(want) {
		t.Fatalf("wordStarts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wordStarts[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestCancelInterrupts tests that cancel ends the request with an
// ignorable error.
func TestCancelInterrupts(t *testing.T) {
	e := New(Options{WordsPerMinute: 60})

	ch, err := e.Speak(tts.Utterance{Text: "one two three", Rate: 1})
	if err != nil {
		t.Fatal(err)
	}
	e.Cancel()

	events := collect(t, ch)
	last := events[len(events)-1]
	if last.Type != tts.SynthesisError || !tts.IsIgnorable(last.Err) {
		t.Errorf("last event = %+v, want interrupted error", last)
	}
}

// TestFailOn tests failure injection by text.
func TestFailOn(t *testing.T) {
	e := New(fast(Options{FailOn: "broken"}))

	ch, _ := e.Speak(tts.Utterance{Text: "this chunk is broken", Rate: 1})
	events := collect(t, ch)
	last := events[len(events)-1]
	if last.Type != tts.SynthesisError || !errors.Is(last.Err, ErrInjected) {
		t.Errorf("last event = %+v, want injected failure", last)
	}
	if tts.IsIgnorable(last.Err) {
		t.Error("injected failure must not be ignorable")
	}

	ch, _ = e.Speak(tts.Utterance{Text: "this one is fine", Rate: 1})
	events = collect(t, ch)
	if last := events[len(events)-1]; last.Type != tts.SynthesisEnd {
		t.Errorf("last event = %+v, want end", last)
	}
}

// TestFailNext tests synchronous Speak failures.
func TestFailNext(t *testing.T) {
	e := New(fast(Options{}))
	boom := errors.New("boom")
	e.FailNext(boom)

	if _, err := e.Speak(tts.Utterance{Text: "a"}); !errors.Is(err, boom) {
		t.Errorf("Speak() error = %v, want %v", err, boom)
	}
	if _, err := e.Speak(tts.Utterance{Text: "a"}); err != nil {
		t.Errorf("second Speak() error = %v", err)
	}
	if n := len(e.Utterances()); n != 2 {
		t.Errorf("utterances = %d, want 2", n)
	}
}

// TestPause tests native pause and the unsupported variant.
func TestPause(t *testing.T) {
	e := New(Options{WordsPerMinute: 600, NativePause: true}) // 100ms per word

	ch, _ := e.Speak(tts.Utterance{Text: "one two", Rate: 1})
	if err := e.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	select {
	case ev := <-ch:
		if ev.Type != tts.SynthesisStart && ev.Type != tts.SynthesisBoundary {
			t.Fatalf("unexpected event while paused: %+v", ev)
		}
	default:
	}
	ended := false
	for len(ch) > 0 {
		if ev := <-ch; ev.Type == tts.SynthesisEnd {
			ended = true
		}
	}
	if ended {
		t.Fatal("request ended while paused")
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	events := collect(t, ch)
	if last := events[len(events)-1]; last.Type != tts.SynthesisEnd {
		t.Errorf("last event after resume = %+v, want end", last)
	}

	noPause := New(Options{})
	if err := noPause.Pause(); !errors.Is(err, tts.ErrPauseUnsupported) {
		t.Errorf("Pause() = %v, want ErrPauseUnsupported", err)
	}
}

// TestVoiceDelay tests late voice population.
func TestVoiceDelay(t *testing.T) {
	e := New(Options{VoiceDelay: 10 * time.Millisecond})
	if n := len(e.Voices()); n != 0 {
		t.Fatalf("voices before delay = %d, want 0", n)
	}

	select {
	case <-e.VoicesChanged():
	case <-time.After(time.Second):
		t.Fatal("no voices changed signal")
	}
	if n := len(e.Voices()); n != len(DefaultVoices) {
		t.Errorf("voices = %d, want %d", n, len(DefaultVoices))
	}
}

// TestFromConfig tests building the engine from configuration.
func TestFromConfig(t *testing.T) {
	e := FromConfig(tts.MockConfig{
		WordsPerMinute: 200,
		NativePause:    false,
		Voices:         []string{"Alice:en-US", "Bob"},
	})

	voices := e.Voices()
	if len(voices) != 2 || voices[0].Name != "Alice" || voices[0].Locale != "en-US" || voices[1].Locale != "" {
		t.Errorf("voices = %+v", voices)
	}
	if err := e.Pause(); !errors.Is(err, tts.ErrPauseUnsupported) {
		t.Errorf("Pause() = %v, want ErrPauseUnsupported", err)
	}
}
