package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/readaloud/tts"
)

// progressInterval limits how often headless mode prints progress lines.
const progressInterval = 2 * time.Second

// headlessReporter prints controller events as plain lines.
type headlessReporter struct {
	w       io.Writer
	limiter *rate.Limiter

	mu      sync.Mutex
	started bool
	done    chan struct{}
	once    sync.Once
	err     error
}

func newHeadlessReporter(w io.Writer) *headlessReporter {
	return &headlessReporter{
		w:       w,
		limiter: rate.NewLimiter(rate.Every(progressInterval), 1),
		done:    make(chan struct{}),
	}
}

func (r *headlessReporter) observer() tts.Observer {
	return tts.Observer{
		OnStateChange:    r.onState,
		OnProgressChange: r.onProgress,
		OnError:          r.onError,
	}
}

func (r *headlessReporter) onState(s tts.StateSnapshot) {
	_, _ = fmt.Fprintln(r.w, statusLine(s))

	r.mu.Lock()
	defer r.mu.Unlock()
	switch s.State {
	case tts.StatePlaying, tts.StatePaused:
		r.started = true
	case tts.StateCompleted:
		r.finish(nil)
	case tts.StateIdle:
		if r.started {
			r.finish(nil)
		}
	}
}

func (r *headlessReporter) onProgress(current, total int) {
	if !r.limiter.Allow() && current < total {
		return
	}
	_, _ = fmt.Fprintf(r.w, "%d%% (%s/%s chars)\n",
		progressPercent(current, total), humanize.Comma(int64(current)), humanize.Comma(int64(total)))
}

func (r *headlessReporter) onError(err *tts.TTSError) {
	_, _ = fmt.Fprintf(r.w, "%s: %v\n", err.Kind, err)
	if err.Blocking() {
		r.mu.Lock()
		r.finish(err)
		r.mu.Unlock()
	}
}

func (r *headlessReporter) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// wait blocks until playback ends or ctx is done.
func (r *headlessReporter) wait(ctx context.Context) error {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.err
	case <-ctx.Done():
		return nil
	}
}

func statusLine(s tts.StateSnapshot) string {
	line := fmt.Sprintf("%s %d%%", s.State, s.Percent())
	if s.TotalChunks > 0 {
		line += fmt.Sprintf(" chunk %d/%d", s.ChunkIndex+1, s.TotalChunks)
	}
	if s.Voice != "" {
		line += " " + s.Voice
	}
	return line + fmt.Sprintf(" %.1fx", s.Rate)
}

func progressPercent(current, total int) int {
	return tts.StateSnapshot{CharIndex: current, TotalChars: total}.Percent()
}

// runHeadless reads html aloud without a TUI, printing events to w, until
// the document ends or an interrupt arrives.
func runHeadless(cfg tts.Config, html string, w io.Writer) error {
	engine, closeEngine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeEngine()
	waitForVoices(engine, voiceWait)

	cc, err := cfg.ToControllerConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := newHeadlessReporter(w)
	ctrl := tts.NewController(engine, cc, reporter.observer())
	ctrl.Start(html)

	err = reporter.wait(ctx)
	if ctx.Err() != nil {
		log.Debug("Interrupted, stopping playback")
		ctrl.Stop()
	}
	ctrl.Destroy()
	ctrl.Wait()
	return err
}
