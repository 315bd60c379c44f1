package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Provider names accepted by NewProvider.
const (
	ProviderAuto       = "auto"
	ProviderTermux     = "termux"
	ProviderSystemd    = "systemd"
	ProviderCaffeinate = "caffeinate"
	ProviderNone       = "none"
)

// NewProvider returns the wake lock provider with the given name. "auto"
// picks one for the current platform; "none", or "auto" on a platform
// without a known mechanism, returns a nil provider.
func NewProvider(name string) (WakeLockProvider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderAuto:
		return detectProvider(), nil
	case ProviderTermux:
		return TermuxProvider{}, nil
	case ProviderSystemd:
		return NewHolderProvider("systemd-inhibit",
			"--what=idle:sleep", "--who=readaloud", "--why=Reading aloud", "--mode=block",
			"sleep", "infinity"), nil
	case ProviderCaffeinate:
		return NewHolderProvider("caffeinate", "-di"), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid wake lock provider %q: must be one of auto, termux, systemd, caffeinate, none", name)
	}
}

func detectProvider() WakeLockProvider {
	if os.Getenv("TERMUX_VERSION") != "" || isCommandAvailable("termux-wake-lock") {
		log.Debug("Wake lock provider selected", "provider", ProviderTermux)
		return TermuxProvider{}
	}
	switch runtime.GOOS {
	case "linux":
		if isCommandAvailable("systemd-inhibit") {
			p, _ := NewProvider(ProviderSystemd)
			log.Debug("Wake lock provider selected", "provider", ProviderSystemd)
			return p
		}
	case "darwin":
		if isCommandAvailable("caffeinate") {
			p, _ := NewProvider(ProviderCaffeinate)
			log.Debug("Wake lock provider selected", "provider", ProviderCaffeinate)
			return p
		}
	}
	log.Debug("No wake lock provider available")
	return nil
}

// isCommandAvailable checks if a command is available in PATH
func isCommandAvailable(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

// TermuxProvider uses the Termux:API wake lock commands on Android.
type TermuxProvider struct{}

// Acquire runs termux-wake-lock.
func (TermuxProvider) Acquire(ctx context.Context) (WakeLockHandle, error) {
	if out, err := exec.CommandContext(ctx, "termux-wake-lock").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("termux-wake-lock failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return &termuxHandle{}, nil
}

type termuxHandle struct {
	once     sync.Once
	mu       sync.Mutex
	released bool
}

func (h *termuxHandle) Release() error {
	var err error
	h.once.Do(func() {
		h.mu.Lock()
		h.released = true
		h.mu.Unlock()
		if out, e := exec.Command("termux-wake-unlock").CombinedOutput(); e != nil {
			err = fmt.Errorf("termux-wake-unlock failed: %w: %s", e, strings.TrimSpace(string(out)))
		}
	})
	return err
}

func (h *termuxHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// HolderProvider keeps a wake lock for as long as a helper process runs
// (systemd-inhibit, caffeinate).
type HolderProvider struct {
	name string
	args []string
}

// NewHolderProvider returns a provider that runs name with args.
func NewHolderProvider(name string, args ...string) *HolderProvider {
	return &HolderProvider{name: name, args: args}
}

// Acquire starts the helper process.
func (p *HolderProvider) Acquire(ctx context.Context) (WakeLockHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !isCommandAvailable(p.name) {
		return nil, fmt.Errorf("%w: %s not found", ErrWakeLockUnavailable, p.name)
	}
	// Not CommandContext: the process must outlive the acquisition call.
	cmd := exec.Command(p.name, p.args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", p.name, err)
	}

	h := &holderHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type holderHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (h *holderHandle) Release() error {
	var err error
	h.once.Do(func() {
		if h.Released() {
			return
		}
		err = terminate(h.cmd.Process)
		<-h.done
	})
	return err
}

func (h *holderHandle) Released() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
