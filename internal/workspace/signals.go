package workspace

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zpdzap/spinoff/internal/ui"
)

// InterruptedError reports a run stopped by SIGINT or SIGTERM.
type InterruptedError struct {
	Signal os.Signal
	// Err is what the interrupted stage returned, if anything.
	Err error
}

func (e *InterruptedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interrupted by %v: %v", e.Signal, e.Err)
	}
	return fmt.Sprintf("interrupted by %v", e.Signal)
}

func (e *InterruptedError) Unwrap() error { return e.Err }

// ExitCode follows the shell convention of 128 plus the signal number.
func (e *InterruptedError) ExitCode() int {
	if sig, ok := e.Signal.(syscall.Signal); ok {
		return 128 + int(sig)
	}
	return 130
}

// SignalHandler cancels a run context when the process is interrupted. The
// context's cause is an *InterruptedError naming the signal.
type SignalHandler struct {
	signals  chan os.Signal
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelCauseFunc
	log      *ui.Logger
}

func NewSignalHandler(cancel context.CancelCauseFunc, log *ui.Logger) *SignalHandler {
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
		log:     log,
	}
}

// Start begins listening for SIGINT and SIGTERM.
func (h *SignalHandler) Start() {
	h.StartWithNotify(true)
}

// StartWithNotify begins listening, optionally registering with OS signal
// handling. Tests pass false and use Deliver.
func (h *SignalHandler) StartWithNotify(notify bool) {
	if notify {
		signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	}

	started := make(chan struct{})
	go func() {
		defer close(h.done)
		close(started)

		select {
		case sig := <-h.signals:
			h.log.Warnf("Received %v, tearing down", sig)
			h.cancel(&InterruptedError{Signal: sig})
		case <-h.stopCh:
		}
	}()
	<-started
}

// Deliver feeds sig to the handler as if the OS had sent it.
func (h *SignalHandler) Deliver(sig os.Signal) {
	select {
	case h.signals <- sig:
	default:
	}
}

// Stop unregisters the handler. Signals arriving after the first one are
// swallowed until Stop so teardown is not cut short.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	select {
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// interruption returns the signal cause of ctx, if any.
func interruption(ctx context.Context) *InterruptedError {
	ie, ok := context.Cause(ctx).(*InterruptedError)
	if !ok {
		return nil
	}
	return ie
}
