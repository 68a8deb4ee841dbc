package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on a command's error stream while
// discovery and resolution run. A nil *Spinner is valid and does nothing,
// so --json output never carries terminal noise.
type Spinner struct {
	w       io.Writer
	message string
	start   time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	started bool
	once    sync.Once
	mu      sync.Mutex
}

// startSpinner starts a spinner on cmd's error stream. It returns nil when
// quiet is set.
func startSpinner(cmd *cobra.Command, quiet bool, message string) *Spinner {
	if quiet {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s := newSpinner(ctx, cmd.ErrOrStderr(), message)
	s.Start()
	return s
}

// resolvingMessage names the roots being resolved.
func resolvingMessage(roots []string) string {
	if len(roots) == 0 {
		return "Resolving components..."
	}
	return fmt.Sprintf("Resolving components under %s...", strings.Join(roots, ", "))
}

// newSpinner creates a spinner that stops drawing once ctx is done.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start draws the first frame and begins the animation.
func (s *Spinner) Start() {
	if s == nil {
		return
	}
	s.start = time.Now()
	s.started = true
	s.draw(0)
	go func() {
		defer close(s.stopped)
		defer s.clearLine()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 1; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.draw(i)
			}
		}
	}()
}

// Stop ends the animation and clears the line. Safe to call repeatedly.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
	})
}

// Elapsed returns the time since Start.
func (s *Spinner) Elapsed() time.Duration {
	if s == nil || !s.started {
		return 0
	}
	return time.Since(s.start)
}

// StopWithSuccess stops the spinner and prints a success line followed by
// the elapsed time.
func (s *Spinner) StopWithSuccess(format string, args ...any) {
	if s == nil {
		return
	}
	took := StyleDim.Render(fmt.Sprintf("(%s)", s.Elapsed().Round(time.Millisecond)))
	s.Stop()
	printSuccess("%s %s", fmt.Sprintf(format, args...), took)
}

func (s *Spinner) draw(i int) {
	frame := spinnerFrames[i%len(spinnerFrames)]
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
