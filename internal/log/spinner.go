package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressSpinner shows a spinner with a counter while a directory run is in
// progress. It only draws when its writer is a terminal.
type ProgressSpinner struct {
	mu      sync.Mutex
	message string
	frames  []string
	current int
	writer  io.Writer
	enabled bool
	done    chan struct{}
	stopped chan struct{}
}

// NewProgressSpinner creates a spinner writing to stderr.
func NewProgressSpinner(message string) *ProgressSpinner {
	return newSpinner(os.Stderr, message)
}

func newSpinner(w io.Writer, message string) *ProgressSpinner {
	return &ProgressSpinner{
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		writer:  w,
		enabled: colorEnabled(w),
	}
}

// Start begins the spinner animation
func (p *ProgressSpinner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.done != nil {
		return
	}
	p.done = make(chan struct{})
	p.stopped = make(chan struct{})
	go p.animate(p.done, p.stopped)
}

// Stop halts the animation and clears the line.
func (p *ProgressSpinner) Stop() {
	p.mu.Lock()
	done, stopped := p.done, p.stopped
	p.done, p.stopped = nil, nil
	p.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	<-stopped
	fmt.Fprint(p.writer, "\r\033[K")
}

// Message updates the spinner message
func (p *ProgressSpinner) Message(msg string) {
	p.mu.Lock()
	p.message = msg
	p.mu.Unlock()
}

// Progress sets the message to "<label> done/total".
func (p *ProgressSpinner) Progress(label string, done, total int) {
	p.Message(fmt.Sprintf("%s %d/%d", label, done, total))
}

func (p *ProgressSpinner) animate(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			frame := p.frames[p.current%len(p.frames)]
			p.current++
			fmt.Fprintf(p.writer, "\r\033[36m%s\033[0m %s", frame, p.message)
			p.mu.Unlock()
		case <-done:
			return
		}
	}
}
