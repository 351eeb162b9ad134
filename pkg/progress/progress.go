package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner represents a progress spinner
type Spinner struct {
	mu         sync.Mutex
	writer     io.Writer
	frames     []string
	frameIndex int
	message    string
	delay      time.Duration
	started    time.Time
	drawn      bool
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// DefaultDelay keeps quick operations from flashing a spinner.
const DefaultDelay = 300 * time.Millisecond

// NewSpinner creates a new spinner with default frames. It draws on stderr
// so results written to stdout stay machine readable.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		writer:  os.Stderr,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
	}
}

// SetWriter sets a custom writer for the spinner
func (s *Spinner) SetWriter(w io.Writer) {
	s.writer = w
}

// SetDelay holds back the first frame until d has passed since Start.
func (s *Spinner) SetDelay(d time.Duration) {
	s.delay = d
}

// SetFrames sets custom spinner frames
func (s *Spinner) SetFrames(frames []string) {
	s.frames = frames
}

// Start starts the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.drawn = false
	s.started = time.Now()
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.animate()
}

// Stop stops the spinner animation
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	if s.drawn {
		fmt.Fprint(s.writer, "\r\033[K")
	}
}

// SetMessage updates the spinner message
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) animate() {
	defer s.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				return
			}
			elapsed := time.Since(s.started)
			if elapsed < s.delay {
				s.mu.Unlock()
				continue
			}
			frame := s.frames[s.frameIndex%len(s.frames)]
			message := s.message
			s.frameIndex++
			s.drawn = true
			s.mu.Unlock()

			if elapsed >= time.Second {
				fmt.Fprintf(s.writer, "\r%s %s (%ds)\033[K", frame, message, int(elapsed.Seconds()))
			} else {
				fmt.Fprintf(s.writer, "\r%s %s", frame, message)
			}
		}
	}
}

// WithSpinner wraps a function with a spinner drawn on w once it has run for
// DefaultDelay. A nil w disables the spinner.
func WithSpinner(w io.Writer, message string, fn func() error) error {
	if w == nil {
		return fn()
	}
	spinner := NewSpinner(message)
	spinner.SetWriter(w)
	spinner.SetDelay(DefaultDelay)
	spinner.Start()
	err := fn()
	spinner.Stop()
	return err
}
