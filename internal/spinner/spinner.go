// Package spinner shows that a network call is still outstanding.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Spinner animates a message on a single terminal line.
type Spinner struct {
	w       io.Writer
	message string

	stopOnce sync.Once
	done     chan struct{}
	cleared  chan struct{}
}

// Start begins animating message on w. Call Stop to clear the line.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Spinner) loop() {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(s.cleared)

	blank := strings.Repeat(" ", runewidth.StringWidth(s.message)+2)
	for i := 0; ; i++ {
		select {
		case <-s.done:
			fmt.Fprintf(s.w, "\r%s\r", blank) //nolint:errcheck
			return
		case <-ticker.C:
			fmt.Fprintf(s.w, "\r%s %s", frames[i%len(frames)], s.message) //nolint:errcheck
		}
	}
}

// Stop clears the spinner line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.cleared
}

// While runs fn with a spinner on w when enabled is true.
func While[T any](w io.Writer, enabled bool, message string, fn func() (T, error)) (T, error) {
	if !enabled {
		return fn()
	}
	s := Start(w, message)
	defer s.Stop()
	return fn()
}
