package gpsmux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ReplayPort feeds recorded NMEA sentences on a fixed cadence. The log
// wraps around when it runs out, so a short capture drives an
// arbitrarily long session. Commands written to the port are accepted
// and discarded.
type ReplayPort struct {
	r    *io.PipeReader
	done chan struct{}
	once sync.Once
}

func (p *ReplayPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *ReplayPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *ReplayPort) Close() error {
	p.once.Do(func() {
		close(p.done)
		p.r.Close()
	})
	return nil
}

// NewReplayMux creates a Mux backed by a recorded sentence log at the
// given path, emitting one line per interval. An interval of zero
// means the standard 1Hz GPS cadence.
func NewReplayMux(path string, interval time.Duration) (*Mux[*ReplayPort], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay log: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("replay log %s has no sentences", path)
	}
	if interval <= 0 {
		interval = time.Second
	}

	r, w := io.Pipe()
	port := &ReplayPort{r: r, done: make(chan struct{})}

	// generate data periodically to simulate receiver input
	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(lines) {
			select {
			case <-port.done:
				return
			case <-ticker.C:
				if _, err := w.Write([]byte(lines[i] + "\r\n")); err != nil {
					return
				}
			}
		}
	}()

	return NewMux(port), nil
}
