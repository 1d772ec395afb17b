package runner

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is a Runner that records commands instead of running them.
// Commands whose name (or String()) is in Fail return an error.
type Recorder struct {
	mu    sync.Mutex
	Calls []Command
	Fail  map[string]bool
}

func (r *Recorder) Run(_ context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, cmd)
	if r.Fail[cmd.Name] || r.Fail[cmd.String()] {
		return &Result{ExitCode: 1}, fmt.Errorf("%s exited with status 1: %w", cmd.Name, ErrCommandFailed)
	}
	return &Result{}, nil
}

// Names returns the String() of every recorded call.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
