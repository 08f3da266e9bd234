package dryrun

import (
	"context"
	"sync"

	"ufunda-orchestrator/internal/application/port/output"
)

var _ output.SessionFactory = (*Factory)(nil)

// Factory hands out dry-run sessions and keeps count of how many are still open.
type Factory struct {
	mu        sync.Mutex
	configure func(owner string, s *Session)
	openErr   map[string]error
	sessions  map[string][]*Session
	open      int
}

// NewFactory returns a factory; configure, when non-nil, prepares each session before use.
func NewFactory(configure func(owner string, s *Session)) *Factory {
	return &Factory{
		configure: configure,
		openErr:   make(map[string]error),
		sessions:  make(map[string][]*Session),
	}
}

// FailFor makes Open fail for owner.
func (f *Factory) FailFor(owner string, err error) *Factory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr[owner] = err
	return f
}

func (f *Factory) Open(_ context.Context, owner string) (output.BrowserSession, error) {
	f.mu.Lock()
	if err := f.openErr[owner]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	s := NewSession()
	if f.configure != nil {
		f.configure(owner, s)
	}
	s.onClose = func() {
		f.mu.Lock()
		f.open--
		f.mu.Unlock()
	}

	f.mu.Lock()
	f.sessions[owner] = append(f.sessions[owner], s)
	f.open++
	f.mu.Unlock()
	return s, nil
}

// OpenCount is the number of sessions opened and not yet closed.
func (f *Factory) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Sessions returns the sessions opened for owner, oldest first.
func (f *Factory) Sessions(owner string) []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions[owner]...)
}

// Last returns the most recent session opened for owner, or nil.
func (f *Factory) Last(owner string) *Session {
	list := f.Sessions(owner)
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}
