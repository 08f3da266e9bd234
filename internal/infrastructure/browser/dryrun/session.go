// Package dryrun is a browser that never leaves the process. Every element exists and every
// action succeeds unless configured otherwise. It backs BROWSER_PROVIDER=dryrun and the tests.
package dryrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"ufunda-orchestrator/internal/application/port/output"
)

var _ output.BrowserSession = (*Session)(nil)

var ErrSessionClosed = errors.New("dry-run session closed")

type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionFill     ActionKind = "fill"
	ActionUpload   ActionKind = "upload"
	ActionWait     ActionKind = "wait"
)

type Action struct {
	Kind     ActionKind
	Selector string
	Value    string
}

type Session struct {
	mu       sync.Mutex
	actions  []Action
	url      string
	closed   bool
	closedCh chan struct{}
	onClose  func()

	failures map[string]error
	failLeft map[string]int
	hidden   map[string]bool
	blocking map[string]bool
	panics   map[string]bool
	texts    map[string]string
	html     string
}

func NewSession() *Session {
	return &Session{
		closedCh: make(chan struct{}),
		failures: make(map[string]error),
		failLeft: make(map[string]int),
		hidden:   make(map[string]bool),
		blocking: make(map[string]bool),
		panics:   make(map[string]bool),
		texts:    make(map[string]string),
		html:     "<html><body></body></html>",
	}
}

// FailOn makes every action on selector return err.
func (s *Session) FailOn(selector string, err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[selector] = err
	delete(s.failLeft, selector)
	return s
}

// FailTimes makes the first n actions on selector fail, then lets them through.
func (s *Session) FailTimes(selector string, n int, err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[selector] = err
	s.failLeft[selector] = n
	return s
}

// Hide makes Exists report false for selector.
func (s *Session) Hide(selector string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[selector] = true
	return s
}

// BlockOn makes actions on selector hang until the session is closed, ignoring ctx.
func (s *Session) BlockOn(selector string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocking[selector] = true
	return s
}

func (s *Session) PanicOn(selector string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[selector] = true
	return s
}

func (s *Session) SetText(selector, text string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[selector] = text
	return s
}

func (s *Session) SetHTML(html string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
	return s
}

func (s *Session) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// Did reports whether an action of kind was performed on selector.
func (s *Session) Did(kind ActionKind, selector string) bool {
	for _, a := range s.Actions() {
		if a.Kind == kind && a.Selector == selector {
			return true
		}
	}
	return false
}

// Value returns the last value filled into selector.
func (s *Session) Value(selector string) string {
	actions := s.Actions()
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Kind == ActionFill && actions[i].Selector == selector {
			return actions[i].Value
		}
	}
	return ""
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) act(kind ActionKind, selector, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.panics[selector] {
		s.mu.Unlock()
		panic(fmt.Sprintf("dry-run panic on %s", selector))
	}
	block := s.blocking[selector]
	s.mu.Unlock()

	if block {
		<-s.closedCh
		return ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failures[selector]; ok {
		left, counted := s.failLeft[selector]
		switch {
		case !counted:
			return err
		case left > 0:
			s.failLeft[selector] = left - 1
			return err
		}
	}
	if s.hidden[selector] && kind != ActionNavigate {
		return fmt.Errorf("element not found: %s", selector)
	}
	s.actions = append(s.actions, Action{Kind: kind, Selector: selector, Value: value})
	if kind == ActionNavigate {
		s.url = selector
	}
	return nil
}

func (s *Session) Navigate(_ context.Context, url string) error {
	return s.act(ActionNavigate, url, "")
}

func (s *Session) Click(_ context.Context, selector string) error {
	return s.act(ActionClick, selector, "")
}

func (s *Session) Fill(_ context.Context, selector, text string) error {
	return s.act(ActionFill, selector, text)
}

func (s *Session) Upload(_ context.Context, selector string, paths ...string) error {
	value := ""
	if len(paths) > 0 {
		value = paths[0]
	}
	return s.act(ActionUpload, selector, value)
}

func (s *Session) WaitFor(_ context.Context, selector string) error {
	return s.act(ActionWait, selector, "")
}

func (s *Session) Exists(_ context.Context, selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	return !s.hidden[selector], nil
}

func (s *Session) Text(_ context.Context, selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	if err, ok := s.failures[selector]; ok {
		return "", err
	}
	return s.texts[selector], nil
}

func (s *Session) HTML(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	return s.html, nil
}

// Screenshot returns a small grey JPEG.
func (s *Session) Screenshot(_ context.Context) ([]byte, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = color.Gray{Y: 200}.Y
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) IsReady() bool {
	return !s.Closed()
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closedCh)
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}
