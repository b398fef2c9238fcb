package booth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session modes.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Session states.
const (
	StateRunning   = "running"
	StateComposing = "composing"
	StateDone      = "done"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

var (
	ErrSessionBusy     = errors.New("another session is running")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session is not capturing")
	ErrInvalidMode     = errors.New("invalid session mode")
)

// FinishFunc turns the captured frames of a session into a stored
// composite and returns its name.
type FinishFunc func(ctx context.Context, s *Session, frames [][]byte) (string, error)

// StartOptions describes a new session.
type StartOptions struct {
	Mode      string
	Template  string
	Shots     int
	Countdown int
}

// Session is one capture run. Its frames only live as long as the session.
type Session struct {
	ID        string
	Mode      string
	Template  string
	Total     int
	CreatedAt time.Time

	camera *RemoteCamera
	events *Broadcaster
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    string
	frames   [][]byte
	capture  string
	err      error
	requests int
}

// Status is a point in time view of a session.
type Status struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Template  string    `json:"template"`
	State     string    `json:"state"`
	Total     int       `json:"total"`
	Frames    int       `json:"frames"`
	Capture   string    `json:"capture,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:        s.ID,
		Mode:      s.Mode,
		Template:  s.Template,
		State:     s.state,
		Total:     s.Total,
		Frames:    len(s.frames),
		Capture:   s.capture,
		CreatedAt: s.CreatedAt,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

// Frames returns the captured frames in shot order.
func (s *Session) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *Session) Events() *Broadcaster {
	return s.events
}

// Done is closed once the session stops running.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) addFrame(_ int, frame []byte) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
}

func (s *Session) requestFrame() {
	s.mu.Lock()
	s.requests++
	shot := s.requests
	s.mu.Unlock()
	s.events.Emit(Event{Type: EventCapture, Shot: shot, Total: s.Total})
}

// Manager owns the capture sessions. Only one session may capture at a
// time since the booth has a single camera.
type Manager struct {
	finish FinishFunc
	timing Timing

	mu       sync.Mutex
	active   *Session
	sessions map[string]*Session
}

func NewManager(finish FinishFunc, timing Timing) *Manager {
	return &Manager{
		finish:   finish,
		timing:   timing,
		sessions: make(map[string]*Session),
	}
}

// Start begins a new session in the background. Frames and composites of
// earlier sessions are discarded.
func (m *Manager) Start(opts StartOptions) (*Session, error) {
	switch opts.Mode {
	case ModeSingle:
		opts.Shots = 1
	case ModeMulti:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	if opts.Shots < 1 {
		return nil, fmt.Errorf("session needs at least one shot, got %d", opts.Shots)
	}
	if opts.Countdown < 0 {
		return nil, fmt.Errorf("countdown must not be negative, got %d", opts.Countdown)
	}

	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		return nil, ErrSessionBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      opts.Mode,
		Template:  opts.Template,
		Total:     opts.Shots,
		CreatedAt: time.Now(),
		events:    NewBroadcaster(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateRunning,
	}
	s.camera = NewRemoteCamera(m.timing.CaptureTimeout, s.requestFrame)

	clear(m.sessions)
	m.sessions[s.ID] = s
	m.active = s
	m.mu.Unlock()

	slog.Info("starting capture session", "id", s.ID, "mode", s.Mode, "shots", s.Total, "countdown", opts.Countdown)
	go m.run(ctx, s, SequenceParams{
		Shots:     opts.Shots,
		Countdown: opts.Countdown,
		Timing:    m.timing,
		OnFrame:   s.addFrame,
	})
	return s, nil
}

func (m *Manager) run(ctx context.Context, s *Session, p SequenceParams) {
	defer func() {
		// done is always the last event of a stream
		st := s.Status()
		s.events.Emit(Event{Type: EventDone, Total: s.Total, Capture: st.Capture, State: st.State})
		s.cancel()
		s.events.Close()

		m.mu.Lock()
		if m.active == s {
			m.active = nil
		}
		m.mu.Unlock()
		close(s.done)
	}()

	frames, err := NewSequence(s.camera, s.events).Run(ctx, p)
	if err != nil {
		m.fail(ctx, s, err)
		return
	}

	s.setState(StateComposing)

	name, err := m.finish(ctx, s, frames)
	if err != nil {
		m.fail(ctx, s, err)
		return
	}

	s.mu.Lock()
	s.capture = name
	s.state = StateDone
	s.mu.Unlock()

	slog.Info("capture session complete", "id", s.ID, "capture", name)
	s.events.Emit(Event{Type: EventComposed, Total: s.Total, Capture: name})
}

func (m *Manager) fail(ctx context.Context, s *Session, err error) {
	if ctx.Err() != nil {
		slog.Info("capture session cancelled", "id", s.ID)
		s.setState(StateCancelled)
		return
	}

	slog.Error("capture session failed", "id", s.ID, "error", err)
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	s.events.Emit(Event{Type: EventError, Total: s.Total, Message: err.Error()})
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Deliver hands a browser frame to the session's pending capture.
func (m *Manager) Deliver(id string, frame []byte) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if s.Status().State != StateRunning {
		return ErrSessionFinished
	}
	return s.camera.Deliver(frame)
}

// Discard cancels a session and forgets its frames. It waits for the
// session to stop and returns its final status.
func (m *Manager) Discard(ctx context.Context, id string) (Status, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return Status{}, ErrSessionNotFound
	}

	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}

	st := s.Status()
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
	slog.Info("discarded capture session", "id", id, "state", st.State)
	return st, nil
}

// Active returns the running session, if any.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown cancels the running session and waits for it to stop.
func (m *Manager) Shutdown(ctx context.Context) error {
	s := m.Active()
	if s == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
