package booth

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Event types sent to the browser while a session runs.
const (
	EventTick     = "tick"
	EventFlash    = "flash"
	EventCapture  = "capture"
	EventCaptured = "captured"
	EventComposed = "composed"
	EventError    = "error"
	EventDone     = "done"
)

// Event is a single progress update of a capture session.
type Event struct {
	Type      string `json:"type"`
	Shot      int    `json:"shot,omitempty"`
	Total     int    `json:"total,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
	Capture   string `json:"capture,omitempty"`
	Message   string `json:"message,omitempty"`
	State     string `json:"state,omitempty"` // final session state, set on done
}

type Emitter interface {
	Emit(evt Event)
}

// Sequence drives the countdown and shot loop of a capture session.
type Sequence struct {
	camera Camera
	events Emitter
}

func NewSequence(c Camera, e Emitter) *Sequence {
	return &Sequence{
		camera: c,
		events: e,
	}
}

// SequenceParams defines one run of the shot loop.
type SequenceParams struct {
	Shots     int
	Countdown int // seconds before each shot, 0 shoots immediately

	Timing

	// OnFrame, when set, receives each frame as soon as it is captured.
	OnFrame func(shot int, frame []byte)
}

// Timing holds the delays of a sequence.
type Timing struct {
	Tick           time.Duration // length of one countdown step
	Settle         time.Duration // delay between the flash and the capture
	PostShot       time.Duration // pause after a shot before the next countdown
	CaptureTimeout time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Tick:           time.Second,
		Settle:         150 * time.Millisecond,
		PostShot:       250 * time.Millisecond,
		CaptureTimeout: 15 * time.Second,
	}
}

// Run counts down and captures p.Shots frames. The frames are returned in
// shot order. A cancelled ctx stops the run between any two steps.
func (s *Sequence) Run(ctx context.Context, p SequenceParams) ([][]byte, error) {
	if p.Shots < 1 {
		return nil, fmt.Errorf("sequence needs at least one shot, got %d", p.Shots)
	}
	if p.Countdown < 0 {
		return nil, fmt.Errorf("countdown must not be negative, got %d", p.Countdown)
	}

	frames := make([][]byte, 0, p.Shots)
	for shot := 1; shot <= p.Shots; shot++ {
		for remaining := p.Countdown; remaining > 0; remaining-- {
			s.events.Emit(Event{Type: EventTick, Shot: shot, Total: p.Shots, Remaining: remaining})
			if err := sleep(ctx, p.Tick); err != nil {
				return nil, err
			}
		}

		s.events.Emit(Event{Type: EventFlash, Shot: shot, Total: p.Shots})
		if err := sleep(ctx, p.Settle); err != nil {
			return nil, err
		}

		frame, err := s.camera.Capture(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture shot %d: %w", shot, err)
		}
		frames = append(frames, frame)
		if p.OnFrame != nil {
			p.OnFrame(shot, frame)
		}
		slog.Debug("captured frame", "shot", shot, "total", p.Shots, "bytes", len(frame))
		s.events.Emit(Event{Type: EventCaptured, Shot: shot, Total: p.Shots})

		if shot < p.Shots {
			if err := sleep(ctx, p.PostShot); err != nil {
				return nil, err
			}
		}
	}
	return frames, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
