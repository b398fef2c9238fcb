package booth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Camera captures a single encoded frame.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

var (
	ErrNoPendingCapture = errors.New("no capture is pending")
	ErrCaptureTimeout   = errors.New("timed out waiting for frame")
)

// RemoteCamera is a camera that lives in the browser. Capture announces a
// request through OnRequest and blocks until the browser hands the frame
// back with Deliver.
type RemoteCamera struct {
	Timeout   time.Duration
	OnRequest func()

	mu      sync.Mutex
	pending chan []byte
}

func NewRemoteCamera(timeout time.Duration, onRequest func()) *RemoteCamera {
	return &RemoteCamera{
		Timeout:   timeout,
		OnRequest: onRequest,
	}
}

func (r *RemoteCamera) Capture(ctx context.Context) ([]byte, error) {
	ch := make(chan []byte, 1)
	r.mu.Lock()
	r.pending = ch
	r.mu.Unlock()

	if r.OnRequest != nil {
		r.OnRequest()
	}

	var timeout <-chan time.Time
	if r.Timeout > 0 {
		t := time.NewTimer(r.Timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case frame := <-ch:
		return frame, nil
	case <-timeout:
		return r.abandon(ch, ErrCaptureTimeout)
	case <-ctx.Done():
		return r.abandon(ch, ctx.Err())
	}
}

// abandon stops accepting frames for ch. A frame delivered before the lock
// was taken still wins over err.
func (r *RemoteCamera) abandon(ch chan []byte, err error) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == ch {
		r.pending = nil
	}
	select {
	case frame := <-ch:
		return frame, nil
	default:
		return nil, err
	}
}

// Deliver hands a frame to the pending Capture call.
func (r *RemoteCamera) Deliver(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return ErrNoPendingCapture
	}
	r.pending <- frame
	r.pending = nil
	return nil
}

// Pending reports whether a Capture call is waiting for a frame.
func (r *RemoteCamera) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}
