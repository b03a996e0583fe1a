package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // camera frames
	_ "image/png"
	"sync"
	"time"

	"github.com/GTDGit/shelf_api/internal/utils"
)

// ErrSourceUnavailable is returned when a frame source cannot be opened,
// e.g. the device denied camera permission or the source was already released.
var ErrSourceUnavailable = errors.New("frame source unavailable")

// Frame is one captured camera image.
type Frame struct {
	Image      image.Image
	Raw        []byte
	CapturedAt time.Time
}

// DecodeFrame parses an encoded JPEG or PNG camera frame.
func DecodeFrame(raw []byte) (Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: frame is not a JPEG or PNG image (%v)", utils.ErrInvalidInput, err)
	}
	return Frame{Image: img, Raw: raw, CapturedAt: time.Now()}, nil
}

// FrameSource is an exclusive camera abstraction. Open acquires it, Frames
// yields captured frames until Close releases it.
type FrameSource interface {
	Open() error
	Frames() <-chan Frame
	Close() error
}

// PushSource is a FrameSource fed by frames uploaded from the device camera.
type PushSource struct {
	mu     sync.Mutex
	frames chan Frame
	opened bool
	closed bool
}

// NewPushSource creates a source buffering up to size frames.
func NewPushSource(size int) *PushSource {
	if size <= 0 {
		size = 4
	}
	return &PushSource{frames: make(chan Frame, size)}
}

// Open marks the source as acquired. A released source cannot be reopened.
func (p *PushSource) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSourceUnavailable
	}
	p.opened = true
	return nil
}

// Frames returns the frame channel. It is closed by Close.
func (p *PushSource) Frames() <-chan Frame {
	return p.frames
}

// Push enqueues a frame. When the buffer is full the frame is dropped
// and false is returned; the camera will deliver another one shortly.
func (p *PushSource) Push(f Frame) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.opened {
		return false, ErrSourceUnavailable
	}
	select {
	case p.frames <- f:
		return true, nil
	default:
		return false, nil
	}
}

// Close releases the source. It is safe to call more than once.
func (p *PushSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.frames)
	}
	return nil
}

// Released reports whether Close has been called.
func (p *PushSource) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
