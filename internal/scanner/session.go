package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the lifecycle of a scan session.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateDetected State = "detected"
	StateStopped  State = "stopped"
	StateFailed   State = "failed"
)

// ErrAlreadyStarted is returned when Start is called on a session that has run before.
var ErrAlreadyStarted = errors.New("scan session already started")

// Status is a point-in-time view of a session.
type Status struct {
	ID        string     `json:"id"`
	State     State      `json:"state"`
	Detection *Detection `json:"detection,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
}

// Session analyses frames from one source until a single barcode is detected.
type Session struct {
	id          string
	decoder     Decoder
	idleTimeout time.Duration

	mu        sync.Mutex
	state     State
	detection *Detection
	err       error
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	stopOnce sync.Once
}

// NewSession creates an idle session. A zero idleTimeout disables the idle stop.
func NewSession(id string, decoder Decoder, idleTimeout time.Duration) *Session {
	return &Session{id: id, decoder: decoder, idleTimeout: idleTimeout, state: StateIdle}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Start opens src and begins analysing its frames in the background.
// onDetected is invoked at most once, with the first accepted detection,
// after which the session stops on its own. If src cannot be opened the
// session is marked failed and an error wrapping ErrSourceUnavailable is returned.
func (s *Session) Start(ctx context.Context, src FrameSource, onDetected func(Detection)) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.startedAt = time.Now()

	if err := src.Open(); err != nil {
		_ = src.Close()
		s.state = StateFailed
		s.err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		s.mu.Unlock()
		return s.err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateScanning
	s.mu.Unlock()

	go s.run(runCtx, src, onDetected)
	return nil
}

func (s *Session) run(ctx context.Context, src FrameSource, onDetected func(Detection)) {
	det := s.scan(ctx, src)
	close(s.done)
	// The source is already released here, so the callback may start a new session.
	if det != nil && onDetected != nil {
		onDetected(*det)
	}
}

// scan owns src until it returns.
func (s *Session) scan(ctx context.Context, src FrameSource) *Detection {
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn().Err(err).Str("session_id", s.id).Msg("failed to release frame source")
		}
	}()

	var idle <-chan time.Time
	var timer *time.Timer
	if s.idleTimeout > 0 {
		timer = time.NewTimer(s.idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			s.finish(StateStopped, nil)
			return nil
		case <-idle:
			log.Debug().Str("session_id", s.id).Msg("scan session idle, stopping")
			s.finish(StateStopped, nil)
			return nil
		case f, ok := <-frames:
			if !ok {
				s.finish(StateStopped, nil)
				return nil
			}
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.idleTimeout)
			}

			det, err := s.decoder.Decode(ctx, f)
			if err != nil {
				if !errors.Is(err, ErrNoBarcode) {
					log.Debug().Err(err).Str("session_id", s.id).Msg("frame decode error")
				}
				continue
			}
			if !s.finish(StateDetected, &det) {
				return nil
			}
			return &det
		}
	}
}

// finish records the terminal state unless one was already recorded.
func (s *Session) finish(state State, det *Detection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return false
	}
	s.state = state
	s.detection = det
	return true
}

// Stop cancels the session and waits until its frame source is released.
// It is idempotent and safe on sessions that never started.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel, done := s.cancel, s.done
		if s.state == StateIdle {
			s.state = StateStopped
		}
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
	})
}

// Done is closed once the session's run loop has exited. It is nil before Start.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{ID: s.id, State: s.state, StartedAt: s.startedAt}
	if s.detection != nil {
		d := *s.detection
		st.Detection = &d
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}
