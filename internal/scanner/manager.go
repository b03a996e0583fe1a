package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/utils"
)

// DetectedFunc is notified when a user's session reads a barcode.
type DetectedFunc func(userID, sessionID string, det Detection)

// Manager owns at most one scan session per user. The camera is exclusive,
// so starting a session stops the user's previous one.
type Manager struct {
	decoder     Decoder
	idleTimeout time.Duration
	bufferSize  int
	onDetected  DetectedFunc
	newSource   func(size int) *PushSource

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*userSession // keyed by user id
}

type userSession struct {
	session *Session
	source  *PushSource
}

// NewManager creates a session manager. onDetected may be nil.
func NewManager(decoder Decoder, idleTimeout time.Duration, onDetected DetectedFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		decoder:     decoder,
		idleTimeout: idleTimeout,
		bufferSize:  4,
		onDetected:  onDetected,
		newSource:   NewPushSource,
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[string]*userSession),
	}
}

// Start begins a new scan session for userID.
func (m *Manager) Start(userID string) (Status, error) {
	m.mu.Lock()
	prev := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if prev != nil {
		prev.session.Stop()
	}

	if m.ctx.Err() != nil {
		return Status{}, utils.ErrSessionClosed
	}

	id := uuid.New().String()
	src := m.newSource(m.bufferSize)
	sess := NewSession(id, m.decoder, m.idleTimeout)

	err := sess.Start(m.ctx, src, func(det Detection) {
		log.Info().Str("user_id", userID).Str("session_id", id).Str("barcode", det.Text).
			Str("format", det.Format).Msg("barcode detected")
		if m.onDetected != nil {
			m.onDetected(userID, id, det)
		}
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("scan session failed to start")
		return sess.Status(), err
	}

	// A concurrent Start for the same user may have stored its session
	// meanwhile; the camera has one owner, so the displaced one is stopped.
	m.mu.Lock()
	displaced := m.sessions[userID]
	closed := m.ctx.Err() != nil
	if !closed {
		m.sessions[userID] = &userSession{session: sess, source: src}
	}
	m.mu.Unlock()

	if displaced != nil {
		displaced.session.Stop()
	}
	if closed {
		sess.Stop()
		return sess.Status(), utils.ErrSessionClosed
	}

	log.Debug().Str("user_id", userID).Str("session_id", id).Msg("scan session started")
	return sess.Status(), nil
}

func (m *Manager) lookup(userID, sessionID string) (*userSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok || us.session.ID() != sessionID {
		return nil, utils.ErrSessionNotFound
	}
	return us, nil
}

// PushFrame hands an encoded camera frame to the user's session.
// Frames pushed after the session finished return utils.ErrSessionClosed.
func (m *Manager) PushFrame(userID, sessionID string, raw []byte) (Status, error) {
	us, err := m.lookup(userID, sessionID)
	if err != nil {
		return Status{}, err
	}
	if st := us.session.Status(); st.State != StateScanning {
		return st, utils.ErrSessionClosed
	}
	frame, err := DecodeFrame(raw)
	if err != nil {
		return us.session.Status(), err
	}
	if _, err := us.source.Push(frame); err != nil {
		return us.session.Status(), utils.ErrSessionClosed
	}
	return us.session.Status(), nil
}

// Status reports the state of the user's session.
func (m *Manager) Status(userID, sessionID string) (Status, error) {
	us, err := m.lookup(userID, sessionID)
	if err != nil {
		return Status{}, err
	}
	return us.session.Status(), nil
}

// Stop stops the user's session. Stopping a finished, replaced or unknown
// session is a no-op reported as stopped.
func (m *Manager) Stop(userID, sessionID string) (Status, error) {
	us, err := m.lookup(userID, sessionID)
	if err != nil {
		return Status{ID: sessionID, State: StateStopped}, nil
	}
	us.session.Stop()
	return us.session.Status(), nil
}

// Shutdown stops every session and refuses new ones.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	all := make([]*userSession, 0, len(m.sessions))
	for _, us := range m.sessions {
		all = append(all, us)
	}
	m.sessions = make(map[string]*userSession)
	m.mu.Unlock()

	for _, us := range all {
		us.session.Stop()
	}
	log.Info().Int("sessions", len(all)).Msg("scan sessions stopped")
}
