// Package refine coordinates one refinement turn: parse the request, compile
// the prompt, call the generator, and commit the result to session history.
// A session admits one in-flight refinement at a time; concurrent callers
// get ErrBusy instead of queueing.
package refine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/generate"
	"github.com/Jamesybdp/VetaCV-AI/internal/history"
	"github.com/Jamesybdp/VetaCV-AI/internal/intent"
	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/internal/prompt"
)

var (
	// ErrBusy is returned when a session already has a refinement in flight.
	ErrBusy = errors.New("refine: session busy")
	// ErrNoSession is returned for unknown session IDs.
	ErrNoSession = errors.New("refine: session not found")
)

const (
	defaultTimeout         = 60 * time.Second
	defaultPersistDebounce = 2 * time.Second
)

// SnapshotStore persists session history. Saves are idempotent: writing the
// same snapshot twice is a no-op at the storage layer.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, states []models.DocumentState, cursor int) error
}

type session struct {
	mu      sync.Mutex
	busy    bool
	history history.History
	refCtx  models.RefinementContext

	persistTimer *time.Timer
}

// Service owns all live sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	generator generate.Generator
	parser    *intent.Parser
	compiler  *prompt.Compiler
	store     SnapshotStore
	logger    *zap.Logger
	timeout   time.Duration
	debounce  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithPersistDebounce sets the quiet period before a session snapshot is
// written.
func WithPersistDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// WithSnapshotStore enables persistence. Without a store, history lives only
// in memory.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// NewService creates a Service around the given generator.
func NewService(gen generate.Generator, opts ...Option) *Service {
	s := &Service{
		sessions:  make(map[string]*session),
		generator: gen,
		parser:    intent.NewParser(),
		compiler:  prompt.NewCompiler(),
		logger:    zap.NewNop(),
		timeout:   defaultTimeout,
		debounce:  defaultPersistDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession registers a session seeded with the initial document state.
// An existing session with the same ID is replaced.
func (s *Service) CreateSession(id string, initial models.DocumentState, refCtx models.RefinementContext) {
	sess := &session{
		history: history.Commit(history.History{}, initial),
		refCtx:  refCtx,
	}
	s.register(id, sess)
	s.schedulePersist(id, sess)
}

// RestoreSession registers a session from persisted history.
func (s *Service) RestoreSession(id string, states []models.DocumentState, cursor int, refCtx models.RefinementContext) {
	sess := &session{
		history: history.Restore(states, cursor),
		refCtx:  refCtx,
	}
	s.register(id, sess)
}

// register installs sess under id. A displaced session's armed persist timer
// is stopped so a stale snapshot can never overwrite the replacement's.
func (s *Service) register(id string, sess *session) {
	s.mu.Lock()
	old := s.sessions[id]
	s.sessions[id] = sess
	s.mu.Unlock()
	if old != nil {
		old.stopPersistTimer()
	}
}

// DeleteSession removes a session and cancels any pending snapshot write.
// Reports whether the session was live.
func (s *Service) DeleteSession(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.stopPersistTimer()
	return true
}

func (sess *session) stopPersistTimer() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.persistTimer != nil {
		sess.persistTimer.Stop()
		sess.persistTimer = nil
	}
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// tryAcquire marks the session busy, failing fast when it already is.
func (sess *session) tryAcquire() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.busy {
		return false
	}
	sess.busy = true
	return true
}

func (sess *session) release() {
	sess.mu.Lock()
	sess.busy = false
	sess.mu.Unlock()
}

// Refine runs one refinement turn. The turn is all-or-nothing: history
// advances only after the generator response validates. A cancelled or
// timed-out call leaves the session exactly as it was.
func (s *Service) Refine(ctx context.Context, sessionID, request string) (*models.RefinementResult, models.DocumentState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, models.DocumentState{}, err
	}
	if !sess.tryAcquire() {
		return nil, models.DocumentState{}, ErrBusy
	}
	defer sess.release()

	sess.mu.Lock()
	current, ok := sess.history.Current()
	refCtx := sess.refCtx
	sess.mu.Unlock()
	if !ok {
		return nil, models.DocumentState{}, history.ErrEmpty
	}

	directives := s.parser.Parse(request, refCtx)
	compiled := s.compiler.Compile(directives, current, request, refCtx)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.generator.Refine(callCtx, compiled)
	if err != nil {
		s.logger.Warn("refinement discarded",
			zap.String("session", sessionID),
			zap.Error(err))
		return nil, models.DocumentState{}, err
	}

	next := models.NewDocumentState(result.Markup, result.DigitalSummary)

	sess.mu.Lock()
	sess.history = history.Commit(sess.history, next)
	historyLen := sess.history.Len()
	sess.mu.Unlock()

	s.logger.Info("refinement committed",
		zap.String("session", sessionID),
		zap.Int("directives", len(directives)),
		zap.Int("history_len", historyLen))

	s.schedulePersist(sessionID, sess)
	return result, next, nil
}

// Undo steps the session one state back.
func (s *Service) Undo(sessionID string) (models.DocumentState, error) {
	return s.step(sessionID, history.Undo)
}

// Redo steps the session one state forward.
func (s *Service) Redo(sessionID string) (models.DocumentState, error) {
	return s.step(sessionID, history.Redo)
}

func (s *Service) step(sessionID string, op func(history.History) (history.History, models.DocumentState, error)) (models.DocumentState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return models.DocumentState{}, err
	}
	if !sess.tryAcquire() {
		return models.DocumentState{}, ErrBusy
	}
	defer sess.release()

	sess.mu.Lock()
	next, state, err := op(sess.history)
	if err == nil {
		sess.history = next
	}
	sess.mu.Unlock()
	if err != nil {
		return models.DocumentState{}, err
	}
	s.schedulePersist(sessionID, sess)
	return state, nil
}

// Current returns the session's current document state.
func (s *Service) Current(sessionID string) (models.DocumentState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return models.DocumentState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	state, ok := sess.history.Current()
	if !ok {
		return models.DocumentState{}, history.ErrEmpty
	}
	return state, nil
}

// schedulePersist (re)arms the session's debounce timer. Rapid successive
// edits collapse into one snapshot write.
func (s *Service) schedulePersist(sessionID string, sess *session) {
	if s.store == nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.persistTimer != nil {
		sess.persistTimer.Stop()
	}
	sess.persistTimer = time.AfterFunc(s.debounce, func() {
		s.persist(sessionID, sess)
	})
}

func (s *Service) persist(sessionID string, sess *session) {
	sess.mu.Lock()
	states := sess.history.States()
	cursor := sess.history.Cursor()
	sess.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.SaveSnapshot(ctx, sessionID, states, cursor); err != nil {
		s.logger.Error("snapshot persist failed",
			zap.String("session", sessionID),
			zap.Error(err))
		return
	}
	s.logger.Debug("snapshot persisted",
		zap.String("session", sessionID),
		zap.Int("states", len(states)))
}

// Flush writes all pending snapshots immediately. Used on shutdown.
func (s *Service) Flush() {
	if s.store == nil {
		return
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		ids = append(ids, id)
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for i, sess := range sessions {
		sess.mu.Lock()
		if sess.persistTimer != nil {
			sess.persistTimer.Stop()
			sess.persistTimer = nil
		}
		sess.mu.Unlock()
		s.persist(ids[i], sess)
	}
}
