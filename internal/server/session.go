package server

import (
	"errors"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/SecorD0/selenium/internal/dom"
	"github.com/SecorD0/selenium/internal/elements"
	"github.com/SecorD0/selenium/internal/logging"
	"github.com/SecorD0/selenium/internal/script"
)

// ErrNoSuchSession is returned for unknown session identifiers.
var ErrNoSuchSession = errors.New("server: no such session")

// Session binds one engine runtime to one document and the registry of
// elements handed out from it. Commands against a session are serialized
// by its mutex; the engine runtime is not safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	vm       *goja.Runtime
	doc      *dom.Document
	host     *script.Host
	registry *elements.Registry
	log      *logging.Logger

	// asyncWorker is the worker the engine handle last moved into. Until
	// it finishes, the runtime belongs to it and must not be touched here.
	asyncWorker *script.Worker
}

func newSession(pageHTML string, log *logging.Logger) (*Session, error) {
	vm := goja.New()
	doc, err := dom.Parse(vm, pageHTML, log)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		ID:       id,
		vm:       vm,
		doc:      doc,
		log:      log.Named("session"),
		registry: elements.NewRegistry(doc, log),
	}
	s.host = script.NewHost(vm, doc.Object(), s.log)
	return s, nil
}

// Host returns the current engine handle.
func (s *Session) Host() *script.Host { return s.host }

// Registry returns the session's element registry.
func (s *Session) Registry() *elements.Registry { return s.registry }

// Document returns the session's document.
func (s *Session) Document() *dom.Document { return s.doc }

// rebindHost installs a fresh engine handle over the session's runtime and
// document. Needed after an asynchronous execution: the previous handle was
// moved into the worker context and must not be reused by this side.
func (s *Session) rebindHost() {
	s.host = script.NewHost(s.vm, s.doc.Object(), s.log)
}

// trackAsyncWorker records the worker an asynchronous dispatch moved the
// engine handle into. Called under the session mutex.
func (s *Session) trackAsyncWorker(w *script.Worker) {
	s.asyncWorker = w
}

const reclaimPoll = time.Millisecond

// reclaim regains exclusive use of the runtime after an asynchronous
// execution. A worker that already finished is simply observed; one still
// evaluating a detached script is interrupted and waited out, since the
// runtime cannot serve two goroutines. Runs under the session mutex.
func (s *Session) reclaim() {
	w := s.asyncWorker
	if w == nil {
		return
	}
	if !w.Done() {
		s.vm.Interrupt("execution superseded by next session command")
		for !w.Done() {
			time.Sleep(reclaimPoll)
		}
		s.vm.ClearInterrupt()
	}
	s.asyncWorker = nil
	s.rebindHost()
}

// lock serializes command execution against this session and reclaims the
// runtime from any outstanding asynchronous worker.
func (s *Session) lock() {
	s.mu.Lock()
	s.reclaim()
}

func (s *Session) unlock() { s.mu.Unlock() }

// SessionStore tracks live sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logging.Logger
}

// NewSessionStore creates an empty store.
func NewSessionStore(log *logging.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Create parses pageHTML into a new session.
func (st *SessionStore) Create(pageHTML string) (*Session, error) {
	session, err := newSession(pageHTML, st.log)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session, nil
}

// Get resolves a session identifier.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	if !ok {
		return nil, ErrNoSuchSession
	}
	return session, nil
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNoSuchSession
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
