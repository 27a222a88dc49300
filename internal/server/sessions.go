package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

// errNoSession is returned for unknown session ids.
var errNoSession = errors.New("server: session not found")

// Session is one editor reachable over HTTP. The editor itself is not
// safe for concurrent use, so every access goes through mu.
type Session struct {
	ID      string
	Created time.Time

	mu     sync.Mutex
	editor *circuit.Editor
}

// Sessions is the set of live sessions.
type Sessions struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	now   func() time.Time
	limit int // max live sessions, 0 for no limit
}

// NewSessions returns an empty session set.
func NewSessions(limit int) *Sessions {
	return &Sessions{byID: make(map[string]*Session), now: time.Now, limit: limit}
}

// Create starts a session around doc, or an empty document when doc is nil.
func (s *Sessions) Create(doc *circuit.Document) (*Session, error) {
	var e *circuit.Editor
	if doc == nil {
		e = circuit.NewEditor()
	} else {
		e = circuit.NewEditorFor(doc)
	}
	sess := &Session{ID: uuid.NewString(), Created: s.now(), editor: e}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.byID) >= s.limit {
		return nil, fmt.Errorf("server: session limit %d reached", s.limit)
	}
	s.byID[sess.ID] = sess
	return sess, nil
}

// Get returns the session with the given id.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoSession, id)
	}
	return sess, nil
}

// Remove drops a session.
func (s *Sessions) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", errNoSession, id)
	}
	delete(s.byID, id)
	return nil
}

// IDs lists live session ids, oldest first.
func (s *Sessions) IDs() []string {
	s.mu.RLock()
	list := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Created.Before(list[j].Created) })
	ids := make([]string, len(list))
	for i, sess := range list {
		ids[i] = sess.ID
	}
	return ids
}

// Do runs fn with the session editor locked.
func (sess *Session) Do(fn func(e *circuit.Editor) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.editor)
}
