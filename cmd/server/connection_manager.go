package main

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ko-stant/estate-visibility-engine/internal/project"
)

// Session is one connected map page and its scene
type Session struct {
	ID         uuid.UUID
	Controller *SceneController
	Handlers   *IntentHandlers
}

// SessionManager tracks the scene controller of every websocket session
type SessionManager struct {
	sessions map[uuid.UUID]*Session
	mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[uuid.UUID]*Session)}
}

func (sm *SessionManager) Add(s *Session) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.sessions[s.ID] = s
}

// Remove drops the session and disposes its controller
func (sm *SessionManager) Remove(id uuid.UUID) {
	sm.mutex.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mutex.Unlock()

	if ok {
		s.Controller.Dispose()
	}
}

func (sm *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// All returns the sessions ordered by id
func (sm *SessionManager) All() []*Session {
	sm.mutex.RLock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	sm.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (sm *SessionManager) Count() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.sessions)
}

// ReloadCatalog hands a fresh catalog to every session. Failures are
// logged per session.
func (sm *SessionManager) ReloadCatalog(cat *project.Catalog, logger Logger) {
	for _, s := range sm.All() {
		if err := s.Controller.SetCatalog(cat); err != nil {
			logger.Printf("session %s: catalog reload: %v", s.ID, err)
		}
	}
}

// ReloadProject reloads every session that requested the project document
// name. Display names inside the document are not consulted.
func (sm *SessionManager) ReloadProject(ctx context.Context, name string, load ProjectLoader, logger Logger) int {
	n := 0
	for _, s := range sm.All() {
		if s.Controller.Document() != name {
			continue
		}
		p, ok := load(ctx, name)
		if err := s.Controller.Load(name, p, ok); err != nil {
			logger.Printf("session %s: reload %s: %v", s.ID, name, err)
		}
		n++
	}
	return n
}
