package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session  core.MemberSession
	Cancel   context.CancelFunc
	Username domain.Username
	Room     domain.RoomCode
	State    core.SessionState
}

// Registry tracks live sessions and the room each one is bound to. It is the
// liveness view; the store's participant lists are only a join log.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	ordering map[domain.RoomCode]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		ordering: make(map[domain.RoomCode]*sync.Mutex),
	}
}

// BindSignal registers a freshly connected, not yet joined session.
func (r *Registry) BindSignal(sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID()] = &sessionEntry{Session: sess, Cancel: cancel, State: core.Unjoined}
	log.Info().Str("module", "app.registry").Str("sid", string(sess.ID())).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// State of an unknown session is Disconnected.
func (r *Registry) State(sid core.SessionID) core.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.State
	}
	return core.Disconnected
}

// BindRoom moves an Unjoined session to Joined. It fails for unknown or
// already joined sessions.
func (r *Registry) BindRoom(sid core.SessionID, username domain.Username, code domain.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.State != core.Unjoined {
		return false
	}
	e.Username = username
	e.Room = code
	e.State = core.Joined
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(username)).Str("room", string(code)).Msg("bound room")
	return true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomCode, domain.Username, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.State != core.Joined {
		return "", "", false
	}
	return e.Room, e.Username, true
}

// Unbind forgets the session. It returns the state the session was in
// before disconnecting, with the room and user it was bound to if any.
func (r *Registry) Unbind(sid core.SessionID) (core.SessionState, domain.RoomCode, domain.Username, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return core.Disconnected, "", "", false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.State, e.Room, e.Username, true
}

type regSnap struct {
	SID     core.SessionID
	Session core.MemberSession
}

// MembersOfRoom snapshots the sessions currently bound to code.
func (r *Registry) MembersOfRoom(code domain.RoomCode) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.State == core.Joined && e.Room == code {
			out = append(out, regSnap{SID: sid, Session: e.Session})
		}
	}
	return out
}

func (r *Registry) Sessions() []core.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionInfo, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, core.SessionInfo{ID: sid, Username: e.Username, Room: e.Room, State: e.State.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// LockRoom acquires the delivery ordering lock of a room and returns its
// release. Callers hold it across a store mutation and the fan-out of its
// result so recipients observe the store's commit order. It must be taken
// before the store lock, never after.
func (r *Registry) LockRoom(code domain.RoomCode) func() {
	r.mu.Lock()
	m, ok := r.ordering[code]
	if !ok {
		m = &sync.Mutex{}
		r.ordering[code] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}
