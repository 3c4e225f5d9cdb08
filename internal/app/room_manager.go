package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// collisionsBeforeGrow is how many consecutive generated codes may collide
// before the store starts drawing codes one symbol longer.
const collisionsBeforeGrow = 64

type room struct {
	participants []domain.Username
	messages     []domain.Message
}

// RoomStore is the authoritative room -> {participants, messages} mapping.
// Every read and write goes through mu; nothing it returns aliases its state.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomCode]*room
	codeLen int
	gen     CodeGenerator
	now     func() time.Time
}

type StoreOption func(*RoomStore)

func WithCodeLength(n int) StoreOption {
	return func(s *RoomStore) { s.codeLen = n }
}

func WithCodeGenerator(gen CodeGenerator) StoreOption {
	return func(s *RoomStore) { s.gen = gen }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *RoomStore) { s.now = now }
}

func NewRoomStore(opts ...StoreOption) *RoomStore {
	s := &RoomStore{
		rooms:   make(map[domain.RoomCode]*room),
		codeLen: domain.DefaultRoomCodeLength,
		gen:     RandomCode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrJoin appends username to the requested room when it exists.
// Otherwise it creates a room under a fresh unique code. The second result
// reports whether a room was created.
func (s *RoomStore) CreateOrJoin(requested domain.RoomCode, username domain.Username) (domain.RoomCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if requested != "" {
		if r, ok := s.rooms[requested]; ok {
			r.participants = append(r.participants, username)
			return requested, false
		}
	}
	code := s.freshCodeLocked()
	s.rooms[code] = &room{participants: []domain.Username{username}}
	return code, true
}

func (s *RoomStore) freshCodeLocked() domain.RoomCode {
	length := s.codeLen
	collisions := 0
	for {
		code := s.gen(length)
		if _, taken := s.rooms[code]; !taken {
			return code
		}
		log.Debug().Str("module", "app.store").Str("room", string(code)).Err(domain.ErrDuplicateRoomCode).Msg("retrying room code")
		collisions++
		if collisions%collisionsBeforeGrow == 0 {
			length++
		}
	}
}

func (s *RoomStore) Exists(code domain.RoomCode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok
}

// Publish appends a message stamped with the store clock.
func (s *RoomStore) Publish(code domain.RoomCode, username domain.Username, payload string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return domain.Message{}, fmt.Errorf("publish to %q: %w", code, domain.ErrRoomNotFound)
	}
	msg := domain.Message{
		Room:      code,
		Author:    username,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

// Purge drops every message of the room and returns how many were removed.
func (s *RoomStore) Purge(code domain.RoomCode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return 0, fmt.Errorf("purge %q: %w", code, domain.ErrRoomNotFound)
	}
	n := len(r.messages)
	r.messages = nil
	return n, nil
}

// RemoveParticipant evicts the first occurrence of username only.
func (s *RoomStore) RemoveParticipant(code domain.RoomCode, username domain.Username) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false
	}
	idx := lo.IndexOf(r.participants, username)
	if idx < 0 {
		return false
	}
	r.participants = append(r.participants[:idx:idx], r.participants[idx+1:]...)
	return true
}

// RoomsWith lists the rooms whose participant list contains username.
func (s *RoomStore) RoomsWith(username domain.Username) []domain.RoomCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RoomCode
	for code, r := range s.rooms {
		if lo.Contains(r.participants, username) {
			out = append(out, code)
		}
	}
	sortCodes(out)
	return out
}

func (s *RoomStore) ListRooms() map[domain.RoomCode][]domain.Username {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.RoomCode][]domain.Username, len(s.rooms))
	for code, r := range s.rooms {
		out[code] = append([]domain.Username(nil), r.participants...)
	}
	return out
}

func (s *RoomStore) ListMessages(code domain.RoomCode) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil
	}
	return append([]domain.Message(nil), r.messages...)
}

// List returns every room ordered by code.
func (s *RoomStore) List() []core.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(s.rooms))
	for code, r := range s.rooms {
		out = append(out, core.RoomInfo{
			Code:         code,
			Participants: append([]domain.Username(nil), r.participants...),
			MessageCount: len(r.messages),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Sweep removes, across all rooms, every message older than maxAge.
func (s *RoomStore) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for _, r := range s.rooms {
		kept := lo.Filter(r.messages, func(m domain.Message, _ int) bool {
			return !m.Expired(now, maxAge)
		})
		removed += len(r.messages) - len(kept)
		r.messages = kept
	}
	return removed
}

func sortCodes(codes []domain.RoomCode) {
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
}
