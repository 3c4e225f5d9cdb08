package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/samber/lo"
)

// Blocklist is the moderation registry. Membership only matters at publish
// time; joining and receiving are never affected.
type Blocklist struct {
	mu    sync.RWMutex
	users map[domain.Username]struct{}
}

func NewBlocklist() *Blocklist {
	return &Blocklist{users: make(map[domain.Username]struct{})}
}

// Block reports whether username was newly added.
func (b *Blocklist) Block(username domain.Username) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[username]; ok {
		return false
	}
	b.users[username] = struct{}{}
	return true
}

// Unblock reports whether username was present.
func (b *Blocklist) Unblock(username domain.Username) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[username]; !ok {
		return false
	}
	delete(b.users, username)
	return true
}

func (b *Blocklist) IsBlocked(username domain.Username) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.users[username]
	return ok
}

func (b *Blocklist) List() []domain.Username {
	b.mu.RLock()
	out := lo.Keys(b.users)
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
