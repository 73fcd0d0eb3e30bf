package inmemory

import (
	"sync"
	"time"

	userdomain "foodshare-go/internal/domain/user"
)

// UserCache holds resolved sessions per user and the building directory.
type UserCache struct {
	mu        sync.RWMutex
	sessions  map[string]sessionItem
	buildings *buildingsItem
}

type sessionItem struct {
	value     userdomain.Session
	expiresAt time.Time
}

type buildingsItem struct {
	value     []userdomain.Building
	expiresAt time.Time
}

func NewUserCache() *UserCache {
	return &UserCache{
		sessions: make(map[string]sessionItem),
	}
}

func (c *UserCache) GetSession(userID string) (*userdomain.Session, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.sessions[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.sessions[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.sessions, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *UserCache) SetSession(userID string, session *userdomain.Session, ttl time.Duration) {
	if session == nil || ttl <= 0 {
		c.DeleteSession(userID)
		return
	}

	c.mu.Lock()
	c.sessions[userID] = sessionItem{
		value:     *session,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *UserCache) DeleteSession(userID string) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()
}

func (c *UserCache) GetBuildings() ([]userdomain.Building, bool) {
	c.mu.RLock()
	item := c.buildings
	c.mu.RUnlock()
	if item == nil || !item.expiresAt.After(time.Now()) {
		return nil, false
	}

	out := make([]userdomain.Building, len(item.value))
	copy(out, item.value)
	return out, true
}

func (c *UserCache) SetBuildings(buildings []userdomain.Building, ttl time.Duration) {
	if ttl <= 0 {
		c.DeleteBuildings()
		return
	}

	stored := make([]userdomain.Building, len(buildings))
	copy(stored, buildings)

	c.mu.Lock()
	c.buildings = &buildingsItem{value: stored, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *UserCache) DeleteBuildings() {
	c.mu.Lock()
	c.buildings = nil
	c.mu.Unlock()
}

func (c *UserCache) Clear() {
	c.mu.Lock()
	c.sessions = make(map[string]sessionItem)
	c.buildings = nil
	c.mu.Unlock()
}
