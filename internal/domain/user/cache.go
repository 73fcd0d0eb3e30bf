package user

import "time"

type Cache interface {
	GetSession(userID string) (*Session, bool)
	SetSession(userID string, session *Session, ttl time.Duration)
	DeleteSession(userID string)
	GetBuildings() ([]Building, bool)
	SetBuildings(buildings []Building, ttl time.Duration)
	DeleteBuildings()
	Clear()
}

type noopCache struct{}

func (noopCache) GetSession(string) (*Session, bool) {
	return nil, false
}

func (noopCache) SetSession(string, *Session, time.Duration) {}

func (noopCache) DeleteSession(string) {}

func (noopCache) GetBuildings() ([]Building, bool) {
	return nil, false
}

func (noopCache) SetBuildings([]Building, time.Duration) {}

func (noopCache) DeleteBuildings() {}

func (noopCache) Clear() {}
