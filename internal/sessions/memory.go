package sessions

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type MemoryStore struct {
	items *cache.Cache
	now   func() time.Time
}

// NewMemoryStore создает хранилище сессий в памяти процесса.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cleanup := ttl
	if cleanup > time.Hour {
		cleanup = time.Hour
	}

	return &MemoryStore{
		items: cache.New(ttl, cleanup),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, session Session) (Session, error) {
	id, err := normalizeID(session.ID)
	if err != nil {
		return Session{}, err
	}

	session.ID = id
	session.Itinerary = session.Itinerary.Clone()
	session.UpdatedAt = s.now().UTC()
	s.items.SetDefault(id, session)

	return cloneSession(session), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Session{}, err
	}

	value, ok := s.items.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}

	return cloneSession(value.(Session)), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}

	s.items.Delete(id)
	return nil
}

func cloneSession(session Session) Session {
	session.Itinerary = session.Itinerary.Clone()
	return session
}
