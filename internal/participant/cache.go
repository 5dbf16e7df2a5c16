package participant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eventdraw/drawbot/internal/domain"
)

// shortIDCache is an in-memory LRU for short id lookups. Operators
// hammer the lookup endpoint during prize hand-out, and participants
// never change after registration, so a short TTL is safe.
type shortIDCache struct {
	lru *expirable.LRU[int, *domain.Participant]
}

func newShortIDCache(size int, ttl time.Duration) *shortIDCache {
	return &shortIDCache{
		lru: expirable.NewLRU[int, *domain.Participant](size, nil, ttl),
	}
}

type cachedService struct {
	Service
	cache *shortIDCache
}

// NewCachedService wraps a participant service with a short id lookup
// cache.
func NewCachedService(svc Service, size int, ttl time.Duration) Service {
	return &cachedService{
		Service: svc,
		cache:   newShortIDCache(size, ttl),
	}
}

func (s *cachedService) FindByShortID(ctx context.Context, shortID int) (*domain.Participant, error) {
	if p, ok := s.cache.lru.Get(shortID); ok {
		return p, nil
	}

	p, err := s.Service.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}
	s.cache.lru.Add(shortID, p)
	return p, nil
}

// ClaimPrize passes through and drops the cached entry so a follow-up
// lookup reflects the claim.
func (s *cachedService) ClaimPrize(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerInfo, error) {
	info, err := s.Service.ClaimPrize(ctx, eventID, shortID)
	if err != nil {
		return nil, err
	}
	s.cache.lru.Remove(shortID)
	return info, nil
}
