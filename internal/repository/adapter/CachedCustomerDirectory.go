package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	cport "spachat/internal/infrastructure/cache/port"
	repository "spachat/internal/repository/port"
)

const directoryTTL = 5 * time.Minute

// CachedCustomerDirectory is a read-through cache in front of another
// directory. Conversation listings look every counterpart up per row, so
// hot profiles stay out of Postgres. Cache trouble falls back to the
// underlying directory; it never turns a working lookup into a failure.
type CachedCustomerDirectory struct {
	next  repository.CustomerDirectory
	cache cport.Cache
}

func NewCachedCustomerDirectory(next repository.CustomerDirectory, cache cport.Cache) *CachedCustomerDirectory {
	return &CachedCustomerDirectory{next: next, cache: cache}
}

var _ repository.CustomerDirectory = (*CachedCustomerDirectory)(nil)

func (d *CachedCustomerDirectory) Lookup(ctx context.Context, customerID string) (repository.CustomerProfile, error) {
	key := "chat:customer:" + customerID

	cached, err := d.cache.Get(ctx, key)
	if err == nil {
		var p repository.CustomerProfile
		if json.Unmarshal([]byte(cached), &p) == nil {
			return p, nil
		}
		// Unreadable entry: drop it and re-read below.
		_, _ = d.cache.Del(ctx, key)
	} else if !errors.Is(err, cport.ErrMiss) {
		log.Printf("directory: cache get %s: %v", customerID, err)
	}

	p, err := d.next.Lookup(ctx, customerID)
	if err != nil {
		return repository.CustomerProfile{}, err
	}

	if b, err := json.Marshal(p); err == nil {
		if err := d.cache.Set(ctx, key, string(b), directoryTTL); err != nil {
			log.Printf("directory: cache set %s: %v", customerID, err)
		}
	}
	return p, nil
}
