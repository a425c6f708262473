package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Profile is the display name of a chat user.
type Profile struct {
	ID        int64
	FirstName string
	LastName  string
}

// FullName renders "First Last".
func (p Profile) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

// ProfileSource resolves user profiles, typically through the chat API.
type ProfileSource interface {
	Profiles(ctx context.Context, ids []int64) ([]Profile, error)
}

// profileCache stores recently resolved profiles so help and admin replies do
// not hit the chat API for every message.
type profileCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[int64]profileCacheEntry
}

type profileCacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

func newProfileCache(ttl time.Duration, maxEntries int, now func() time.Time) *profileCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &profileCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[int64]profileCacheEntry),
	}
}

func (c *profileCache) Get(id int64) (Profile, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return Profile{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return Profile{}, false
	}
	return entry.profile, true
}

func (c *profileCache) Store(profile Profile) {
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[profile.ID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[profile.ID] = profileCacheEntry{profile: profile, expiresAt: expiry}
}

func (c *profileCache) cleanupLocked() {
	now := c.now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}

func (c *profileCache) evictOneLocked() {
	for id := range c.entries {
		delete(c.entries, id)
		return
	}
}

// ProfileDirectory resolves profiles through a source with a TTL cache in front.
type ProfileDirectory struct {
	source ProfileSource
	cache  *profileCache
	logger *slog.Logger
}

// NewProfileDirectory constructs a directory caching profiles for ttl.
func NewProfileDirectory(source ProfileSource, ttl time.Duration, now func() time.Time, logger *slog.Logger) *ProfileDirectory {
	return &ProfileDirectory{source: source, cache: newProfileCache(ttl, 0, now), logger: defaultLogger(logger)}
}

// Lookup returns the profiles of ids. Ids the source does not know are
// missing from the result.
func (d *ProfileDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]Profile, error) {
	found := make(map[int64]Profile, len(ids))
	var missing []int64
	for _, id := range ids {
		if profile, ok := d.cache.Get(id); ok {
			found[id] = profile
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 || d.source == nil {
		return found, nil
	}

	profiles, err := d.source.Profiles(ctx, missing)
	if err != nil {
		serviceLogger(ctx, d.logger, "ProfileDirectory", "Lookup", "ids", missing).
			ErrorContext(ctx, "failed to resolve profiles", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	for _, profile := range profiles {
		d.cache.Store(profile)
		found[profile.ID] = profile
	}
	return found, nil
}
