// Package session holds the short-term memory of one conversation: a
// bounded digest cache, the set of messages in focus, and recent turns.
//
// A Store serves a single session. Each method is safe for concurrent
// use, but a sequence of calls is not atomic: a RenderContext running
// alongside writers sees some consistent snapshot of each part, not a
// linearized view of all of them. Callers needing isolation between
// users must keep one Store per session key.
package session

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mull/internal/digest"
)

// Defaults for a new Store.
const (
	DefaultMaxCache   = 50
	DefaultMaxHistory = 10 // exchanges; the history holds twice as many turns
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	MaxCache   int
	MaxHistory int

	// Now overrides the clock used for CachedAt and turn timestamps.
	Now func() time.Time
}

// Store is the context state for one session.
type Store struct {
	id         string
	maxCache   int
	maxHistory int
	now        func() time.Time

	// cache is only ever read with Peek, so its recency order is the
	// insertion order and its eviction is FIFO.
	cache *lru.Cache[string, digest.Digest]

	mu      sync.Mutex
	active  []string
	history []Turn
}

// New creates an empty Store.
func New(opts Options) *Store {
	if opts.MaxCache <= 0 {
		opts.MaxCache = DefaultMaxCache
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		id:         newSessionID(opts.Now()),
		maxCache:   opts.MaxCache,
		maxHistory: opts.MaxHistory,
		now:        opts.Now,
	}
	// NewWithEvict only fails for a non-positive size.
	s.cache, _ = lru.NewWithEvict[string, digest.Digest](opts.MaxCache, s.onEvicted)
	return s
}

// ID returns the session identifier (a ULID).
func (s *Store) ID() string { return s.id }

// MaxCache returns the digest cache capacity.
func (s *Store) MaxCache() int { return s.maxCache }

// MaxHistory returns the history capacity in exchanges.
func (s *Store) MaxHistory() int { return s.maxHistory }

func (s *Store) onEvicted(id string, d digest.Digest) {
	slog.Debug("digest evicted", "session", s.id, "id", id, "cached_at", d.CachedAt)
}

// CacheDigest stores d under id and stamps its CachedAt. When the cache is
// full the oldest-inserted entry is evicted, regardless of how recently it
// was read. Caching an id that is already present replaces the digest and
// moves it to the newest position.
func (s *Store) CacheDigest(id string, d digest.Digest) {
	d.CachedAt = s.now()
	if d.ID == "" {
		d.ID = id
	}
	s.cache.Add(id, d)
}

// CachedDigest looks up a digest without affecting eviction order.
func (s *Store) CachedDigest(id string) (digest.Digest, bool) {
	return s.cache.Peek(id)
}

// CachedIDs returns the cached ids, oldest first.
func (s *Store) CachedIDs() []string {
	return s.cache.Keys()
}

// CacheLen returns the number of cached digests.
func (s *Store) CacheLen() int {
	return s.cache.Len()
}

// SetActive replaces the active set with ids, dropping duplicates.
func (s *Store) SetActive(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = appendUnique(nil, ids)
}

// AddActive appends ids not already active, keeping first-seen order.
func (s *Store) AddActive(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = appendUnique(s.active, ids)
}

// ActiveIDs returns a copy of the active set.
func (s *Store) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.active))
	copy(out, s.active)
	return out
}

// ActiveDigests returns the cached digests of the active set in order.
// Ids that are no longer cached are skipped.
func (s *Store) ActiveDigests() []digest.Digest {
	ids := s.ActiveIDs()
	out := make([]digest.Digest, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.cache.Peek(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// RecordExchange appends a user turn and the agent's reply, then drops
// the oldest turns beyond 2*MaxHistory.
func (s *Store) RecordExchange(userText, agentText string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Turn{Role: RoleUser, Content: userText, Timestamp: now},
		Turn{Role: RoleAgent, Content: agentText, Timestamp: now},
	)
	if limit := 2 * s.maxHistory; len(s.history) > limit {
		trimmed := make([]Turn, limit)
		copy(trimmed, s.history[len(s.history)-limit:])
		s.history = trimmed
	}
}

// History returns a copy of the conversation turns, oldest first.
func (s *Store) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Clear empties the cache, the active set and the history.
func (s *Store) Clear() {
	s.cache.Purge()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.history = nil
}

func appendUnique(dst, ids []string) []string {
	seen := make(map[string]bool, len(dst)+len(ids))
	for _, id := range dst {
		seen[id] = true
	}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		dst = append(dst, id)
	}
	return dst
}

func newSessionID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}
