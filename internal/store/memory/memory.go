// Package memory provides process-local implementations of the store
// contracts. It is the default backend when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nightapi/nightapi/internal/catalog"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// Store implements store.Identity, store.Links, store.Ledger and
// store.Catalog in memory.
//
// Each map is guarded by its own lock, and every read-modify-write runs
// entirely under that lock.
type Store struct {
	usersMu    sync.RWMutex
	users      map[int64]*model.User
	byUsername map[string]int64
	byAPIKey   map[string]int64
	nextUserID int64

	linksMu sync.RWMutex
	links   map[string]*model.ShortURL

	ledgerMu sync.RWMutex
	ledger   map[int64][]model.UsageEntry
	anon     []model.UsageEntry

	jokes  []model.Joke
	quotes []model.Quote
}

var (
	_ store.Identity = (*Store)(nil)
	_ store.Links    = (*Store)(nil)
	_ store.Ledger   = (*Store)(nil)
	_ store.Catalog  = (*Store)(nil)
)

// New creates an empty store seeded with the built-in jokes and quotes.
func New() *Store {
	now := time.Now()
	return &Store{
		users:      make(map[int64]*model.User),
		byUsername: make(map[string]int64),
		byAPIKey:   make(map[string]int64),
		links:      make(map[string]*model.ShortURL),
		ledger:     make(map[int64][]model.UsageEntry),
		jokes:      catalog.SeedJokes(now),
		quotes:     catalog.SeedQuotes(now),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser inserts a user and assigns the next id.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return store.ErrUsernameTaken
	}
	if _, ok := s.byAPIKey[user.APIKey]; ok {
		return store.ErrAPIKeyTaken
	}

	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	stored := *user
	s.users[user.ID] = &stored
	s.byUsername[user.Username] = user.ID
	s.byAPIKey[user.APIKey] = user.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	return s.userLocked(id)
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.userLocked(id)
}

func (s *Store) GetUserByAPIKey(_ context.Context, apiKey string) (*model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.byAPIKey[apiKey]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.userLocked(id)
}

// UpdateRateLimit changes a user's daily allowance.
func (s *Store) UpdateRateLimit(_ context.Context, id int64, limit int) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.RateLimit = limit
	return nil
}

func (s *Store) userLocked(id int64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateShortURL stores a new link. The code must be unused.
func (s *Store) CreateShortURL(_ context.Context, link *model.ShortURL) error {
	s.linksMu.Lock()
	defer s.linksMu.Unlock()

	if _, ok := s.links[link.Code]; ok {
		return store.ErrCodeTaken
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	stored := *link
	s.links[link.Code] = &stored
	return nil
}

func (s *Store) GetShortURL(_ context.Context, code string) (*model.ShortURL, error) {
	s.linksMu.RLock()
	defer s.linksMu.RUnlock()

	l, ok := s.links[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// IncrementClicks adds one click under the links lock.
func (s *Store) IncrementClicks(_ context.Context, code string) (*model.ShortURL, error) {
	s.linksMu.Lock()
	defer s.linksMu.Unlock()

	l, ok := s.links[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	l.Clicks++
	cp := *l
	return &cp, nil
}

// Append records a usage entry.
func (s *Store) Append(_ context.Context, entry *model.UsageEntry) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	if entry.UserID == nil {
		s.anon = append(s.anon, *entry)
		return nil
	}
	uid := *entry.UserID
	s.ledger[uid] = append(s.ledger[uid], *entry)
	return nil
}

func (s *Store) CountSince(_ context.Context, userID int64, since time.Time) (int, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	n := 0
	for _, e := range s.ledger[userID] {
		if !e.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Breakdown(_ context.Context, userID int64, since time.Time, endpoints []string) (map[string]int, error) {
	filter := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		filter[ep] = true
	}

	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	out := make(map[string]int)
	for _, e := range s.ledger[userID] {
		if e.Timestamp.Before(since) {
			continue
		}
		if len(filter) > 0 && !filter[e.Endpoint] {
			continue
		}
		out[e.Endpoint]++
	}
	return out, nil
}

// Entries returns a copy of all ledger entries ordered by timestamp.
func (s *Store) Entries() []model.UsageEntry {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	out := append([]model.UsageEntry(nil), s.anon...)
	for _, entries := range s.ledger {
		out = append(out, entries...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ListJokes returns jokes whose category matches case-insensitively.
// An empty category returns every joke.
func (s *Store) ListJokes(_ context.Context, category string) ([]model.Joke, error) {
	if category == "" {
		return append([]model.Joke(nil), s.jokes...), nil
	}
	var out []model.Joke
	for _, j := range s.jokes {
		if strings.EqualFold(j.Category, category) {
			out = append(out, j)
		}
	}
	return out, nil
}

// ListQuotes returns quotes whose author contains the given text,
// case-insensitively. An empty author returns every quote.
func (s *Store) ListQuotes(_ context.Context, author string) ([]model.Quote, error) {
	if author == "" {
		return append([]model.Quote(nil), s.quotes...), nil
	}
	needle := strings.ToLower(author)
	var out []model.Quote
	for _, q := range s.quotes {
		if strings.Contains(strings.ToLower(q.Author), needle) {
			out = append(out, q)
		}
	}
	return out, nil
}
