package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/nightapi/nightapi/internal/store"
)

// keyedMutex serializes work per user. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size reports how many keys are currently tracked.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// localReserver admits requests against a ledger that has no atomic
// reservation of its own. Counting and claiming happen under the user's
// lock, and claimed slots stay in flight until released.
type localReserver struct {
	ledger store.Ledger
	keys *keyedMutex

	mu       sync.Mutex
	inflight map[int64]int
}

func newLocalReserver(ledger store.Ledger) *localReserver {
	return &localReserver{
		ledger:   ledger,
		keys:     newKeyedMutex(),
		inflight: make(map[int64]int),
	}
}

func (l *localReserver) Reserve(ctx context.Context, userID int64, since time.Time, limit int) (store.Reservation, error) {
	unlock := l.keys.Lock(userID)
	defer unlock()

	logged, err := l.ledger.CountSince(ctx, userID, since)
	if err != nil {
		return store.Reservation{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	used := logged + l.inflight[userID]
	if used >= limit {
		return store.Reservation{Used: used}, nil
	}
	l.inflight[userID]++

	var once sync.Once
	return store.Reservation{
		Used:     used,
		Admitted: true,
		Release: func() {
			once.Do(func() { l.release(userID) })
		},
	}, nil
}

func (l *localReserver) release(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inflight[userID]--
	if l.inflight[userID] <= 0 {
		delete(l.inflight, userID)
	}
}

// pending reports the slots claimed but not yet released for a user.
func (l *localReserver) pending(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[userID]
}
