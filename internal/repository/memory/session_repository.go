package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"kidsgpt-be/pkg/chat/session"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultTab = "default"

// SessionRepository keeps one session manager per signed-in tab. Idle
// sessions expire and are torn down on eviction. A user holds at most
// maxTabs sessions; opening one more evicts the least recently used.
type SessionRepository struct {
	cache   *cache.Cache
	ttl     time.Duration
	maxTabs int

	mu   sync.Mutex
	tabs map[uuid.UUID]map[string]time.Time // last use per tab
}

func NewSessionRepository(ttl, cleanupInterval time.Duration, maxTabs int) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	if maxTabs <= 0 {
		maxTabs = 8
	}
	r := &SessionRepository{
		cache:   cache.New(ttl, cleanupInterval),
		ttl:     ttl,
		maxTabs: maxTabs,
		tabs:    map[uuid.UUID]map[string]time.Time{},
	}
	r.cache.OnEvicted(func(key string, v interface{}) {
		r.forget(key)
		if m, ok := v.(*session.Manager); ok {
			m.Teardown()
		}
	})
	return r
}

func SessionKey(userId uuid.UUID, tabId string) string {
	return fmt.Sprintf("%s:%s", userId, tabOrDefault(tabId))
}

func tabOrDefault(tabId string) string {
	if tabId == "" {
		return defaultTab
	}
	return tabId
}

// Get returns the tab's session and slides its expiry.
func (r *SessionRepository) Get(userId uuid.UUID, tabId string) (*session.Manager, bool) {
	key := SessionKey(userId, tabId)
	x, found := r.cache.Get(key)
	if !found {
		return nil, false
	}
	m := x.(*session.Manager)
	r.cache.Set(key, m, r.ttl)
	r.touch(userId, tabId)
	return m, true
}

// GetOrCreate returns the existing session or stores the one built by create.
// The bool reports whether create was used.
func (r *SessionRepository) GetOrCreate(userId uuid.UUID, tabId string, create func() *session.Manager) (*session.Manager, bool) {
	if m, ok := r.Get(userId, tabId); ok {
		return m, false
	}
	key := SessionKey(userId, tabId)
	m := create()
	if err := r.cache.Add(key, m, r.ttl); err != nil {
		// another request won the race
		if x, found := r.cache.Get(key); found {
			return x.(*session.Manager), false
		}
		r.cache.Set(key, m, r.ttl)
	}
	// cache.Delete runs the eviction hook, which takes r.mu
	if victim, ok := r.admit(userId, tabId); ok {
		r.cache.Delete(SessionKey(userId, victim))
	}
	return m, true
}

// Delete removes the tab's session; the eviction hook tears it down.
func (r *SessionRepository) Delete(userId uuid.UUID, tabId string) {
	r.cache.Delete(SessionKey(userId, tabId))
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// Tabs reports how many sessions userId holds.
func (r *SessionRepository) Tabs(userId uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs[userId])
}

func (r *SessionRepository) touch(userId uuid.UUID, tabId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tabs, ok := r.tabs[userId]; ok {
		tabs[tabOrDefault(tabId)] = time.Now()
	}
}

// admit records a new tab and picks the least recently used other tab to
// evict once the user is over the cap.
func (r *SessionRepository) admit(userId uuid.UUID, tabId string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab := tabOrDefault(tabId)
	tabs, ok := r.tabs[userId]
	if !ok {
		tabs = map[string]time.Time{}
		r.tabs[userId] = tabs
	}
	tabs[tab] = time.Now()
	if len(tabs) <= r.maxTabs {
		return "", false
	}

	var victim string
	var oldest time.Time
	for t, used := range tabs {
		if t == tab {
			continue
		}
		if victim == "" || used.Before(oldest) {
			victim, oldest = t, used
		}
	}
	delete(tabs, victim)
	return victim, true
}

func (r *SessionRepository) forget(key string) {
	user, tab, ok := strings.Cut(key, ":")
	if !ok {
		return
	}
	userId, err := uuid.Parse(user)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tabs, ok := r.tabs[userId]; ok {
		delete(tabs, tab)
		if len(tabs) == 0 {
			delete(r.tabs, userId)
		}
	}
}
