package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/chat/completion"
	"kidsgpt-be/pkg/chat/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noCompleter struct{}

func (noCompleter) Reply(context.Context, completion.Request) completion.Result {
	return completion.Result{}
}

func (noCompleter) Score(context.Context, string, string, string) (int, error) { return 0, nil }

func newManagerBuilder() func() *session.Manager {
	svc := service.NewConversationService(memory.NewRepositoryFactory(memory.MustNewStore()))
	return func() *session.Manager { return session.NewManager(svc, noCompleter{}) }
}

func TestSessionRepository_PerTab(t *testing.T) {
	repo := memory.NewSessionRepository(time.Minute, time.Minute, 8)
	user := uuid.New()
	build := newManagerBuilder()

	a, created := repo.GetOrCreate(user, "tab-a", build)
	assert.True(t, created)
	again, created := repo.GetOrCreate(user, "tab-a", build)
	assert.False(t, created)
	assert.Same(t, a, again)

	b, created := repo.GetOrCreate(user, "tab-b", build)
	assert.True(t, created)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, repo.Count())
	assert.Equal(t, 2, repo.Tabs(user))

	_, ok := repo.Get(uuid.New(), "tab-a")
	assert.False(t, ok)
}

func TestSessionRepository_DeleteTearsDown(t *testing.T) {
	repo := memory.NewSessionRepository(time.Minute, time.Minute, 8)
	user := uuid.New()

	m, _ := repo.GetOrCreate(user, "", newManagerBuilder())
	require.NoError(t, m.Init(context.Background(), session.Identity{UserId: user}))
	require.Equal(t, session.StateReady, m.State())

	repo.Delete(user, "")

	_, ok := repo.Get(user, "")
	assert.False(t, ok)
	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.Zero(t, repo.Tabs(user))
}

func TestSessionRepository_EvictsLeastRecentlyUsedTab(t *testing.T) {
	repo := memory.NewSessionRepository(time.Minute, time.Minute, 3)
	user, other := uuid.New(), uuid.New()
	build := newManagerBuilder()

	managers := map[string]*session.Manager{}
	for i := 1; i <= 3; i++ {
		tab := fmt.Sprintf("tab-%d", i)
		m, _ := repo.GetOrCreate(user, tab, build)
		require.NoError(t, m.Init(context.Background(), session.Identity{UserId: user}))
		managers[tab] = m
		time.Sleep(2 * time.Millisecond)
	}
	_, _ = repo.GetOrCreate(other, "tab-1", build)

	// tab-1 is used again, so tab-2 is now the stalest
	_, ok := repo.Get(user, "tab-1")
	require.True(t, ok)
	time.Sleep(2 * time.Millisecond)

	_, created := repo.GetOrCreate(user, "tab-4", build)
	require.True(t, created)

	assert.Equal(t, 3, repo.Tabs(user))
	_, ok = repo.Get(user, "tab-2")
	assert.False(t, ok)
	assert.Equal(t, session.StateUnauthenticated, managers["tab-2"].State())
	for _, tab := range []string{"tab-1", "tab-3", "tab-4"} {
		_, ok := repo.Get(user, tab)
		assert.True(t, ok, tab)
	}
	_, ok = repo.Get(other, "tab-1")
	assert.True(t, ok, "other users keep their tabs")
}

func TestSessionKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a3e-0000-4000-8000-000000000001")
	assert.Equal(t, "6f1c2a3e-0000-4000-8000-000000000001:default", memory.SessionKey(id, ""))
	assert.Equal(t, "6f1c2a3e-0000-4000-8000-000000000001:t1", memory.SessionKey(id, "t1"))
}
