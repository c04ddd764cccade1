package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/queue"
	"github.com/iliyamo/project-tracker/internal/repository"
)

func TestProjectCreate_EnrichesWithStats(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	ctx := context.Background()

	view, err := f.projects.Create(ctx, alice, ProjectInput{Title: " Launch ", Description: "v1"})
	require.NoError(t, err)
	assert.Equal(t, "Launch", view.Title)
	assert.Equal(t, alice.ID, view.OwnerID)
	assert.Equal(t, model.Stats{}, view.Stats)
	assert.Equal(t, []string{alice.Token}, f.stats.creds)
}

func TestProjectCreate_RequiresTitle(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	_, err := f.projects.Create(context.Background(), alice, ProjectInput{Title: "   "})
	assert.ErrorIs(t, err, apperr.ValidationFailed)
}

func TestProjectList_OnlyOwnWithStats(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	ctx := context.Background()

	p1, err := f.projects.Create(ctx, alice, ProjectInput{Title: "one"})
	require.NoError(t, err)
	p2, err := f.projects.Create(ctx, alice, ProjectInput{Title: "two"})
	require.NoError(t, err)
	_, err = f.projects.Create(ctx, bob, ProjectInput{Title: "bob's"})
	require.NoError(t, err)

	f.stats.stats[p2.ID] = model.ComputeStats(3, 1)

	list, err := f.projects.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p1.ID, list[0].ID)
	assert.Equal(t, model.Stats{}, list[0].Stats)
	assert.Equal(t, p2.ID, list[1].ID)
	assert.Equal(t, 33.33, list[1].Stats.ProgressPercentage)
}

func TestProjectSearch(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	ctx := context.Background()
	for _, title := range []string{"Website redesign", "Mobile app", "WEB api"} {
		_, err := f.projects.Create(ctx, alice, ProjectInput{Title: title})
		require.NoError(t, err)
	}

	found, err := f.projects.Search(ctx, alice, "web")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = f.projects.Search(ctx, alice, " ")
	assert.ErrorIs(t, err, apperr.ValidationFailed)
}

func TestProjectAccess_ForbiddenVersusNotFound(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	ctx := context.Background()

	p, err := f.projects.Create(ctx, alice, ProjectInput{Title: "private"})
	require.NoError(t, err)

	_, err = f.projects.Get(ctx, bob, p.ID)
	assert.ErrorIs(t, err, apperr.Forbidden)
	assert.ErrorIs(t, f.projects.CheckOwner(ctx, bob, p.ID), apperr.Forbidden)
	_, err = f.projects.Update(ctx, bob, p.ID, ProjectInput{Title: "stolen"})
	assert.ErrorIs(t, err, apperr.Forbidden)
	assert.ErrorIs(t, f.projects.Delete(ctx, bob, p.ID), apperr.Forbidden)

	_, err = f.projects.Get(ctx, bob, p.ID+100)
	assert.ErrorIs(t, err, apperr.NotFound)
	_, err = f.projects.Get(ctx, alice, p.ID+100)
	assert.ErrorIs(t, err, apperr.NotFound)

	got, err := f.projects.Get(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestProjectUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	ctx := context.Background()

	p, err := f.projects.Create(ctx, alice, ProjectInput{Title: "draft"})
	require.NoError(t, err)

	updated, err := f.projects.Update(ctx, alice, p.ID, ProjectInput{Title: "final", Description: "done"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "done", updated.Description)

	require.NoError(t, f.projects.Delete(ctx, alice, p.ID))
	_, err = f.projects.Get(ctx, alice, p.ID)
	assert.ErrorIs(t, err, apperr.NotFound)
	assert.Contains(t, f.events.keys(), queue.ProjectDeleted)
}

func TestProjectPurgeOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	ctx := context.Background()
	for _, title := range []string{"a", "b"} {
		_, err := f.projects.Create(ctx, alice, ProjectInput{Title: title})
		require.NoError(t, err)
	}

	n, err := f.projects.PurgeOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{queue.ProjectDeleted, queue.ProjectDeleted}, f.events.keys())

	list, err := f.projects.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Full flow across the three services with the guard's view of the caller:
// register, create, cross-user access, account deletion, token validation.
func TestEndToEnd_OwnershipAndAccountDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")

	p, err := f.projects.Create(ctx, a, ProjectInput{Title: "A's project"})
	require.NoError(t, err)

	_, err = f.projects.Get(ctx, b, p.ID)
	assert.ErrorIs(t, err, apperr.Forbidden)

	require.NoError(t, f.identity.DeleteAccount(ctx, a))
	assert.False(t, f.identity.Validate(ctx, a.Token).Valid)
	assert.True(t, f.identity.Validate(ctx, b.Token).Valid)
}

// gaugeStats records the highest number of concurrent fetches.
type gaugeStats struct {
	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
	calls    int
}

func (g *gaugeStats) FetchStats(context.Context, uint64, string) model.Stats {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	g.mu.Lock()
	g.calls++
	if n > g.peak {
		g.peak = n
	}
	g.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	return model.ComputeStats(1, 1)
}

func TestProjectList_BoundsConcurrentFetches(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	ctx := context.Background()

	gauge := &gaugeStats{}
	svc := NewProjectService(repository.NewMemoryProjectStore(), gauge, f.events, logger.Nop())
	const n = 5 * maxStatsFetches
	for i := 0; i < n; i++ {
		_, err := svc.Create(ctx, alice, ProjectInput{Title: fmt.Sprintf("project %d", i)})
		require.NoError(t, err)
	}
	gauge.mu.Lock()
	gauge.calls, gauge.peak = 0, 0
	gauge.mu.Unlock()

	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, n)
	for _, v := range list {
		assert.Equal(t, 100.0, v.Stats.ProgressPercentage)
	}

	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	assert.Equal(t, n, gauge.calls)
	assert.LessOrEqual(t, gauge.peak, int32(maxStatsFetches))
	assert.Greater(t, gauge.peak, int32(1))
}
