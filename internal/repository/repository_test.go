package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-tracker/internal/model"
)

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("1062")))
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, "%road%", likePattern(" road "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	u := &model.Identity{Email: " Alice@Example.com ", Name: "Alice", PasswordHash: "h"}
	require.NoError(t, s.Create(ctx, u))
	assert.Equal(t, uint64(1), u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	err := s.Create(ctx, &model.Identity{Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := s.GetByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	ok, err := s.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, u.ID))
	ok, err = s.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, u.ID), ErrNotFound)
}

func TestMemoryProjectStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()

	a := &model.Project{OwnerID: 1, Title: "Road Map"}
	b := &model.Project{OwnerID: 1, Title: "Budget"}
	c := &model.Project{OwnerID: 2, Title: "roadwork"}
	for _, p := range []*model.Project{a, b, c} {
		require.NoError(t, s.Create(ctx, p))
	}

	list, err := s.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []uint64{a.ID, b.ID}, []uint64{list[0].ID, list[1].ID})

	found, err := s.SearchByOwner(ctx, 1, "ROAD")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	a.Title = "Roadmap v2"
	require.NoError(t, s.Update(ctx, a))
	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap v2", got.Title)

	ids, err := s.DeleteByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID}, ids)
	_, err = s.GetByID(ctx, c.ID)
	assert.NoError(t, err)
	assert.ErrorIs(t, s.Update(ctx, a), ErrNotFound)
}

func TestMemoryTaskStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	for i, title := range []string{"Write docs", "Review docs", "Ship"} {
		require.NoError(t, s.Create(ctx, &model.Task{ProjectID: 10, OwnerID: 1, Title: title, Completed: i == 0}))
	}
	require.NoError(t, s.Create(ctx, &model.Task{ProjectID: 10, OwnerID: 2, Title: "foreign", Completed: true}))

	total, completed, err := s.CountByProject(ctx, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, completed)

	total, completed, err = s.CountByProject(ctx, 99, 1)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, completed)

	found, err := s.SearchByProject(ctx, 10, 1, "docs")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	done, err := s.ListByStatus(ctx, 10, 1, true)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "Write docs", done[0].Title)

	n, err := s.DeleteByProject(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
