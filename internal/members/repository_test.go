package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database/pgtest"
)

func TestRepositoryEmailUniqueAmongLiveMembers(t *testing.T) {
	pool := pgtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	first, err := repo.Create(ctx, "a@x.com", "hash", "A", false)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "a@x.com", "hash", "A2", false)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	require.NoError(t, repo.SoftDelete(ctx, first.ID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, first.ID), apperrors.ErrNotFound)
	exists, err := repo.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	second, err := repo.Create(ctx, "a@x.com", "", "A3", true)
	require.NoError(t, err, "a deleted member frees the email")
	assert.Empty(t, second.PasswordHash)

	latest, err := repo.GetLatestByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM members WHERE email = 'a@x.com'`).Scan(&rows))
	assert.Equal(t, 2, rows, "members are soft-deleted, never removed")
}

func TestRepositoryUpdatesSkipDeletedMembers(t *testing.T) {
	pool := pgtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	m, err := repo.Create(ctx, "b@x.com", "hash", "B", false)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, m.ID))

	_, err = repo.UpdateName(ctx, m.ID, "C")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, m.ID, "other"), apperrors.ErrNotFound)
	_, err = repo.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
