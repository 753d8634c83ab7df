package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database/pgtest"
)

type seeded struct {
	memberID uuid.UUID
	groupID  uuid.UUID
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO members (email, name) VALUES ('a@x.com', 'A') RETURNING id`).Scan(&s.memberID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO member_groups (name, owner_id) VALUES ('Trip', $1) RETURNING id`, s.memberID).Scan(&s.groupID))
	return s
}

func insertPhoto(t *testing.T, pool *pgxpool.Pool, memberID, locationID uuid.UUID) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO photos (member_id, location_id, file_name, file_extension, file_key, upload_status)
		VALUES ($1, $2, 'a', 'jpg', $3, true) RETURNING id`, memberID, locationID, uuid.NewString()).Scan(&id)
	require.NoError(t, err)
	return id
}

func photoDeleted(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var deleted bool
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT is_deleted FROM photos WHERE id = $1`, id).Scan(&deleted))
	return deleted
}

func TestRepositoryCoordinatesUnique(t *testing.T) {
	pool := pgtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	s := seed(t, pool)

	loc, err := repo.Create(ctx, s.groupID, "Seoul", 37.5665, 126.978)
	require.NoError(t, err)

	_, err = repo.Create(ctx, s.groupID, "Seoul again", 37.5665, 126.978)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	taken, err := repo.ExistsAt(ctx, s.groupID, 37.5665, 126.978, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.ExistsAt(ctx, s.groupID, 37.5665, 126.978, loc.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a location does not collide with itself")

	require.NoError(t, repo.SoftDelete(ctx, loc.ID))
	_, err = repo.Create(ctx, s.groupID, "Seoul", 37.5665, 126.978)
	require.NoError(t, err, "deleted coordinates are free again")
}

func TestRepositorySoftDeleteCascadesToPhotos(t *testing.T) {
	pool := pgtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	s := seed(t, pool)

	loc, err := repo.Create(ctx, s.groupID, "Busan", 35.1796, 129.0756)
	require.NoError(t, err)
	photo := insertPhoto(t, pool, s.memberID, loc.ID)

	require.NoError(t, repo.SoftDelete(ctx, loc.ID))
	assert.True(t, photoDeleted(t, pool, photo), "the photo row stays, flagged deleted")
	assert.ErrorIs(t, repo.SoftDelete(ctx, loc.ID), apperrors.ErrNotFound)
	_, err = repo.GetByID(ctx, loc.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRepositorySoftDeleteByGroups(t *testing.T) {
	pool := pgtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	s := seed(t, pool)

	loc, err := repo.Create(ctx, s.groupID, "Jeju", 33.4996, 126.5312)
	require.NoError(t, err)
	photo := insertPhoto(t, pool, s.memberID, loc.ID)

	require.NoError(t, repo.SoftDeleteByGroups(ctx, nil))
	list, err := repo.ListByGroups(ctx, []uuid.UUID{s.groupID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.SoftDeleteByGroups(ctx, []uuid.UUID{s.groupID}))
	list, err = repo.ListByGroups(ctx, []uuid.UUID{s.groupID})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, photoDeleted(t, pool, photo))
}
