package members

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codezero/photomap/internal/auth"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/oauth"
	"github.com/codezero/photomap/pkg/utils"
)

func newMember(email, password string) *models.Member {
	m := &models.Member{ID: uuid.New(), Email: email, Name: "A", Role: models.MemberRoleUser}
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			panic(err)
		}
		m.PasswordHash = hash
	}
	return m
}

func issueAny() *mockSessions {
	return &mockSessions{issueFn: func(_ context.Context, id uuid.UUID, _ string) (*auth.TokenPair, error) {
		return pairFor(id), nil
	}}
}

func TestRegisterCreatesPersonalGroup(t *testing.T) {
	var created *models.Member
	var groupOwner *models.Member
	store := &mockStore{
		existsByEmailFn: func(_ context.Context, email string) (bool, error) {
			assert.Equal(t, "a@x.com", email)
			return false, nil
		},
		createFn: func(_ context.Context, email, hash, name string, social bool) (*models.Member, error) {
			assert.False(t, social)
			assert.True(t, utils.CheckPassword("password1", hash))
			created = &models.Member{ID: uuid.New(), Email: email, Name: name, PasswordHash: hash}
			return created, nil
		},
	}
	groups := &mockGroups{createPersonalFn: func(_ context.Context, owner *models.Member) (*models.MemberGroup, error) {
		groupOwner = owner
		return &models.MemberGroup{ID: uuid.New(), OwnerID: owner.ID, Name: models.PersonalGroupName(owner.Name), IsPersonal: true}, nil
	}}
	svc := NewService(Deps{Repo: store, Groups: groups})

	m, err := svc.Register(context.Background(), " A@x.com ", "password1", "A")
	require.NoError(t, err)
	assert.Equal(t, created, m)
	assert.Equal(t, created, groupOwner)
}

func TestRegisterRejectsBlankName(t *testing.T) {
	svc := NewService(Deps{Repo: &mockStore{}, Groups: &mockGroups{}})

	_, err := svc.Register(context.Background(), "a@x.com", "password1", " \t ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestRegisterTrimsName(t *testing.T) {
	store := &mockStore{
		existsByEmailFn: func(context.Context, string) (bool, error) { return false, nil },
		createFn: func(_ context.Context, email, _, name string, _ bool) (*models.Member, error) {
			assert.Equal(t, "Ann", name)
			return &models.Member{ID: uuid.New(), Email: email, Name: name}, nil
		},
	}
	groups := &mockGroups{createPersonalFn: func(_ context.Context, owner *models.Member) (*models.MemberGroup, error) {
		return &models.MemberGroup{ID: uuid.New(), OwnerID: owner.ID, IsPersonal: true}, nil
	}}
	svc := NewService(Deps{Repo: store, Groups: groups})

	m, err := svc.Register(context.Background(), "a@x.com", "password1", "  Ann ")
	require.NoError(t, err)
	assert.Equal(t, "Ann", m.Name)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := &mockStore{existsByEmailFn: func(context.Context, string) (bool, error) { return true, nil }}
	svc := NewService(Deps{Repo: store, Groups: &mockGroups{}})

	_, err := svc.Register(context.Background(), "a@x.com", "password1", "A")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestRegisterGroupFailureAborts(t *testing.T) {
	store := &mockStore{
		existsByEmailFn: func(context.Context, string) (bool, error) { return false, nil },
		createFn: func(_ context.Context, email, _, name string, _ bool) (*models.Member, error) {
			return &models.Member{ID: uuid.New(), Email: email, Name: name}, nil
		},
	}
	groups := &mockGroups{createPersonalFn: func(context.Context, *models.Member) (*models.MemberGroup, error) {
		return nil, apperrors.Wrap(errors.New("db down"), "create group")
	}}
	svc := NewService(Deps{Repo: store, Groups: groups})

	_, err := svc.Register(context.Background(), "a@x.com", "password1", "A")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestLogin(t *testing.T) {
	member := newMember("a@x.com", "password1")
	social := newMember("k@x.com", "")
	social.Social = true

	store := &mockStore{getByEmailFn: func(_ context.Context, email string) (*models.Member, error) {
		switch email {
		case member.Email:
			return member, nil
		case social.Email:
			return social, nil
		}
		return nil, apperrors.NotFound("member not found")
	}}
	svc := NewService(Deps{Repo: store, Sessions: issueAny()})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, pairFor(member.ID), pair)

	_, err = svc.Login(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(ctx, "k@x.com", "whatever1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Login(ctx, "nobody@x.com", "password1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestKakaoLogin(t *testing.T) {
	profile := &oauth.Profile{KakaoID: 42, Email: "K@x.com", Nickname: "Kay"}
	kakao := &mockKakao{loginFn: func(_ context.Context, code string) (*oauth.Profile, error) {
		if code != "good" {
			return nil, errors.New("invalid_grant")
		}
		return profile, nil
	}}

	t.Run("existing member logs in", func(t *testing.T) {
		existing := newMember("k@x.com", "")
		store := &mockStore{getLatestByEmailFn: func(_ context.Context, email string) (*models.Member, error) {
			assert.Equal(t, "k@x.com", email)
			return existing, nil
		}}
		svc := NewService(Deps{Repo: store, Kakao: kakao, Sessions: issueAny()})
		pair, err := svc.KakaoLogin(context.Background(), "good")
		require.NoError(t, err)
		assert.Equal(t, pairFor(existing.ID), pair)
	})

	t.Run("deleted member is forbidden", func(t *testing.T) {
		deleted := newMember("k@x.com", "")
		deleted.IsDeleted = true
		store := &mockStore{getLatestByEmailFn: func(context.Context, string) (*models.Member, error) { return deleted, nil }}
		svc := NewService(Deps{Repo: store, Kakao: kakao})
		_, err := svc.KakaoLogin(context.Background(), "good")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("first login creates social member", func(t *testing.T) {
		var personal bool
		store := &mockStore{
			getLatestByEmailFn: func(context.Context, string) (*models.Member, error) {
				return nil, apperrors.NotFound("member not found")
			},
			existsByEmailFn: func(context.Context, string) (bool, error) { return false, nil },
			createFn: func(_ context.Context, email, hash, name string, social bool) (*models.Member, error) {
				assert.Empty(t, hash)
				assert.True(t, social)
				assert.Equal(t, "Kay", name)
				return &models.Member{ID: uuid.New(), Email: email, Name: name, Social: true}, nil
			},
		}
		groups := &mockGroups{createPersonalFn: func(_ context.Context, owner *models.Member) (*models.MemberGroup, error) {
			personal = true
			return &models.MemberGroup{ID: uuid.New(), OwnerID: owner.ID, IsPersonal: true}, nil
		}}
		svc := NewService(Deps{Repo: store, Groups: groups, Kakao: kakao, Sessions: issueAny()})
		_, err := svc.KakaoLogin(context.Background(), "good")
		require.NoError(t, err)
		assert.True(t, personal)
	})

	t.Run("provider failure is internal", func(t *testing.T) {
		svc := NewService(Deps{Repo: &mockStore{}, Kakao: kakao})
		_, err := svc.KakaoLogin(context.Background(), "bad")
		assert.ErrorIs(t, err, apperrors.ErrInternal)
	})

	t.Run("missing code", func(t *testing.T) {
		svc := NewService(Deps{Repo: &mockStore{}, Kakao: kakao})
		_, err := svc.KakaoLogin(context.Background(), "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestUpdatePassword(t *testing.T) {
	member := newMember("a@x.com", "password1")
	var stored string
	store := &mockStore{
		getByIDFn: func(context.Context, uuid.UUID) (*models.Member, error) { return member, nil },
		updatePasswordFn: func(_ context.Context, _ uuid.UUID, hash string) error {
			stored = hash
			return nil
		},
	}
	svc := NewService(Deps{Repo: store})
	ctx := context.Background()

	err := svc.UpdatePassword(ctx, member.ID, "nope-nope", "password2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Empty(t, stored)

	require.NoError(t, svc.UpdatePassword(ctx, member.ID, "password1", "password2"))
	assert.True(t, utils.CheckPassword("password2", stored))

	member.Social = true
	err = svc.UpdatePassword(ctx, member.ID, "password1", "password3")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateNameRejectsBlank(t *testing.T) {
	svc := NewService(Deps{Repo: &mockStore{}})
	_, err := svc.UpdateName(context.Background(), uuid.New(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestDeleteCascades(t *testing.T) {
	memberID := uuid.New()
	owned := []uuid.UUID{uuid.New(), uuid.New()}
	var calls []string

	store := &mockStore{softDeleteFn: func(_ context.Context, id uuid.UUID) error {
		assert.Equal(t, memberID, id)
		calls = append(calls, "member")
		return nil
	}}
	joined := append([]uuid.UUID{uuid.New()}, owned...)
	groups := &mockGroups{
		groupIDsFn: func(context.Context, uuid.UUID) ([]uuid.UUID, error) {
			calls = append(calls, "memberships")
			return joined, nil
		},
		deleteAllForMemberFn: func(context.Context, uuid.UUID) ([]uuid.UUID, error) {
			calls = append(calls, "groups")
			return owned, nil
		},
		notifyDeletedFn: func(_ context.Context, id uuid.UUID, j, o []uuid.UUID) {
			assert.Equal(t, memberID, id)
			assert.Equal(t, joined, j)
			assert.Equal(t, owned, o)
			calls = append(calls, "feeds")
		},
	}
	locations := &mockLocations{softDeleteByGroupsFn: func(_ context.Context, ids []uuid.UUID) error {
		assert.Equal(t, owned, ids)
		calls = append(calls, "locations")
		return nil
	}}
	photos := &mockPhotos{softDeleteByMemberFn: func(context.Context, uuid.UUID) error {
		calls = append(calls, "photos")
		return nil
	}}
	sessions := &mockSessions{revokeAllFn: func(context.Context, uuid.UUID) error {
		calls = append(calls, "sessions")
		return nil
	}}
	svc := NewService(Deps{Repo: store, Groups: groups, Locations: locations, Photos: photos, Sessions: sessions})

	require.NoError(t, svc.Delete(context.Background(), memberID))
	assert.Equal(t, []string{"member", "memberships", "groups", "locations", "photos", "feeds", "sessions"}, calls)
}

func TestDeleteStopsOnFailure(t *testing.T) {
	store := &mockStore{softDeleteFn: func(context.Context, uuid.UUID) error { return nil }}
	groups := &mockGroups{
		groupIDsFn: func(context.Context, uuid.UUID) ([]uuid.UUID, error) { return nil, nil },
		deleteAllForMemberFn: func(context.Context, uuid.UUID) ([]uuid.UUID, error) {
			return nil, apperrors.Wrap(errors.New("boom"), "delete groups")
		},
	}
	svc := NewService(Deps{Repo: store, Groups: groups, Locations: &mockLocations{}, Photos: &mockPhotos{}, Sessions: &mockSessions{}})

	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
