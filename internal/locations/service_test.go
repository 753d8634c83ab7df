package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/apperrors"
)

type memLocations struct {
	rows []*models.Location
}

func (m *memLocations) Create(_ context.Context, groupID uuid.UUID, name string, lat, lon float64) (*models.Location, error) {
	l := &models.Location{ID: uuid.New(), GroupID: groupID, Name: name, Latitude: lat, Longitude: lon}
	m.rows = append(m.rows, l)
	cp := *l
	return &cp, nil
}

func (m *memLocations) GetByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	for _, l := range m.rows {
		if l.ID == id && l.Active() {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("location not found")
}

func (m *memLocations) ExistsAt(_ context.Context, groupID uuid.UUID, lat, lon float64, exclude uuid.UUID) (bool, error) {
	for _, l := range m.rows {
		if l.GroupID == groupID && l.Latitude == lat && l.Longitude == lon && l.ID != exclude && l.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLocations) ListByGroups(_ context.Context, groupIDs []uuid.UUID) ([]models.Location, error) {
	var out []models.Location
	for _, l := range m.rows {
		for _, g := range groupIDs {
			if l.GroupID == g && l.Active() {
				out = append(out, *l)
			}
		}
	}
	return out, nil
}

func (m *memLocations) Update(_ context.Context, in *models.Location) (*models.Location, error) {
	for _, l := range m.rows {
		if l.ID == in.ID {
			*l = *in
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("location not found")
}

func (m *memLocations) SoftDelete(_ context.Context, id uuid.UUID) error {
	for _, l := range m.rows {
		if l.ID == id && l.Active() {
			l.IsDeleted = true
			return nil
		}
	}
	return apperrors.NotFound("location not found")
}

type mockMembership struct {
	requireMemberFn func(ctx context.Context, groupID, memberID uuid.UUID) error
	groupIDsFn      func(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockMembership) RequireMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	if m.requireMemberFn != nil {
		return m.requireMemberFn(ctx, groupID, memberID)
	}
	panic("unexpected call to mockMembership.RequireMember")
}

func (m *mockMembership) GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	if m.groupIDsFn != nil {
		return m.groupIDsFn(ctx, memberID)
	}
	panic("unexpected call to mockMembership.GroupIDsForMember")
}

// membersOf allows memberID into groups and nothing else.
func membersOf(memberID uuid.UUID, groups ...uuid.UUID) *mockMembership {
	return &mockMembership{
		requireMemberFn: func(_ context.Context, groupID, caller uuid.UUID) error {
			if caller != memberID {
				return apperrors.Forbidden("not a member of this group")
			}
			for _, g := range groups {
				if g == groupID {
					return nil
				}
			}
			return apperrors.Forbidden("not a member of this group")
		},
		groupIDsFn: func(_ context.Context, caller uuid.UUID) ([]uuid.UUID, error) {
			if caller != memberID {
				return nil, nil
			}
			return groups, nil
		},
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	member, group := uuid.New(), uuid.New()
	svc := NewService(&memLocations{}, membersOf(member, group), nil, nil, nil)
	ctx := context.Background()

	l, err := svc.Create(ctx, member, group, "Cafe", 37.5, 127.0)
	require.NoError(t, err)
	assert.Equal(t, group, l.GroupID)

	_, err = svc.Create(ctx, member, group, "Same spot", 37.5, 127.0)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = svc.Create(ctx, uuid.New(), group, "Intruder", 1, 1)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Create(ctx, member, group, "Nowhere", 91, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestSameCoordinatesInOtherGroup(t *testing.T) {
	member, g1, g2 := uuid.New(), uuid.New(), uuid.New()
	svc := NewService(&memLocations{}, membersOf(member, g1, g2), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, member, g1, "Here", 10, 10)
	require.NoError(t, err)
	_, err = svc.Create(ctx, member, g2, "Here too", 10, 10)
	assert.NoError(t, err)
}

func TestListByMember(t *testing.T) {
	member, g1, g2 := uuid.New(), uuid.New(), uuid.New()
	svc := NewService(&memLocations{}, membersOf(member, g1, g2), nil, nil, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, member, g1, "One", 1, 1)
	require.NoError(t, err)
	_, err = svc.Create(ctx, member, g2, "Two", 2, 2)
	require.NoError(t, err)

	list, err := svc.ListByMember(ctx, member)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListByMember(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err = svc.ListByGroup(ctx, member, g2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Two", list[0].Name)
}

func TestUpdate(t *testing.T) {
	member, group := uuid.New(), uuid.New()
	store := &memLocations{}
	svc := NewService(store, membersOf(member, group), nil, nil, nil)
	ctx := context.Background()
	a, err := svc.Create(ctx, member, group, "A", 1, 1)
	require.NoError(t, err)
	_, err = svc.Create(ctx, member, group, "B", 2, 2)
	require.NoError(t, err)

	_, err = svc.Update(ctx, member, a.ID, UpdateInput{Latitude: ptr(2.0), Longitude: ptr(2.0)})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	got, err := svc.Update(ctx, member, a.ID, UpdateInput{Name: ptr("A+"), Latitude: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, "A+", got.Name)
	assert.Equal(t, 3.0, got.Latitude)
	assert.Equal(t, 1.0, got.Longitude)

	_, err = svc.Update(ctx, uuid.New(), a.ID, UpdateInput{Name: ptr("mine")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDelete(t *testing.T) {
	member, group := uuid.New(), uuid.New()
	svc := NewService(&memLocations{}, membersOf(member, group), nil, nil, nil)
	ctx := context.Background()
	l, err := svc.Create(ctx, member, group, "A", 1, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), l.ID), apperrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, member, l.ID))
	assert.ErrorIs(t, svc.Delete(ctx, member, l.ID), apperrors.ErrNotFound)

	_, err = svc.Create(ctx, member, group, "A again", 1, 1)
	assert.NoError(t, err, "deleted rows free their coordinates")
}
