package groups

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/internal/realtime"
	"github.com/codezero/photomap/pkg/apperrors"
)

// memStore is an in-memory groupStore.
type memStore struct {
	groups   map[uuid.UUID]*models.MemberGroup
	mappings []*models.GroupMapping
	members  map[uuid.UUID]*models.Member
}

func newMemStore() *memStore {
	return &memStore{groups: map[uuid.UUID]*models.MemberGroup{}, members: map[uuid.UUID]*models.Member{}}
}

func (s *memStore) addMember(name, email string) *models.Member {
	m := &models.Member{ID: uuid.New(), Name: name, Email: email}
	s.members[m.ID] = m
	return m
}

func (s *memStore) GetMember(_ context.Context, id uuid.UUID) (*models.Member, error) {
	if m, ok := s.members[id]; ok && m.Active() {
		return m, nil
	}
	return nil, apperrors.NotFound("member not found")
}

func (s *memStore) Create(_ context.Context, name string, ownerID uuid.UUID, personal bool) (*models.MemberGroup, error) {
	g := &models.MemberGroup{ID: uuid.New(), Name: name, OwnerID: ownerID, IsPersonal: personal}
	s.groups[g.ID] = g
	return g, nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.MemberGroup, error) {
	if g, ok := s.groups[id]; ok && g.Active() {
		return g, nil
	}
	return nil, apperrors.NotFound("group not found")
}

func (s *memStore) live(groupID, memberID uuid.UUID) *models.GroupMapping {
	for _, m := range s.mappings {
		if m.GroupID == groupID && m.MemberID == memberID && m.Active() {
			return m
		}
	}
	return nil
}

func (s *memStore) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberGroup, error) {
	ids, _ := s.GroupIDsForMember(ctx, memberID)
	var out []models.MemberGroup
	for _, id := range ids {
		out = append(out, *s.groups[id])
	}
	return out, nil
}

func (s *memStore) GroupIDsForMember(_ context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range s.mappings {
		if m.MemberID == memberID && m.Active() && s.groups[m.GroupID].Active() {
			ids = append(ids, m.GroupID)
		}
	}
	return ids, nil
}

func (s *memStore) ListMembers(_ context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, m := range s.mappings {
		if m.GroupID == groupID && m.Active() {
			mb := s.members[m.MemberID]
			out = append(out, models.GroupMember{ID: mb.ID, Email: mb.Email, Name: mb.Name, Role: m.Role})
		}
	}
	return out, nil
}

func (s *memStore) AddMapping(_ context.Context, groupID, memberID uuid.UUID, role models.GroupRole) (*models.GroupMapping, error) {
	if s.live(groupID, memberID) != nil {
		return nil, apperrors.Duplicate("group member already exists")
	}
	m := &models.GroupMapping{ID: uuid.New(), GroupID: groupID, MemberID: memberID, Role: role}
	s.mappings = append(s.mappings, m)
	return m, nil
}

func (s *memStore) RoleOf(_ context.Context, groupID, memberID uuid.UUID) (models.GroupRole, error) {
	if m := s.live(groupID, memberID); m != nil {
		return m.Role, nil
	}
	return "", apperrors.NotFound("group member not found")
}

func (s *memStore) HasMemberEmail(_ context.Context, groupID uuid.UUID, email string) (bool, error) {
	for _, m := range s.mappings {
		if m.GroupID == groupID && m.Active() && s.members[m.MemberID].Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.MemberGroup, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Name = name
	return g, nil
}

func (s *memStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	g.IsDeleted = true
	for _, m := range s.mappings {
		if m.GroupID == id {
			m.IsDeleted = true
		}
	}
	return nil
}

func (s *memStore) SoftDeleteMapping(_ context.Context, groupID, memberID uuid.UUID) error {
	m := s.live(groupID, memberID)
	if m == nil {
		return apperrors.NotFound("group member not found")
	}
	m.IsDeleted = true
	return nil
}

func (s *memStore) SoftDeleteForMember(_ context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	owned := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, g := range s.groups {
		if g.OwnerID == memberID && g.Active() {
			g.IsDeleted = true
			owned[g.ID] = true
			ids = append(ids, g.ID)
		}
	}
	for _, m := range s.mappings {
		if m.MemberID == memberID || owned[m.GroupID] {
			m.IsDeleted = true
		}
	}
	return ids, nil
}

type memberLookupFunc func(ctx context.Context, id uuid.UUID) (*models.Member, error)

func (f memberLookupFunc) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	return f(ctx, id)
}

// recorder captures published events and disconnects.
type recorder struct {
	mu           sync.Mutex
	events       []realtime.Event
	disconnected []uuid.UUID
	revoked      []revocation
}

type revocation struct {
	groupID  uuid.UUID
	memberID uuid.UUID
}

func (r *recorder) Publish(_ context.Context, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) DisconnectGroup(groupID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected = append(r.disconnected, groupID)
}

func (r *recorder) DisconnectMember(groupID, memberID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, revocation{groupID: groupID, memberID: memberID})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// cleanedGroups records groups whose content was soft-deleted.
type cleanedGroups struct {
	ids []uuid.UUID
	err error
}

func (c *cleanedGroups) SoftDeleteByGroups(_ context.Context, groupIDs []uuid.UUID) error {
	if c.err != nil {
		return c.err
	}
	c.ids = append(c.ids, groupIDs...)
	return nil
}
