// Package groups manages member groups, their memberships and role checks.
package groups

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/internal/authz"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/internal/realtime"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
)

type groupStore interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID, personal bool) (*models.MemberGroup, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.MemberGroup, error)
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberGroup, error)
	GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	AddMapping(ctx context.Context, groupID, memberID uuid.UUID, role models.GroupRole) (*models.GroupMapping, error)
	RoleOf(ctx context.Context, groupID, memberID uuid.UUID) (models.GroupRole, error)
	HasMemberEmail(ctx context.Context, groupID uuid.UUID, email string) (bool, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.MemberGroup, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteMapping(ctx context.Context, groupID, memberID uuid.UUID) error
	SoftDeleteForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
}

// MemberLookup resolves live members.
type MemberLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// ContentCleaner soft-deletes the locations of groups together with their photos.
type ContentCleaner interface {
	SoftDeleteByGroups(ctx context.Context, groupIDs []uuid.UUID) error
}

type feedDisconnecter interface {
	DisconnectGroup(groupID uuid.UUID)
	DisconnectMember(groupID, memberID uuid.UUID)
}

var (
	errNotMember = apperrors.Forbidden("not a member of this group")
	errNotOwner  = apperrors.Forbidden("only the group owner can do this")
)

// Service implements group operations.
type Service struct {
	repo    groupStore
	members MemberLookup
	content ContentCleaner
	tx      database.Transactor
	events  realtime.Publisher
	logger  *zap.Logger
}

// NewService creates a group service. content and events may be nil.
func NewService(repo groupStore, members MemberLookup, content ContentCleaner, tx database.Transactor, events realtime.Publisher, logger *zap.Logger) *Service {
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	if events == nil {
		events = realtime.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, members: members, content: content, tx: tx, events: events, logger: logger}
}

// authorize loads the group and checks that callerID may perform action on it.
func (s *Service) authorize(ctx context.Context, groupID, callerID uuid.UUID, action authz.Action) (*models.MemberGroup, models.GroupRole, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	role, err := s.repo.RoleOf(ctx, groupID, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", errNotMember
		}
		return nil, "", err
	}
	if !authz.Allow(role, action) {
		if role == models.GroupRoleOwner {
			return nil, "", apperrors.Forbidden("the group owner cannot do this")
		}
		return nil, "", errNotOwner
	}
	return g, role, nil
}

func (s *Service) respond(ctx context.Context, g *models.MemberGroup) (models.GroupResponse, error) {
	members, err := s.repo.ListMembers(ctx, g.ID)
	if err != nil {
		return models.GroupResponse{}, err
	}
	return models.NewGroupResponse(g, members), nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.InvalidArgument("group name is required")
	}
	return name, nil
}

// CreateGroup creates a group owned by ownerID.
func (s *Service) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string) (models.GroupResponse, error) {
	name, err := validName(name)
	if err != nil {
		return models.GroupResponse{}, err
	}
	var resp models.GroupResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		owner, err := s.members.GetByID(ctx, ownerID)
		if err != nil {
			return err
		}
		g, err := s.create(ctx, name, owner.ID, false)
		if err != nil {
			return err
		}
		resp, err = s.respond(ctx, g)
		return err
	})
	if err != nil {
		return models.GroupResponse{}, err
	}
	s.logger.Info("group created", zap.String("group_id", resp.ID.String()), zap.String("owner_id", ownerID.String()))
	return resp, nil
}

func (s *Service) create(ctx context.Context, name string, ownerID uuid.UUID, personal bool) (*models.MemberGroup, error) {
	g, err := s.repo.Create(ctx, name, ownerID, personal)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.AddMapping(ctx, g.ID, ownerID, models.GroupRoleOwner); err != nil {
		return nil, err
	}
	return g, nil
}

// CreatePersonalGroup creates the personal group of a new member.
func (s *Service) CreatePersonalGroup(ctx context.Context, owner *models.Member) (*models.MemberGroup, error) {
	return s.create(ctx, models.PersonalGroupName(owner.Name), owner.ID, true)
}

// ListForMember returns every live group memberID belongs to with its members.
func (s *Service) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.GroupResponse, error) {
	groups, err := s.repo.ListForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupResponse, 0, len(groups))
	for i := range groups {
		resp, err := s.respond(ctx, &groups[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// Get returns one group. The caller must belong to it.
func (s *Service) Get(ctx context.Context, groupID, callerID uuid.UUID) (models.GroupResponse, error) {
	g, _, err := s.authorize(ctx, groupID, callerID, authz.ActionViewGroup)
	if err != nil {
		return models.GroupResponse{}, err
	}
	return s.respond(ctx, g)
}

// Update renames a group. Owner only.
func (s *Service) Update(ctx context.Context, groupID, callerID uuid.UUID, name string) (models.GroupResponse, error) {
	name, err := validName(name)
	if err != nil {
		return models.GroupResponse{}, err
	}
	if _, _, err := s.authorize(ctx, groupID, callerID, authz.ActionUpdateGroup); err != nil {
		return models.GroupResponse{}, err
	}
	g, err := s.repo.UpdateName(ctx, groupID, name)
	if err != nil {
		return models.GroupResponse{}, err
	}
	resp, err := s.respond(ctx, g)
	if err != nil {
		return models.GroupResponse{}, err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventGroupUpdated, groupID, callerID, payload{"name": g.Name}))
	return resp, nil
}

// Delete soft-deletes a non-personal group with its mappings, locations and photos. Owner only.
func (s *Service) Delete(ctx context.Context, groupID, callerID uuid.UUID) error {
	g, _, err := s.authorize(ctx, groupID, callerID, authz.ActionDeleteGroup)
	if err != nil {
		return err
	}
	if g.IsPersonal {
		return apperrors.Forbidden("a personal group cannot be deleted")
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SoftDelete(ctx, groupID); err != nil {
			return err
		}
		if s.content == nil {
			return nil
		}
		return s.content.SoftDeleteByGroups(ctx, []uuid.UUID{groupID})
	}); err != nil {
		return err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventGroupDeleted, groupID, callerID, nil))
	if d, ok := s.events.(feedDisconnecter); ok {
		d.DisconnectGroup(groupID)
	}
	s.logger.Info("group deleted", zap.String("group_id", groupID.String()))
	return nil
}

// RemoveMember drops targetID from the group. Owner only; the owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID, targetID, callerID uuid.UUID) error {
	g, _, err := s.authorize(ctx, groupID, callerID, authz.ActionRemoveMember)
	if err != nil {
		return err
	}
	if targetID == g.OwnerID {
		return apperrors.Forbidden("the group owner cannot be removed")
	}
	if err := s.repo.SoftDeleteMapping(ctx, groupID, targetID); err != nil {
		return err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventMemberRemoved, groupID, callerID, payload{"memberId": targetID}))
	s.disconnectMember(groupID, targetID)
	return nil
}

// Leave drops memberID from the group. The owner cannot leave.
func (s *Service) Leave(ctx context.Context, groupID, memberID uuid.UUID) error {
	if _, _, err := s.authorize(ctx, groupID, memberID, authz.ActionLeaveGroup); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteMapping(ctx, groupID, memberID); err != nil {
		return err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventMemberLeft, groupID, memberID, payload{"memberId": memberID}))
	s.disconnectMember(groupID, memberID)
	return nil
}

func (s *Service) disconnectMember(groupID, memberID uuid.UUID) {
	if d, ok := s.events.(feedDisconnecter); ok {
		d.DisconnectMember(groupID, memberID)
	}
}

// Authorize fails with NotFound for a missing group and Forbidden when memberID may not perform action.
func (s *Service) Authorize(ctx context.Context, groupID, memberID uuid.UUID, action authz.Action) (*models.MemberGroup, error) {
	g, _, err := s.authorize(ctx, groupID, memberID, action)
	return g, err
}

// RequireMember fails with NotFound for a missing group and Forbidden without a live mapping.
func (s *Service) RequireMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	_, _, err := s.authorize(ctx, groupID, memberID, authz.ActionViewGroup)
	return err
}

// Group returns a live group without any membership check.
func (s *Service) Group(ctx context.Context, groupID uuid.UUID) (*models.MemberGroup, error) {
	return s.repo.GetByID(ctx, groupID)
}

// GroupIDsForMember returns the groups memberID belongs to.
func (s *Service) GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.GroupIDsForMember(ctx, memberID)
}

// HasMemberEmail reports whether a live member with email belongs to groupID.
func (s *Service) HasMemberEmail(ctx context.Context, groupID uuid.UUID, email string) (bool, error) {
	return s.repo.HasMemberEmail(ctx, groupID, email)
}

// Join adds memberID to groupID as MEMBER. An existing mapping is an IllegalState.
func (s *Service) Join(ctx context.Context, groupID, memberID uuid.UUID) (models.GroupResponse, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return models.GroupResponse{}, err
	}
	if _, err := s.repo.RoleOf(ctx, groupID, memberID); err == nil {
		return models.GroupResponse{}, apperrors.IllegalState("already a member of this group")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return models.GroupResponse{}, err
	}
	if _, err := s.repo.AddMapping(ctx, groupID, memberID, models.GroupRoleMember); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return models.GroupResponse{}, apperrors.IllegalState("already a member of this group")
		}
		return models.GroupResponse{}, err
	}
	return s.respond(ctx, g)
}

// NotifyJoined announces a new member to the group feed.
func (s *Service) NotifyJoined(ctx context.Context, groupID, memberID uuid.UUID) {
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventMemberJoined, groupID, memberID, payload{"memberId": memberID}))
}

// DeleteAllForMember soft-deletes owned groups and every mapping of memberID.
func (s *Service) DeleteAllForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.SoftDeleteForMember(ctx, memberID)
}

// NotifyMemberDeleted announces a deleted account to the feeds of its former groups and
// closes its connections. Owned groups were deleted with the account.
func (s *Service) NotifyMemberDeleted(ctx context.Context, memberID uuid.UUID, joined, owned []uuid.UUID) {
	isOwned := make(map[uuid.UUID]bool, len(owned))
	for _, id := range owned {
		isOwned[id] = true
		s.events.Publish(ctx, realtime.NewEvent(realtime.EventGroupDeleted, id, memberID, nil))
		if d, ok := s.events.(feedDisconnecter); ok {
			d.DisconnectGroup(id)
		}
	}
	for _, id := range joined {
		if isOwned[id] {
			continue
		}
		s.events.Publish(ctx, realtime.NewEvent(realtime.EventMemberLeft, id, memberID, payload{"memberId": memberID}))
		s.disconnectMember(id, memberID)
	}
}

type payload = map[string]interface{}
