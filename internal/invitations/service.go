// Package invitations issues and redeems single-use group invitation tokens.
package invitations

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/internal/authz"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
	"github.com/codezero/photomap/pkg/mailer"
)

type invitationStore interface {
	Create(ctx context.Context, inv *models.GroupInvitation) error
	GetByToken(ctx context.Context, token string) (*models.GroupInvitation, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

// GroupDirectory is the group side of the invitation flow.
type GroupDirectory interface {
	Group(ctx context.Context, groupID uuid.UUID) (*models.MemberGroup, error)
	Authorize(ctx context.Context, groupID, memberID uuid.UUID, action authz.Action) (*models.MemberGroup, error)
	HasMemberEmail(ctx context.Context, groupID uuid.UUID, email string) (bool, error)
	Join(ctx context.Context, groupID, memberID uuid.UUID) (models.GroupResponse, error)
	NotifyJoined(ctx context.Context, groupID, memberID uuid.UUID)
}

// MemberLookup resolves live members.
type MemberLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// Config holds the invitation collaborators.
type Config struct {
	Repo        invitationStore
	Groups      GroupDirectory
	Members     MemberLookup
	Mailer      mailer.Sender
	Tx          database.Transactor
	FrontendURL string
	Logger      *zap.Logger
}

// Service implements the invitation lifecycle.
type Service struct {
	repo        invitationStore
	groups      GroupDirectory
	members     MemberLookup
	mailer      mailer.Sender
	tx          database.Transactor
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates an invitation service.
func NewService(cfg Config) *Service {
	if cfg.Tx == nil {
		cfg.Tx = database.NoopTransactor{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		repo:        cfg.Repo,
		groups:      cfg.Groups,
		members:     cfg.Members,
		mailer:      cfg.Mailer,
		tx:          cfg.Tx,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// AcceptURL is the frontend link carried by the invitation mail.
func (s *Service) AcceptURL(token, groupName string) string {
	return s.frontendURL + "/invitation?groupToken=" + url.QueryEscape(token) + "&groupName=" + url.QueryEscape(groupName)
}

// Create invites email into groupID and mails the acceptance link. It returns the token.
// The row is only kept when the mail was accepted for delivery.
func (s *Service) Create(ctx context.Context, email string, groupID, callerID uuid.UUID) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	group, err := s.groups.Authorize(ctx, groupID, callerID, authz.ActionInvite)
	if err != nil {
		return "", err
	}
	if group.IsPersonal {
		return "", apperrors.Forbidden("a personal group cannot take invitations")
	}
	inviter, err := s.members.GetByID(ctx, callerID)
	if err != nil {
		return "", err
	}
	joined, err := s.groups.HasMemberEmail(ctx, groupID, email)
	if err != nil {
		return "", err
	}
	if joined {
		return "", apperrors.Duplicate("this email is already a member of the group")
	}

	inv := models.NewGroupInvitation(email, groupID, s.now())
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}
		err := s.mailer.SendInvitation(ctx, mailer.Invitation{
			To:          email,
			InviterName: inviter.Name,
			GroupName:   group.Name,
			AcceptURL:   s.AcceptURL(inv.Token, group.Name),
			ExpiresAt:   inv.ExpiresAt,
		})
		if err != nil {
			return apperrors.Wrap(err, "send invitation email")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("invitation sent", zap.String("group_id", groupID.String()), zap.String("invitation_id", inv.ID.String()))
	return inv.Token, nil
}

// Preview describes the invitation behind token without redeeming it.
func (s *Service) Preview(ctx context.Context, token string) (*models.InvitationPreview, error) {
	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.Group(ctx, inv.GroupID)
	if err != nil {
		return nil, err
	}
	return &models.InvitationPreview{
		GroupID:   group.ID,
		GroupName: group.Name,
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
		Used:      inv.Used,
		Expired:   inv.IsExpired(s.now()),
	}, nil
}

// Accept redeems token for memberID and returns the joined group.
func (s *Service) Accept(ctx context.Context, token string, memberID uuid.UUID) (models.GroupResponse, error) {
	var resp models.GroupResponse
	var groupID uuid.UUID
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByToken(ctx, token)
		if err != nil {
			return err
		}
		if err := inv.CheckRedeemable(s.now()); err != nil {
			return apperrors.IllegalState(err.Error())
		}
		member, err := s.members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(inv.Email, member.Email) {
			return apperrors.Forbidden("this invitation belongs to another account")
		}
		resp, err = s.groups.Join(ctx, inv.GroupID, memberID)
		if err != nil {
			return err
		}
		if err := s.repo.MarkUsed(ctx, inv.ID); err != nil {
			return err
		}
		groupID = inv.GroupID
		return nil
	})
	if err != nil {
		return models.GroupResponse{}, err
	}
	s.groups.NotifyJoined(ctx, groupID, memberID)
	return resp, nil
}
