// Package members implements accounts: registration, password and Kakao login,
// session refresh and account deletion.
package members

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/internal/auth"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
	"github.com/codezero/photomap/pkg/oauth"
	"github.com/codezero/photomap/pkg/utils"
)

type memberStore interface {
	Create(ctx context.Context, email, passwordHash, name string, social bool) (*models.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	GetLatestByEmail(ctx context.Context, email string) (*models.Member, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Member, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// GroupProvisioner owns the group side of a member's lifecycle.
type GroupProvisioner interface {
	CreatePersonalGroup(ctx context.Context, owner *models.Member) (*models.MemberGroup, error)
	// DeleteAllForMember soft-deletes owned groups with their mappings and the
	// member's own mappings. It returns the IDs of the owned groups.
	DeleteAllForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
	GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
	// NotifyMemberDeleted closes the member's group feeds after the account is gone.
	NotifyMemberDeleted(ctx context.Context, memberID uuid.UUID, joined, owned []uuid.UUID)
}

// LocationCleaner soft-deletes the locations (and their photos) of groups.
type LocationCleaner interface {
	SoftDeleteByGroups(ctx context.Context, groupIDs []uuid.UUID) error
}

// PhotoCleaner soft-deletes every photo a member uploaded.
type PhotoCleaner interface {
	SoftDeleteByMember(ctx context.Context, memberID uuid.UUID) error
}

// SessionManager issues and revokes token pairs.
type SessionManager interface {
	Issue(ctx context.Context, memberID uuid.UUID, email string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, memberID uuid.UUID, refreshToken string) error
	RevokeAll(ctx context.Context, memberID uuid.UUID) error
}

// KakaoClient resolves an authorization code into a Kakao profile.
type KakaoClient interface {
	AuthCodeURL(state string) string
	Login(ctx context.Context, code string) (*oauth.Profile, error)
}

// Deps are the collaborators of Service.
type Deps struct {
	Repo      memberStore
	Groups    GroupProvisioner
	Locations LocationCleaner
	Photos    PhotoCleaner
	Sessions  SessionManager
	Kakao     KakaoClient
	Tx        database.Transactor
	Logger    *zap.Logger
}

// Service implements member operations.
type Service struct {
	repo      memberStore
	groups    GroupProvisioner
	locations LocationCleaner
	photos    PhotoCleaner
	sessions  SessionManager
	kakao     KakaoClient
	tx        database.Transactor
	logger    *zap.Logger
}

// NewService creates a member service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Tx == nil {
		d.Tx = database.NoopTransactor{}
	}
	return &Service{
		repo:      d.Repo,
		groups:    d.Groups,
		locations: d.Locations,
		photos:    d.Photos,
		sessions:  d.Sessions,
		kakao:     d.Kakao,
		tx:        d.Tx,
		logger:    d.Logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a member with its personal group in one transaction.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.Member, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidArgument("name is required")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrEmptyPassword) {
			return nil, apperrors.InvalidArgument("password is required")
		}
		return nil, apperrors.Wrap(err, "hash password")
	}

	var member *models.Member
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.createWithGroup(ctx, email, hash, name, false)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("member registered", zap.String("member_id", member.ID.String()))
	return member, nil
}

func (s *Service) createWithGroup(ctx context.Context, email, hash, name string, social bool) (*models.Member, error) {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Duplicate("email is already in use")
	}
	m, err := s.repo.Create(ctx, email, hash, name, social)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.CreatePersonalGroup(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CheckEmail reports whether a live member already uses email.
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, normalizeEmail(email))
}

// Login verifies the password and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	m, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if m.Social || m.PasswordHash == "" {
		return nil, apperrors.Forbidden("this account signs in with Kakao")
	}
	if !utils.CheckPassword(password, m.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	return s.sessions.Issue(ctx, m.ID, m.Email)
}

// KakaoAuthURL returns the Kakao consent page that redirects back with a code and state.
func (s *Service) KakaoAuthURL(state string) string {
	return s.kakao.AuthCodeURL(state)
}

// KakaoLogin resolves code to a profile, creating the member on first login.
func (s *Service) KakaoLogin(ctx context.Context, code string) (*auth.TokenPair, error) {
	if code == "" {
		return nil, apperrors.InvalidArgument("authorization code is required")
	}
	profile, err := s.kakao.Login(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(err, "kakao login")
	}
	email := normalizeEmail(profile.Email)

	var member *models.Member
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetLatestByEmail(ctx, email)
		switch {
		case err == nil && existing.Active():
			member = existing
			return nil
		case err == nil:
			return apperrors.Forbidden("this account has been deleted")
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}
		m, err := s.createWithGroup(ctx, email, "", profile.Nickname, true)
		if err != nil {
			return err
		}
		s.logger.Info("member registered via kakao", zap.String("member_id", m.ID.String()))
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.sessions.Issue(ctx, member.ID, member.Email)
}

// Refresh rotates a refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.sessions.Refresh(ctx, refreshToken)
}

// Logout revokes refreshToken, or every session when it is empty.
func (s *Service) Logout(ctx context.Context, memberID uuid.UUID, refreshToken string) error {
	return s.sessions.Logout(ctx, memberID, refreshToken)
}

// Info returns the live member.
func (s *Service) Info(ctx context.Context, memberID uuid.UUID) (*models.Member, error) {
	return s.repo.GetByID(ctx, memberID)
}

// UpdateName renames the member.
func (s *Service) UpdateName(ctx context.Context, memberID uuid.UUID, name string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidArgument("name is required")
	}
	return s.repo.UpdateName(ctx, memberID, name)
}

// UpdatePassword replaces the password after checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, memberID uuid.UUID, current, next string) error {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if m.Social || m.PasswordHash == "" {
		return apperrors.Forbidden("this account signs in with Kakao")
	}
	if !utils.CheckPassword(current, m.PasswordHash) {
		return apperrors.InvalidArgument("current password does not match")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		if errors.Is(err, utils.ErrEmptyPassword) {
			return apperrors.InvalidArgument("new password is required")
		}
		return apperrors.Wrap(err, "hash password")
	}
	return s.repo.UpdatePassword(ctx, memberID, hash)
}

// Delete soft-deletes the member and everything it owns, then revokes its sessions.
func (s *Service) Delete(ctx context.Context, memberID uuid.UUID) error {
	var joined, owned []uuid.UUID
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SoftDelete(ctx, memberID); err != nil {
			return err
		}
		var err error
		if joined, err = s.groups.GroupIDsForMember(ctx, memberID); err != nil {
			return err
		}
		if owned, err = s.groups.DeleteAllForMember(ctx, memberID); err != nil {
			return err
		}
		if err := s.locations.SoftDeleteByGroups(ctx, owned); err != nil {
			return err
		}
		return s.photos.SoftDeleteByMember(ctx, memberID)
	})
	if err != nil {
		return err
	}
	s.groups.NotifyMemberDeleted(ctx, memberID, joined, owned)
	if err := s.sessions.RevokeAll(ctx, memberID); err != nil {
		s.logger.Warn("revoke sessions after delete failed", zap.String("member_id", memberID.String()), zap.Error(err))
	}
	s.logger.Info("member deleted", zap.String("member_id", memberID.String()))
	return nil
}
