package members

import (
	"context"

	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/auth"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/oauth"
)

type mockStore struct {
	createFn           func(ctx context.Context, email, passwordHash, name string, social bool) (*models.Member, error)
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*models.Member, error)
	getByEmailFn       func(ctx context.Context, email string) (*models.Member, error)
	getLatestByEmailFn func(ctx context.Context, email string) (*models.Member, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	updateNameFn       func(ctx context.Context, id uuid.UUID, name string) (*models.Member, error)
	updatePasswordFn   func(ctx context.Context, id uuid.UUID, passwordHash string) error
	softDeleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockStore) Create(ctx context.Context, email, passwordHash, name string, social bool) (*models.Member, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, passwordHash, name, social)
	}
	panic("unexpected call to mockStore.Create")
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	panic("unexpected call to mockStore.GetByID")
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	panic("unexpected call to mockStore.GetByEmail")
}

func (m *mockStore) GetLatestByEmail(ctx context.Context, email string) (*models.Member, error) {
	if m.getLatestByEmailFn != nil {
		return m.getLatestByEmailFn(ctx, email)
	}
	panic("unexpected call to mockStore.GetLatestByEmail")
}

func (m *mockStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	panic("unexpected call to mockStore.ExistsByEmail")
}

func (m *mockStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Member, error) {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, id, name)
	}
	panic("unexpected call to mockStore.UpdateName")
}

func (m *mockStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash)
	}
	panic("unexpected call to mockStore.UpdatePassword")
}

func (m *mockStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if m.softDeleteFn != nil {
		return m.softDeleteFn(ctx, id)
	}
	panic("unexpected call to mockStore.SoftDelete")
}

type mockGroups struct {
	createPersonalFn     func(ctx context.Context, owner *models.Member) (*models.MemberGroup, error)
	deleteAllForMemberFn func(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
	groupIDsFn           func(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
	notifyDeletedFn      func(ctx context.Context, memberID uuid.UUID, joined, owned []uuid.UUID)
}

func (m *mockGroups) CreatePersonalGroup(ctx context.Context, owner *models.Member) (*models.MemberGroup, error) {
	if m.createPersonalFn != nil {
		return m.createPersonalFn(ctx, owner)
	}
	panic("unexpected call to mockGroups.CreatePersonalGroup")
}

func (m *mockGroups) DeleteAllForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	if m.deleteAllForMemberFn != nil {
		return m.deleteAllForMemberFn(ctx, memberID)
	}
	panic("unexpected call to mockGroups.DeleteAllForMember")
}

func (m *mockGroups) GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	if m.groupIDsFn != nil {
		return m.groupIDsFn(ctx, memberID)
	}
	panic("unexpected call to mockGroups.GroupIDsForMember")
}

func (m *mockGroups) NotifyMemberDeleted(ctx context.Context, memberID uuid.UUID, joined, owned []uuid.UUID) {
	if m.notifyDeletedFn != nil {
		m.notifyDeletedFn(ctx, memberID, joined, owned)
		return
	}
	panic("unexpected call to mockGroups.NotifyMemberDeleted")
}

type mockLocations struct {
	softDeleteByGroupsFn func(ctx context.Context, groupIDs []uuid.UUID) error
}

func (m *mockLocations) SoftDeleteByGroups(ctx context.Context, groupIDs []uuid.UUID) error {
	if m.softDeleteByGroupsFn != nil {
		return m.softDeleteByGroupsFn(ctx, groupIDs)
	}
	panic("unexpected call to mockLocations.SoftDeleteByGroups")
}

type mockPhotos struct {
	softDeleteByMemberFn func(ctx context.Context, memberID uuid.UUID) error
}

func (m *mockPhotos) SoftDeleteByMember(ctx context.Context, memberID uuid.UUID) error {
	if m.softDeleteByMemberFn != nil {
		return m.softDeleteByMemberFn(ctx, memberID)
	}
	panic("unexpected call to mockPhotos.SoftDeleteByMember")
}

type mockSessions struct {
	issueFn     func(ctx context.Context, memberID uuid.UUID, email string) (*auth.TokenPair, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	logoutFn    func(ctx context.Context, memberID uuid.UUID, refreshToken string) error
	revokeAllFn func(ctx context.Context, memberID uuid.UUID) error
}

func (m *mockSessions) Issue(ctx context.Context, memberID uuid.UUID, email string) (*auth.TokenPair, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, memberID, email)
	}
	panic("unexpected call to mockSessions.Issue")
}

func (m *mockSessions) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	panic("unexpected call to mockSessions.Refresh")
}

func (m *mockSessions) Logout(ctx context.Context, memberID uuid.UUID, refreshToken string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, memberID, refreshToken)
	}
	panic("unexpected call to mockSessions.Logout")
}

func (m *mockSessions) RevokeAll(ctx context.Context, memberID uuid.UUID) error {
	if m.revokeAllFn != nil {
		return m.revokeAllFn(ctx, memberID)
	}
	panic("unexpected call to mockSessions.RevokeAll")
}

type mockKakao struct {
	authCodeURLFn func(state string) string
	loginFn       func(ctx context.Context, code string) (*oauth.Profile, error)
}

func (m *mockKakao) AuthCodeURL(state string) string {
	if m.authCodeURLFn != nil {
		return m.authCodeURLFn(state)
	}
	panic("unexpected call to mockKakao.AuthCodeURL")
}

func (m *mockKakao) Login(ctx context.Context, code string) (*oauth.Profile, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, code)
	}
	panic("unexpected call to mockKakao.Login")
}

func pairFor(memberID uuid.UUID) *auth.TokenPair {
	return &auth.TokenPair{AccessToken: "access-" + memberID.String(), RefreshToken: "refresh-" + memberID.String()}
}
