package invitations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
)

const invitationColumns = `id, token, email, group_id, expires_at, used, is_deleted, created_at, updated_at`

// Repository handles invitation persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an invitation repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanInvitation(row pgx.Row) (*models.GroupInvitation, error) {
	var i models.GroupInvitation
	err := row.Scan(&i.ID, &i.Token, &i.Email, &i.GroupID, &i.ExpiresAt, &i.Used, &i.IsDeleted, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "invitation")
	}
	return &i, nil
}

// Create stores inv and fills its generated fields.
func (r *Repository) Create(ctx context.Context, inv *models.GroupInvitation) error {
	q := `INSERT INTO group_invitations (token, email, group_id, expires_at) VALUES ($1, $2, $3, $4)
		RETURNING ` + invitationColumns
	saved, err := scanInvitation(database.Executor(ctx, r.db).QueryRow(ctx, q, inv.Token, inv.Email, inv.GroupID, inv.ExpiresAt))
	if err != nil {
		return err
	}
	*inv = *saved
	return nil
}

// GetByToken returns a live invitation.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.GroupInvitation, error) {
	q := `SELECT ` + invitationColumns + ` FROM group_invitations WHERE token = $1 AND is_deleted = false`
	return scanInvitation(database.Executor(ctx, r.db).QueryRow(ctx, q, token))
}

// MarkUsed flips used once. A concurrent redemption that got there first yields IllegalState.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE group_invitations SET used = true, updated_at = now()
		WHERE id = $1 AND used = false AND is_deleted = false`, id)
	if err != nil {
		return database.MapError(err, "invitation")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.IllegalState(models.ErrInvitationUsed.Error())
	}
	return nil
}
