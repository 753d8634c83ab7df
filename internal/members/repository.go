package members

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/database"
)

const memberColumns = `id, email, COALESCE(password_hash, ''), name, role, social, is_deleted, created_at, updated_at`

// Repository handles member persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a member repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Name, &m.Role, &m.Social, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "member")
	}
	return &m, nil
}

// Create inserts a new member. A live member with the same email yields Duplicate.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string, social bool) (*models.Member, error) {
	q := `INSERT INTO members (email, password_hash, name, role, social)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING ` + memberColumns
	return scanMember(database.Executor(ctx, r.db).QueryRow(ctx, q, email, passwordHash, name, string(models.MemberRoleUser), social))
}

// GetByID returns a live member by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 AND is_deleted = false`
	return scanMember(database.Executor(ctx, r.db).QueryRow(ctx, q, id))
}

// GetByEmail returns a live member by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE email = $1 AND is_deleted = false`
	return scanMember(database.Executor(ctx, r.db).QueryRow(ctx, q, email))
}

// GetLatestByEmail returns the newest member with email in any state, live rows first.
func (r *Repository) GetLatestByEmail(ctx context.Context, email string) (*models.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE email = $1
		ORDER BY is_deleted ASC, created_at DESC LIMIT 1`
	return scanMember(database.Executor(ctx, r.db).QueryRow(ctx, q, email))
}

// ExistsByEmail reports whether a live member uses email.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := database.Executor(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE email = $1 AND is_deleted = false)`, email).Scan(&exists)
	if err != nil {
		return false, database.MapError(err, "member")
	}
	return exists, nil
}

// UpdateName renames a live member.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Member, error) {
	q := `UPDATE members SET name = $2, updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING ` + memberColumns
	return scanMember(database.Executor(ctx, r.db).QueryRow(ctx, q, id, name))
}

// UpdatePassword replaces the password hash of a live member.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE members SET password_hash = $2, updated_at = now() WHERE id = $1 AND is_deleted = false`, id, passwordHash)
	if err != nil {
		return database.MapError(err, "member")
	}
	if tag.RowsAffected() == 0 {
		return database.MapError(pgx.ErrNoRows, "member")
	}
	return nil
}

// SoftDelete marks a live member deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE members SET is_deleted = true, updated_at = now() WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		return database.MapError(err, "member")
	}
	if tag.RowsAffected() == 0 {
		return database.MapError(pgx.ErrNoRows, "member")
	}
	return nil
}
