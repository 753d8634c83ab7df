package groups

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/database"
)

const groupColumns = `g.id, g.name, g.owner_id, g.is_personal, g.is_deleted, g.created_at, g.updated_at`

// Repository handles group and mapping persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a group repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanGroup(row pgx.Row) (*models.MemberGroup, error) {
	var g models.MemberGroup
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.IsPersonal, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, database.MapError(err, "group")
	}
	return &g, nil
}

// Create inserts a group.
func (r *Repository) Create(ctx context.Context, name string, ownerID uuid.UUID, personal bool) (*models.MemberGroup, error) {
	q := `INSERT INTO member_groups AS g (name, owner_id, is_personal) VALUES ($1, $2, $3)
		RETURNING ` + groupColumns
	return scanGroup(database.Executor(ctx, r.db).QueryRow(ctx, q, name, ownerID, personal))
}

// GetByID returns a live group.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MemberGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM member_groups g WHERE g.id = $1 AND g.is_deleted = false`
	return scanGroup(database.Executor(ctx, r.db).QueryRow(ctx, q, id))
}

// ListForMember returns the live groups memberID has a live mapping in.
func (r *Repository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM member_groups g
		JOIN member_group_mappings m ON m.group_id = g.id AND m.is_deleted = false
		WHERE m.member_id = $1 AND g.is_deleted = false
		ORDER BY g.created_at`
	rows, err := database.Executor(ctx, r.db).Query(ctx, q, memberID)
	if err != nil {
		return nil, database.MapError(err, "group")
	}
	defer rows.Close()
	var list []models.MemberGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

// GroupIDsForMember returns the IDs of the live groups memberID belongs to.
func (r *Repository) GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	q := `SELECT g.id FROM member_groups g
		JOIN member_group_mappings m ON m.group_id = g.id AND m.is_deleted = false
		WHERE m.member_id = $1 AND g.is_deleted = false`
	rows, err := database.Executor(ctx, r.db).Query(ctx, q, memberID)
	if err != nil {
		return nil, database.MapError(err, "group")
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, database.MapError(err, "group")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListMembers returns the live members of groupID, owner first.
func (r *Repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	q := `SELECT mb.id, mb.email, mb.name, m.role
		FROM member_group_mappings m
		JOIN members mb ON mb.id = m.member_id AND mb.is_deleted = false
		WHERE m.group_id = $1 AND m.is_deleted = false
		ORDER BY (m.role = 'OWNER') DESC, m.created_at`
	rows, err := database.Executor(ctx, r.db).Query(ctx, q, groupID)
	if err != nil {
		return nil, database.MapError(err, "group member")
	}
	defer rows.Close()
	var list []models.GroupMember
	for rows.Next() {
		var gm models.GroupMember
		if err := rows.Scan(&gm.ID, &gm.Email, &gm.Name, &gm.Role); err != nil {
			return nil, database.MapError(err, "group member")
		}
		list = append(list, gm)
	}
	return list, rows.Err()
}

// AddMapping links memberID to groupID. An existing live mapping yields Duplicate.
func (r *Repository) AddMapping(ctx context.Context, groupID, memberID uuid.UUID, role models.GroupRole) (*models.GroupMapping, error) {
	var m models.GroupMapping
	err := database.Executor(ctx, r.db).QueryRow(ctx,
		`INSERT INTO member_group_mappings (group_id, member_id, role) VALUES ($1, $2, $3)
		RETURNING id, group_id, member_id, role, is_deleted, created_at, updated_at`,
		groupID, memberID, string(role),
	).Scan(&m.ID, &m.GroupID, &m.MemberID, &m.Role, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "group member")
	}
	return &m, nil
}

// RoleOf returns the role of memberID in groupID, or NotFound without a live mapping.
func (r *Repository) RoleOf(ctx context.Context, groupID, memberID uuid.UUID) (models.GroupRole, error) {
	var role models.GroupRole
	err := database.Executor(ctx, r.db).QueryRow(ctx,
		`SELECT role FROM member_group_mappings WHERE group_id = $1 AND member_id = $2 AND is_deleted = false`,
		groupID, memberID,
	).Scan(&role)
	if err != nil {
		return "", database.MapError(err, "group member")
	}
	return role, nil
}

// HasMemberEmail reports whether a live member with email has a live mapping in groupID.
func (r *Repository) HasMemberEmail(ctx context.Context, groupID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := database.Executor(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM member_group_mappings m
			JOIN members mb ON mb.id = m.member_id AND mb.is_deleted = false
			WHERE m.group_id = $1 AND mb.email = $2 AND m.is_deleted = false)`,
		groupID, email,
	).Scan(&exists)
	if err != nil {
		return false, database.MapError(err, "group member")
	}
	return exists, nil
}

// UpdateName renames a live group.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.MemberGroup, error) {
	q := `UPDATE member_groups AS g SET name = $2, updated_at = now()
		WHERE g.id = $1 AND g.is_deleted = false
		RETURNING ` + groupColumns
	return scanGroup(database.Executor(ctx, r.db).QueryRow(ctx, q, id, name))
}

// SoftDelete marks a group and all of its mappings deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	db := database.Executor(ctx, r.db)
	tag, err := db.Exec(ctx,
		`UPDATE member_groups SET is_deleted = true, updated_at = now() WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		return database.MapError(err, "group")
	}
	if tag.RowsAffected() == 0 {
		return database.MapError(pgx.ErrNoRows, "group")
	}
	if _, err := db.Exec(ctx,
		`UPDATE member_group_mappings SET is_deleted = true, updated_at = now() WHERE group_id = $1 AND is_deleted = false`, id); err != nil {
		return database.MapError(err, "group member")
	}
	return nil
}

// SoftDeleteMapping removes memberID from groupID.
func (r *Repository) SoftDeleteMapping(ctx context.Context, groupID, memberID uuid.UUID) error {
	tag, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE member_group_mappings SET is_deleted = true, updated_at = now()
		WHERE group_id = $1 AND member_id = $2 AND is_deleted = false`, groupID, memberID)
	if err != nil {
		return database.MapError(err, "group member")
	}
	if tag.RowsAffected() == 0 {
		return database.MapError(pgx.ErrNoRows, "group member")
	}
	return nil
}

// SoftDeleteForMember deletes the groups memberID owns with all their mappings,
// then memberID's mappings elsewhere. It returns the owned group IDs.
func (r *Repository) SoftDeleteForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	db := database.Executor(ctx, r.db)
	rows, err := db.Query(ctx,
		`UPDATE member_groups SET is_deleted = true, updated_at = now()
		WHERE owner_id = $1 AND is_deleted = false RETURNING id`, memberID)
	if err != nil {
		return nil, database.MapError(err, "group")
	}
	var owned []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, database.MapError(err, "group")
		}
		owned = append(owned, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, database.MapError(err, "group")
	}

	if _, err := db.Exec(ctx,
		`UPDATE member_group_mappings SET is_deleted = true, updated_at = now()
		WHERE is_deleted = false AND (member_id = $1 OR group_id = ANY($2))`, memberID, owned); err != nil {
		return nil, database.MapError(err, "group member")
	}
	return owned, nil
}
