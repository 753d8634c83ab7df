package photos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/database"
)

const photoColumns = `id, member_id, location_id, file_name, file_extension, file_key, upload_status, is_deleted, created_at, updated_at`

// Repository handles photo persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a photo repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.MemberID, &p.LocationID, &p.FileName, &p.FileExtension, &p.FileKey,
		&p.UploadStatus, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "photo")
	}
	return &p, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Photo, error) {
	rows, err := database.Executor(ctx, r.db).Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "photo")
	}
	defer rows.Close()
	var list []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Create inserts a pending photo.
func (r *Repository) Create(ctx context.Context, memberID, locationID uuid.UUID, fileName, ext, key string) (*models.Photo, error) {
	q := `INSERT INTO photos (member_id, location_id, file_name, file_extension, file_key) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + photoColumns
	return scanPhoto(database.Executor(ctx, r.db).QueryRow(ctx, q, memberID, locationID, fileName, ext, key))
}

// GetByID returns a live photo in any upload state.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	q := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1 AND is_deleted = false`
	return scanPhoto(database.Executor(ctx, r.db).QueryRow(ctx, q, id))
}

// ListVisibleByMember returns the uploaded live photos of memberID.
func (r *Repository) ListVisibleByMember(ctx context.Context, memberID uuid.UUID) ([]models.Photo, error) {
	return r.list(ctx, `SELECT `+photoColumns+` FROM photos
		WHERE member_id = $1 AND upload_status AND is_deleted = false ORDER BY created_at DESC`, memberID)
}

// ListVisibleByLocation returns the uploaded live photos of locationID.
func (r *Repository) ListVisibleByLocation(ctx context.Context, locationID uuid.UUID) ([]models.Photo, error) {
	return r.list(ctx, `SELECT `+photoColumns+` FROM photos
		WHERE location_id = $1 AND upload_status AND is_deleted = false ORDER BY created_at DESC`, locationID)
}

// MarkUploaded sets upload_status.
func (r *Repository) MarkUploaded(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	q := `UPDATE photos SET upload_status = true, updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING ` + photoColumns
	return scanPhoto(database.Executor(ctx, r.db).QueryRow(ctx, q, id))
}

// UpdateLocation re-points a photo.
func (r *Repository) UpdateLocation(ctx context.Context, id, locationID uuid.UUID) (*models.Photo, error) {
	q := `UPDATE photos SET location_id = $2, updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING ` + photoColumns
	return scanPhoto(database.Executor(ctx, r.db).QueryRow(ctx, q, id, locationID))
}

// SoftDelete marks a photo deleted. Deleting an already deleted photo is a no-op.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE photos SET is_deleted = true, updated_at = now() WHERE id = $1 AND is_deleted = false`, id); err != nil {
		return database.MapError(err, "photo")
	}
	return nil
}

// SoftDeleteByMember marks every photo of memberID deleted.
func (r *Repository) SoftDeleteByMember(ctx context.Context, memberID uuid.UUID) error {
	if _, err := database.Executor(ctx, r.db).Exec(ctx,
		`UPDATE photos SET is_deleted = true, updated_at = now() WHERE member_id = $1 AND is_deleted = false`, memberID); err != nil {
		return database.MapError(err, "photo")
	}
	return nil
}
