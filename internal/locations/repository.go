package locations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/database"
)

const locationColumns = `id, group_id, name, latitude, longitude, is_deleted, created_at, updated_at`

// Repository handles location persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a location repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	if err := row.Scan(&l.ID, &l.GroupID, &l.Name, &l.Latitude, &l.Longitude, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, database.MapError(err, "location")
	}
	return &l, nil
}

func collect(rows pgx.Rows, err error) ([]models.Location, error) {
	if err != nil {
		return nil, database.MapError(err, "location")
	}
	defer rows.Close()
	var list []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// Create inserts a location. Live coordinates already taken in the group yield Duplicate.
func (r *Repository) Create(ctx context.Context, groupID uuid.UUID, name string, lat, lon float64) (*models.Location, error) {
	q := `INSERT INTO locations (group_id, name, latitude, longitude) VALUES ($1, $2, $3, $4)
		RETURNING ` + locationColumns
	return scanLocation(database.Executor(ctx, r.db).QueryRow(ctx, q, groupID, name, lat, lon))
}

// GetByID returns a live location.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	q := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1 AND is_deleted = false`
	return scanLocation(database.Executor(ctx, r.db).QueryRow(ctx, q, id))
}

// ExistsAt reports whether another live location of groupID sits at lat/lon.
func (r *Repository) ExistsAt(ctx context.Context, groupID uuid.UUID, lat, lon float64, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := database.Executor(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations
			WHERE group_id = $1 AND latitude = $2 AND longitude = $3 AND id <> $4 AND is_deleted = false)`,
		groupID, lat, lon, exclude,
	).Scan(&exists)
	if err != nil {
		return false, database.MapError(err, "location")
	}
	return exists, nil
}

// ListByGroups returns the live locations of every group in groupIDs.
func (r *Repository) ListByGroups(ctx context.Context, groupIDs []uuid.UUID) ([]models.Location, error) {
	q := `SELECT ` + locationColumns + ` FROM locations
		WHERE group_id = ANY($1) AND is_deleted = false ORDER BY created_at`
	return collect(database.Executor(ctx, r.db).Query(ctx, q, groupIDs))
}

// Update stores the name and coordinates of l.
func (r *Repository) Update(ctx context.Context, l *models.Location) (*models.Location, error) {
	q := `UPDATE locations SET name = $2, latitude = $3, longitude = $4, updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING ` + locationColumns
	return scanLocation(database.Executor(ctx, r.db).QueryRow(ctx, q, l.ID, l.Name, l.Latitude, l.Longitude))
}

// SoftDelete marks a location and its photos deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	db := database.Executor(ctx, r.db)
	tag, err := db.Exec(ctx,
		`UPDATE locations SET is_deleted = true, updated_at = now() WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		return database.MapError(err, "location")
	}
	if tag.RowsAffected() == 0 {
		return database.MapError(pgx.ErrNoRows, "location")
	}
	if _, err := db.Exec(ctx,
		`UPDATE photos SET is_deleted = true, updated_at = now() WHERE location_id = $1 AND is_deleted = false`, id); err != nil {
		return database.MapError(err, "photo")
	}
	return nil
}

// SoftDeleteByGroups marks the locations of groupIDs and their photos deleted.
func (r *Repository) SoftDeleteByGroups(ctx context.Context, groupIDs []uuid.UUID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	db := database.Executor(ctx, r.db)
	if _, err := db.Exec(ctx,
		`UPDATE photos SET is_deleted = true, updated_at = now()
		WHERE is_deleted = false AND location_id IN (SELECT id FROM locations WHERE group_id = ANY($1))`, groupIDs); err != nil {
		return database.MapError(err, "photo")
	}
	if _, err := db.Exec(ctx,
		`UPDATE locations SET is_deleted = true, updated_at = now()
		WHERE group_id = ANY($1) AND is_deleted = false`, groupIDs); err != nil {
		return database.MapError(err, "location")
	}
	return nil
}
