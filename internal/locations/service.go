// Package locations manages the named map points of a group.
package locations

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/internal/realtime"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
)

type locationStore interface {
	Create(ctx context.Context, groupID uuid.UUID, name string, lat, lon float64) (*models.Location, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ExistsAt(ctx context.Context, groupID uuid.UUID, lat, lon float64, exclude uuid.UUID) (bool, error)
	ListByGroups(ctx context.Context, groupIDs []uuid.UUID) ([]models.Location, error)
	Update(ctx context.Context, l *models.Location) (*models.Location, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Membership answers group membership questions.
type Membership interface {
	RequireMember(ctx context.Context, groupID, memberID uuid.UUID) error
	GroupIDsForMember(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
}

// UpdateInput carries the optional fields of a location update.
type UpdateInput struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
}

var errTaken = apperrors.Duplicate("a location already exists at these coordinates")

// Service implements location operations.
type Service struct {
	repo    locationStore
	members Membership
	tx      database.Transactor
	events  realtime.Publisher
	logger  *zap.Logger
}

// NewService creates a location service. events may be nil.
func NewService(repo locationStore, members Membership, tx database.Transactor, events realtime.Publisher, logger *zap.Logger) *Service {
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	if events == nil {
		events = realtime.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, members: members, tx: tx, events: events, logger: logger}
}

// Create adds a location to groupID. The caller must belong to the group.
func (s *Service) Create(ctx context.Context, memberID, groupID uuid.UUID, name string, lat, lon float64) (*models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidArgument("location name is required")
	}
	if !models.ValidCoordinates(lat, lon) {
		return nil, apperrors.InvalidArgument("coordinates are out of range")
	}
	if err := s.members.RequireMember(ctx, groupID, memberID); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsAt(ctx, groupID, lat, lon, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errTaken
	}
	l, err := s.repo.Create(ctx, groupID, name, lat, lon)
	if err != nil {
		return nil, duplicateAsTaken(err)
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventLocationCreated, groupID, memberID, l.ToResponse()))
	return l, nil
}

func duplicateAsTaken(err error) error {
	if apperrors.Is(err, apperrors.ErrDuplicate) {
		return errTaken
	}
	return err
}

// ListByMember returns the locations of every group memberID belongs to.
func (s *Service) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Location, error) {
	ids, err := s.members.GroupIDsForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.NotFound("member does not belong to any group")
	}
	return s.repo.ListByGroups(ctx, ids)
}

// ListByGroup returns the locations of groupID. The caller must belong to the group.
func (s *Service) ListByGroup(ctx context.Context, memberID, groupID uuid.UUID) ([]models.Location, error) {
	if err := s.members.RequireMember(ctx, groupID, memberID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroups(ctx, []uuid.UUID{groupID})
}

// Get returns a live location the caller can see.
func (s *Service) Get(ctx context.Context, memberID, locationID uuid.UUID) (*models.Location, error) {
	l, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, l.GroupID, memberID); err != nil {
		return nil, err
	}
	return l, nil
}

// Update changes the given fields of a location. Moving onto taken coordinates is a Duplicate.
func (s *Service) Update(ctx context.Context, memberID, locationID uuid.UUID, in UpdateInput) (*models.Location, error) {
	l, err := s.Get(ctx, memberID, locationID)
	if err != nil {
		return nil, err
	}
	moved := false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidArgument("location name is required")
		}
		l.Name = name
	}
	if in.Latitude != nil && *in.Latitude != l.Latitude {
		l.Latitude, moved = *in.Latitude, true
	}
	if in.Longitude != nil && *in.Longitude != l.Longitude {
		l.Longitude, moved = *in.Longitude, true
	}
	if !models.ValidCoordinates(l.Latitude, l.Longitude) {
		return nil, apperrors.InvalidArgument("coordinates are out of range")
	}
	if moved {
		taken, err := s.repo.ExistsAt(ctx, l.GroupID, l.Latitude, l.Longitude, l.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errTaken
		}
	}
	updated, err := s.repo.Update(ctx, l)
	if err != nil {
		return nil, duplicateAsTaken(err)
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventLocationUpdated, updated.GroupID, memberID, updated.ToResponse()))
	return updated, nil
}

// Delete soft-deletes a location with its photos.
func (s *Service) Delete(ctx context.Context, memberID, locationID uuid.UUID) error {
	l, err := s.Get(ctx, memberID, locationID)
	if err != nil {
		return err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, l.ID)
	}); err != nil {
		return err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventLocationDeleted, l.GroupID, memberID, map[string]interface{}{"locationId": l.ID}))
	s.logger.Info("location deleted", zap.String("location_id", l.ID.String()))
	return nil
}
