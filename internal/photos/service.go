// Package photos tracks photo objects kept in S3 and signs their URLs.
package photos

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/internal/realtime"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/storage"
)

type photoStore interface {
	Create(ctx context.Context, memberID, locationID uuid.UUID, fileName, ext, key string) (*models.Photo, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListVisibleByMember(ctx context.Context, memberID uuid.UUID) ([]models.Photo, error)
	ListVisibleByLocation(ctx context.Context, locationID uuid.UUID) ([]models.Photo, error)
	MarkUploaded(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	UpdateLocation(ctx context.Context, id, locationID uuid.UUID) (*models.Photo, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ObjectStorage signs URLs for and removes photo objects.
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
	DeleteObject(ctx context.Context, key string) error
}

// LocationLookup resolves live locations.
type LocationLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

// Membership checks that a member belongs to a group.
type Membership interface {
	RequireMember(ctx context.Context, groupID, memberID uuid.UUID) error
}

// Reconciler schedules a retry of a photo row soft-delete.
type Reconciler interface {
	EnqueuePhotoReconcile(ctx context.Context, photoID uuid.UUID, fileKey string) error
}

// Deps are the collaborators of Service.
type Deps struct {
	Repo       photoStore
	Storage    ObjectStorage
	Locations  LocationLookup
	Members    Membership
	Reconciler Reconciler
	Events     realtime.Publisher
	Logger     *zap.Logger
}

var errNotOwner = apperrors.Forbidden("only the uploader can change this photo")

// Service implements photo operations.
type Service struct {
	repo       photoStore
	storage    ObjectStorage
	locations  LocationLookup
	members    Membership
	reconciler Reconciler
	events     realtime.Publisher
	logger     *zap.Logger
}

// NewService creates a photo service.
func NewService(d Deps) *Service {
	if d.Events == nil {
		d.Events = realtime.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		repo:       d.Repo,
		storage:    d.Storage,
		locations:  d.Locations,
		members:    d.Members,
		reconciler: d.Reconciler,
		events:     d.Events,
		logger:     d.Logger,
	}
}

// locationFor loads locationID and checks that memberID belongs to its group.
func (s *Service) locationFor(ctx context.Context, memberID, locationID uuid.UUID) (*models.Location, error) {
	l, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, l.GroupID, memberID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) withDownloadURL(ctx context.Context, p *models.Photo) (models.PhotoResponse, error) {
	u, err := s.storage.PresignDownload(ctx, p.FileKey)
	if err != nil {
		return models.PhotoResponse{}, apperrors.Wrap(err, "sign download url")
	}
	return p.ToResponse(u), nil
}

func (s *Service) ownPhoto(ctx context.Context, memberID, photoID uuid.UUID) (*models.Photo, error) {
	p, err := s.repo.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if p.MemberID != memberID {
		return nil, errNotOwner
	}
	return p, nil
}

func (s *Service) publish(ctx context.Context, eventType string, locationID, actorID uuid.UUID, payload interface{}) {
	l, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return
	}
	s.events.Publish(ctx, realtime.NewEvent(eventType, l.GroupID, actorID, payload))
}

// Create registers a pending photo at locationID and returns it with a PUT URL.
func (s *Service) Create(ctx context.Context, memberID, locationID uuid.UUID, fileName, ext string) (models.PhotoResponse, error) {
	fileName = strings.TrimSpace(fileName)
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if fileName == "" || ext == "" {
		return models.PhotoResponse{}, apperrors.InvalidArgument("file name and extension are required")
	}
	if _, err := s.locationFor(ctx, memberID, locationID); err != nil {
		return models.PhotoResponse{}, err
	}
	key := storage.PhotoKey(fileName, ext)
	uploadURL, err := s.storage.PresignUpload(ctx, key, storage.ContentTypeForExtension(ext))
	if err != nil {
		return models.PhotoResponse{}, apperrors.Wrap(err, "sign upload url")
	}
	p, err := s.repo.Create(ctx, memberID, locationID, fileName, ext, key)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	return p.ToResponse(uploadURL), nil
}

// ConfirmUpload marks the photo uploaded. Only the uploader may confirm.
func (s *Service) ConfirmUpload(ctx context.Context, memberID, photoID uuid.UUID, uploadStatus bool) (models.PhotoResponse, error) {
	if !uploadStatus {
		return models.PhotoResponse{}, apperrors.InvalidArgument("uploadStatus must be true")
	}
	if _, err := s.ownPhoto(ctx, memberID, photoID); err != nil {
		return models.PhotoResponse{}, err
	}
	return s.markUploaded(ctx, memberID, photoID)
}

func (s *Service) markUploaded(ctx context.Context, memberID, photoID uuid.UUID) (models.PhotoResponse, error) {
	p, err := s.repo.MarkUploaded(ctx, photoID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	resp, err := s.withDownloadURL(ctx, p)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	s.publish(ctx, realtime.EventPhotoUploaded, p.LocationID, memberID, resp)
	return resp, nil
}

// UploadContent streams the photo through the server and marks it uploaded.
func (s *Service) UploadContent(ctx context.Context, memberID, photoID uuid.UUID, body io.Reader, size int64) (models.PhotoResponse, error) {
	if size <= 0 || size > storage.MaxPhotoFileSize {
		return models.PhotoResponse{}, apperrors.InvalidArgument("photo must be between 1 byte and 20MB")
	}
	p, err := s.ownPhoto(ctx, memberID, photoID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	if err := s.storage.Upload(ctx, p.FileKey, storage.ContentTypeForExtension(p.FileExtension), body, size); err != nil {
		return models.PhotoResponse{}, apperrors.Wrap(err, "upload photo")
	}
	return s.markUploaded(ctx, memberID, photoID)
}

// Get returns a visible photo of a group the caller belongs to.
func (s *Service) Get(ctx context.Context, memberID, photoID uuid.UUID) (models.PhotoResponse, error) {
	p, err := s.repo.GetByID(ctx, photoID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	if !p.Visible() {
		return models.PhotoResponse{}, apperrors.NotFound("photo not found")
	}
	if _, err := s.locationFor(ctx, memberID, p.LocationID); err != nil {
		return models.PhotoResponse{}, err
	}
	return s.withDownloadURL(ctx, p)
}

func (s *Service) responses(ctx context.Context, list []models.Photo) ([]models.PhotoResponse, error) {
	out := make([]models.PhotoResponse, 0, len(list))
	for i := range list {
		resp, err := s.withDownloadURL(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// ListMine returns the visible photos the caller uploaded.
func (s *Service) ListMine(ctx context.Context, memberID uuid.UUID) ([]models.PhotoResponse, error) {
	list, err := s.repo.ListVisibleByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.responses(ctx, list)
}

// ListByLocation returns the visible photos at locationID.
func (s *Service) ListByLocation(ctx context.Context, memberID, locationID uuid.UUID) ([]models.PhotoResponse, error) {
	if _, err := s.locationFor(ctx, memberID, locationID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListVisibleByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return s.responses(ctx, list)
}

// UpdateLocation moves an uploaded photo to locationID in a group the caller belongs to.
func (s *Service) UpdateLocation(ctx context.Context, memberID, photoID, locationID uuid.UUID) (models.PhotoResponse, error) {
	p, err := s.ownPhoto(ctx, memberID, photoID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	if !p.Visible() {
		return models.PhotoResponse{}, apperrors.NotFound("photo not found")
	}
	target, err := s.locationFor(ctx, memberID, locationID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	moved, err := s.repo.UpdateLocation(ctx, photoID, target.ID)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	resp, err := s.withDownloadURL(ctx, moved)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	s.events.Publish(ctx, realtime.NewEvent(realtime.EventPhotoMoved, target.GroupID, memberID, resp))
	return resp, nil
}

// Delete removes the object from storage, then soft-deletes the row.
// A storage failure leaves the row untouched. A row failure after the object is gone
// queues a reconcile job and still reports an internal error.
func (s *Service) Delete(ctx context.Context, memberID, photoID uuid.UUID) error {
	p, err := s.ownPhoto(ctx, memberID, photoID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, p.FileKey); err != nil {
		return apperrors.Wrap(err, "delete photo object")
	}
	if err := s.repo.SoftDelete(ctx, p.ID); err != nil {
		s.logger.Error("photo row delete failed after object removal",
			zap.String("photo_id", p.ID.String()), zap.String("file_key", p.FileKey), zap.Error(err))
		if s.reconciler != nil {
			if qErr := s.reconciler.EnqueuePhotoReconcile(ctx, p.ID, p.FileKey); qErr != nil {
				s.logger.Error("enqueue photo reconcile failed", zap.String("photo_id", p.ID.String()), zap.Error(qErr))
			}
		}
		return apperrors.Wrap(err, "delete photo")
	}
	s.publish(ctx, realtime.EventPhotoDeleted, p.LocationID, memberID, map[string]interface{}{"photoId": p.ID})
	return nil
}
