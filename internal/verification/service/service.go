package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"visitops_backend/internal/events"
	"visitops_backend/internal/storage"
	"visitops_backend/internal/temporal"
	"visitops_backend/internal/verification/repository"
	"visitops_backend/internal/verification/transport"
	"visitops_backend/internal/visits/domain"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"

	"github.com/google/uuid"
)

// PropertyLocator resolves a property's coordinates for the geofence check.
type PropertyLocator interface {
	Coordinates(ctx context.Context, propertyID uuid.UUID) (lat, lng *float64, err error)
}

// Classifier stamps the unique-visit status after completion.
type Classifier interface {
	ClassifyCompleted(ctx context.Context, visitID uuid.UUID) (bool, error)
}

// Photo is a submitted fallback payload.
type Photo struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service provides the visit verification protocol
type Service struct {
	repo       *repository.Repository
	visits     *visitsrepo.Repository
	properties PropertyLocator
	classifier Classifier
	photos     storage.PhotoStore
	bucket     string
	eventBus   events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new verification service. photos may be nil when object
// storage is not configured; photo fallback then skips evidence upload.
func New(repo *repository.Repository, visits *visitsrepo.Repository, properties PropertyLocator, classifier Classifier, photos storage.PhotoStore, bucket string, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		visits:     visits,
		properties: properties,
		classifier: classifier,
		photos:     photos,
		bucket:     bucket,
		eventBus:   eventBus,
		log:        log,
		now:        time.Now,
	}
}

// IssueOTP creates a fresh challenge for a scheduled visit, invalidating any
// prior one, and queues the code for delivery.
func (s *Service) IssueOTP(ctx context.Context, brokerID, visitID uuid.UUID) (*transport.IssueOTPResponse, error) {
	visit, err := s.ownedScheduledVisit(ctx, brokerID, visitID)
	if err != nil {
		return nil, err
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	ch := &repository.Challenge{
		ID:        uuid.New(),
		VisitID:   visit.ID,
		Code:      code,
		IssuedAt:  issuedAt,
		ExpiresAt: temporal.OTPExpiry(issuedAt),
	}
	if err := s.repo.IssueChallenge(ctx, ch); err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, events.OTPIssued{
		BaseEvent:     events.NewBaseEvent(),
		VisitID:       visit.ID,
		CustomerPhone: visit.CustomerPhone,
		CustomerName:  visit.CustomerName,
		Code:          code,
		ExpiresAt:     ch.ExpiresAt,
	})

	return &transport.IssueOTPResponse{
		VisitID:   visit.ID,
		DemoCode:  code,
		ExpiresAt: ch.ExpiresAt,
	}, nil
}

// CompleteVisit runs the verification protocol: challenge check, geofence,
// photo fallback, then the atomic completion write and unique classification.
func (s *Service) CompleteVisit(ctx context.Context, brokerID, visitID uuid.UUID, req transport.CompleteVisitRequest, photo *Photo) (*transport.CompleteVisitResponse, error) {
	visit, err := s.ownedScheduledVisit(ctx, brokerID, visitID)
	if err != nil {
		return nil, err
	}

	ch, err := s.repo.LatestChallenge(ctx, visit.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := EvaluateChallenge(ch, req.OTP, now); err != nil {
		if apperr.IsCode(err, apperr.CodeInvalidOtp) {
			attempts, recErr := s.repo.RecordFailedAttempt(ctx, ch.ID, temporal.MaxOTPAttempts)
			if recErr != nil {
				return nil, recErr
			}
			if attempts >= temporal.MaxOTPAttempts {
				return nil, apperr.AttemptsExhausted("OTP attempts exhausted, re-issue required")
			}
			return nil, apperr.InvalidOtp("OTP does not match").
				WithDetails(map[string]int{"remainingAttempts": temporal.MaxOTPAttempts - attempts})
		}
		return nil, err
	}

	propLat, propLng, err := s.properties.Coordinates(ctx, visit.PropertyID)
	if err != nil {
		return nil, err
	}

	hasPhoto := photo != nil && len(photo.Data) > 0
	result, err := DecideCompletionMode(propLat, propLng, req.Lat, req.Lng, hasPhoto)
	if err != nil {
		return nil, err
	}

	var photoKey *string
	var exifLat, exifLng *float64
	if result.Mode == ModePhotoFallback {
		exifLat, exifLng = ExtractEXIFGPS(photo.Data)
		if s.photos != nil {
			if err := s.photos.ValidatePhoto(photo.ContentType, int64(len(photo.Data))); err != nil {
				return nil, apperr.VerificationFailed(err.Error())
			}
			key, err := s.photos.UploadPhoto(ctx, s.bucket, visit.ID.String(), photo.FileName,
				photo.ContentType, bytes.NewReader(photo.Data), int64(len(photo.Data)))
			if err != nil {
				return nil, fmt.Errorf("failed to store photo evidence: %w", err)
			}
			photoKey = &key
		}
	}

	err = s.repo.CompleteVisit(ctx, repository.CompletionParams{
		ChallengeID:    ch.ID,
		VisitID:        visit.ID,
		VisitVersion:   visit.Version,
		SlotID:         visit.SlotID,
		CompletionMode: result.Mode,
		CompletedAt:    now,
		CheckinLat:     req.Lat,
		CheckinLng:     req.Lng,
		DistanceMeters: result.DistanceMeters,
		PhotoObjectKey: photoKey,
		ExifLat:        exifLat,
		ExifLng:        exifLng,
	})
	if err != nil {
		return nil, err
	}

	var unique *bool
	if verdict, err := s.classifier.ClassifyCompleted(ctx, visit.ID); err != nil {
		// Completion already committed; classification can be replayed.
		// The response leaves uniqueness unset rather than claiming repeat.
		s.log.Error("unique-visit classification failed", "visit_id", visit.ID, "error", err)
	} else {
		unique = &verdict
	}

	s.log.VisitTransition("visit", visit.ID.String(), string(domain.VisitScheduled), string(domain.VisitCompleted), "broker")
	var photoKeyValue string
	if photoKey != nil {
		photoKeyValue = *photoKey
	}
	s.eventBus.Publish(ctx, events.VisitCompleted{
		BaseEvent:      events.NewBaseEvent(),
		VisitID:        visit.ID,
		BrokerID:       visit.BrokerID,
		PropertyID:     visit.PropertyID,
		Method:         result.Mode,
		DistanceMeters: result.DistanceMeters,
		PhotoObjectKey: photoKeyValue,
		CompletedAt:    now,
	})

	return &transport.CompleteVisitResponse{
		VisitID:        visit.ID,
		CompletionMode: result.Mode,
		Unique:         unique,
		DistanceMeters: result.DistanceMeters,
	}, nil
}

func (s *Service) ownedScheduledVisit(ctx context.Context, brokerID, visitID uuid.UUID) (*visitsrepo.Visit, error) {
	visit, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.BrokerID != brokerID {
		return nil, apperr.AuthMismatch("visit belongs to another broker")
	}
	if visit.Status != string(domain.VisitScheduled) {
		return nil, apperr.Conflict("visit is not scheduled")
	}
	return visit, nil
}
