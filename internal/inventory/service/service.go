package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/duplicates/scoring"
	"visitops_backend/internal/inventory/repository"
	"visitops_backend/internal/inventory/transport"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"
)

// DuplicateEvaluation summarizes what duplicate detection did to a new
// listing.
type DuplicateEvaluation struct {
	BestScore  float64
	Hidden     bool
	AutoHidden bool
}

// DuplicateEvaluator scores a listing against existing inventory and applies
// the visibility consequences. Evaluation runs synchronously on create so a
// suspected duplicate never has a visible window.
type DuplicateEvaluator interface {
	EvaluateNewListing(ctx context.Context, propertyID uuid.UUID, city string, listing scoring.Listing) (*DuplicateEvaluation, error)
}

// StandingReader gates listing creation on broker accountability.
type StandingReader interface {
	IsDeactivated(ctx context.Context, brokerID uuid.UUID, asOf time.Time) (bool, error)
}

// soldReason is the removal phrasing that records the listing as sold rather
// than withdrawn.
const soldReason = "property already sold"

type Service struct {
	repo       *repository.Repository
	duplicates DuplicateEvaluator
	standing   StandingReader
	log        *logger.Logger
	now        func() time.Time
}

func New(repo *repository.Repository, duplicates DuplicateEvaluator, standing StandingReader, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		duplicates: duplicates,
		standing:   standing,
		log:        log,
		now:        time.Now,
	}
}

// Create inserts the listing and immediately runs duplicate detection on it.
// The returned property reflects any visibility change the evaluation made.
func (s *Service) Create(ctx context.Context, brokerID uuid.UUID, req transport.CreatePropertyRequest) (*repository.Property, *DuplicateEvaluation, error) {
	deactivated, err := s.standing.IsDeactivated(ctx, brokerID, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	if deactivated {
		return nil, nil, apperr.Conflict("broker is deactivated and cannot list properties")
	}

	prop := &repository.Property{
		ID:            uuid.New(),
		BrokerID:      brokerID,
		Title:         req.Title,
		Description:   req.Description,
		City:          req.City,
		LocationText:  req.LocationText,
		AssetType:     req.AssetType,
		Configuration: req.Configuration,
		Price:         req.Price,
		AreaSqft:      req.AreaSqft,
		Lat:           req.Lat,
		Lng:           req.Lng,
		ImageURL:      req.ImageURL,
		Status:        repository.StatusActive,
	}
	if err := s.repo.Create(ctx, prop); err != nil {
		return nil, nil, err
	}

	eval, err := s.duplicates.EvaluateNewListing(ctx, prop.ID, prop.City, scoring.Listing{
		Title:         prop.Title,
		LocationText:  prop.LocationText,
		AssetType:     prop.AssetType,
		Configuration: prop.Configuration,
		ImageURL:      deref(prop.ImageURL),
		Price:         prop.Price,
		AreaSqft:      prop.AreaSqft,
		Lat:           prop.Lat,
		Lng:           prop.Lng,
	})
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.repo.Get(ctx, prop.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, eval, nil
}

// GetVisible returns a listing as customers see it. Hidden and retired
// listings read as absent rather than hidden.
func (s *Service) GetVisible(ctx context.Context, id uuid.UUID) (*repository.Property, error) {
	prop, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop.Status != repository.StatusActive || prop.HiddenFromCustomers {
		return nil, apperr.NotFound("property not found")
	}
	return prop, nil
}

func (s *Service) GetOwned(ctx context.Context, brokerID, id uuid.UUID) (*repository.Property, error) {
	prop, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop.BrokerID != brokerID {
		return nil, apperr.AuthMismatch("property belongs to another broker")
	}
	return prop, nil
}

func (s *Service) ListOwn(ctx context.Context, brokerID uuid.UUID) ([]repository.Property, error) {
	return s.repo.ListByBroker(ctx, brokerID)
}

func (s *Service) ListVisible(ctx context.Context, city string) ([]repository.Property, error) {
	return s.repo.ListVisible(ctx, city)
}

// Remove retires a listing with a mandatory reason. The phrase "property
// already sold" records a sale; any other reason records a withdrawal.
func (s *Service) Remove(ctx context.Context, brokerID, id uuid.UUID, reason string) (*repository.Property, error) {
	prop, err := s.GetOwned(ctx, brokerID, id)
	if err != nil {
		return nil, err
	}

	newStatus := repository.StatusWithdrawn
	if strings.EqualFold(strings.TrimSpace(reason), soldReason) {
		newStatus = repository.StatusSold
	}

	if err := s.repo.Remove(ctx, prop, newStatus, reason, s.now().UTC()); err != nil {
		return nil, err
	}

	s.log.Info("property removed",
		"propertyId", id, "brokerId", brokerID, "outcome", newStatus)

	return s.repo.Get(ctx, id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
