package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/duplicates/repository"
	"visitops_backend/internal/duplicates/scoring"
	"visitops_backend/internal/events"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"
)

// Evaluation is the outcome of scoring a new listing against inventory.
type Evaluation struct {
	BestScore     float64
	MatchedID     *uuid.UUID
	Hidden        bool
	AutoHidden    bool
	ReviewEntryID *uuid.UUID
}

type Service struct {
	repo     *repository.Repository
	score    scoring.Scorer
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo *repository.Repository, score scoring.Scorer, eventBus events.Bus, log *logger.Logger) *Service {
	if score == nil {
		score = scoring.DefaultScorer
	}
	return &Service{
		repo:     repo,
		score:    score,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// EvaluateNewListing scores the listing against every active listing in the
// same city. Scores above the visibility threshold hide the listing and queue
// it for RM review; the listing stays bookable by its own broker throughout.
func (s *Service) EvaluateNewListing(ctx context.Context, propertyID uuid.UUID, city string, listing scoring.Listing) (*Evaluation, error) {
	candidates, err := s.repo.ListActiveCandidates(ctx, city, propertyID)
	if err != nil {
		return nil, err
	}

	best := 0.0
	var matched *uuid.UUID
	for _, c := range candidates {
		score := s.score(listing, scoring.Listing{
			Title:         c.Title,
			LocationText:  c.LocationText,
			AssetType:     c.AssetType,
			Configuration: c.Configuration,
			ImageURL:      c.ImageURL,
			Price:         c.Price,
			AreaSqft:      c.AreaSqft,
			Lat:           c.Lat,
			Lng:           c.Lng,
		})
		if score > best {
			best = score
			id := c.ID
			matched = &id
		}
	}

	if matched == nil || best <= scoring.VisibleThreshold {
		if err := s.repo.RecordScore(ctx, propertyID, best); err != nil {
			return nil, err
		}
		return &Evaluation{BestScore: best}, nil
	}

	autoHidden := best > scoring.AutoHideThreshold
	entryID, err := s.repo.QueueForReview(ctx, propertyID, *matched, best, autoHidden)
	if err != nil {
		return nil, err
	}

	s.log.Info("listing queued for duplicate review",
		"propertyId", propertyID, "matchedId", *matched,
		"score", fmt.Sprintf("%.2f", best), "autoHidden", autoHidden)

	if autoHidden {
		s.eventBus.Publish(ctx, events.ListingAutoHidden{
			BaseEvent:      events.NewBaseEvent(),
			PropertyID:     propertyID,
			MatchedAgainst: *matched,
			Score:          best,
		})
	} else {
		s.eventBus.Publish(ctx, events.DuplicateReviewQueued{
			BaseEvent:      events.NewBaseEvent(),
			ReviewID:       entryID,
			PropertyID:     propertyID,
			MatchedAgainst: *matched,
			Score:          best,
		})
	}

	return &Evaluation{
		BestScore:     best,
		MatchedID:     matched,
		Hidden:        true,
		AutoHidden:    autoHidden,
		ReviewEntryID: &entryID,
	}, nil
}

func (s *Service) PendingReviews(ctx context.Context) ([]repository.ReviewEntry, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*repository.ReviewEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

// Resolve records an RM decision on a pending entry. Resolving an entry twice
// is rejected regardless of whether the second decision matches the first.
func (s *Service) Resolve(ctx context.Context, entryID, reviewerID uuid.UUID, resolution string, notes *string) (*repository.ReviewEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == repository.StatusResolved {
		return nil, apperr.AlreadyResolved("review entry is already resolved")
	}

	switch resolution {
	case repository.ResolutionApproveVisible, repository.ResolutionKeepBackup, repository.ResolutionMarkDuplicate:
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("unknown resolution %q", resolution))
	}

	err = s.repo.Resolve(ctx, repository.ResolveParams{
		Entry:      entry,
		Resolution: resolution,
		ResolvedBy: reviewerID,
		Notes:      notes,
		ResolvedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("duplicate review resolved",
		"entryId", entryID, "propertyId", entry.PropertyID,
		"resolution", resolution, "reviewerId", reviewerID)

	return s.repo.GetEntry(ctx, entryID)
}
