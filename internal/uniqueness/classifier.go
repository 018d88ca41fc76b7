// Package uniqueness classifies completed visits as unique or repeat.
// A customer's first completed visit is the unique one; later completions by
// the same phone number are repeats.
package uniqueness

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"
)

// CompletedVisit is the projection the classifier works on. IsUnique is nil
// until the visit has been classified.
type CompletedVisit struct {
	ID                uuid.UUID
	CustomerPhoneNorm string
	CompletedAt       time.Time
	IsUnique          *bool
}

// Store is the visit history as the classifier sees it.
type Store interface {
	GetCompletedVisit(ctx context.Context, visitID uuid.UUID) (*CompletedVisit, error)
	ListCompletedByPhone(ctx context.Context, phoneNorm string) ([]CompletedVisit, error)
	SetUniqueness(ctx context.Context, visitID uuid.UUID, unique bool) error
}

// Classifier decides visit uniqueness. Classification is write-once: a visit
// already classified keeps its verdict even if later completions would change
// the picture.
type Classifier struct {
	store Store
	log   *logger.Logger
}

func NewClassifier(store Store, log *logger.Logger) *Classifier {
	return &Classifier{store: store, log: log}
}

// ClassifyCompleted classifies one completed visit and persists the verdict.
// The earliest completion for the customer's normalized phone wins; ties on
// the completion timestamp break toward the lowest visit ID. A completion
// arriving with a timestamp earlier than an already-classified unique visit
// is recorded as a repeat and logged as an anomaly.
func (c *Classifier) ClassifyCompleted(ctx context.Context, visitID uuid.UUID) (bool, error) {
	visit, err := c.store.GetCompletedVisit(ctx, visitID)
	if err != nil {
		return false, err
	}
	if visit.IsUnique != nil {
		return *visit.IsUnique, nil
	}
	if visit.CompletedAt.IsZero() {
		return false, apperr.InvalidState("visit is not completed")
	}

	history, err := c.store.ListCompletedByPhone(ctx, visit.CustomerPhoneNorm)
	if err != nil {
		return false, err
	}

	unique := c.decide(visit, history)
	if err := c.store.SetUniqueness(ctx, visitID, unique); err != nil {
		return false, err
	}
	return unique, nil
}

func (c *Classifier) decide(visit *CompletedVisit, history []CompletedVisit) bool {
	var earliest *CompletedVisit
	var claimed *CompletedVisit
	for i := range history {
		v := &history[i]
		if earliest == nil || completesBefore(v, earliest) {
			earliest = v
		}
		if v.IsUnique != nil && *v.IsUnique {
			claimed = v
		}
	}

	if claimed != nil {
		if completesBefore(visit, claimed) {
			c.log.Warn("out-of-order completion: earlier visit classified after a later one claimed uniqueness",
				"visitId", visit.ID, "claimedBy", claimed.ID,
				"customerPhone", visit.CustomerPhoneNorm)
		}
		return false
	}
	return earliest == nil || earliest.ID == visit.ID
}

// completesBefore orders completions by timestamp, breaking ties toward the
// lowest visit ID so concurrent same-instant completions classify
// deterministically.
func completesBefore(a, b *CompletedVisit) bool {
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.Before(b.CompletedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}
