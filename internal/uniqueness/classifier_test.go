package uniqueness

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"visitops_backend/platform/logger"
)

type fakeStore struct {
	visits map[uuid.UUID]*CompletedVisit
}

func newFakeStore(visits ...*CompletedVisit) *fakeStore {
	s := &fakeStore{visits: make(map[uuid.UUID]*CompletedVisit)}
	for _, v := range visits {
		s.visits[v.ID] = v
	}
	return s
}

func (s *fakeStore) GetCompletedVisit(_ context.Context, visitID uuid.UUID) (*CompletedVisit, error) {
	v := s.visits[visitID]
	dup := *v
	return &dup, nil
}

func (s *fakeStore) ListCompletedByPhone(_ context.Context, phoneNorm string) ([]CompletedVisit, error) {
	var out []CompletedVisit
	for _, v := range s.visits {
		if v.CustomerPhoneNorm == phoneNorm && !v.CompletedAt.IsZero() {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeStore) SetUniqueness(_ context.Context, visitID uuid.UUID, unique bool) error {
	v := s.visits[visitID]
	if v.IsUnique == nil {
		v.IsUnique = &unique
	}
	return nil
}

const phone = "+919876543210"

func completedVisit(id byte, completedAt time.Time) *CompletedVisit {
	return &CompletedVisit{
		ID:                uuid.UUID{id},
		CustomerPhoneNorm: phone,
		CompletedAt:       completedAt,
	}
}

func newClassifier(store Store) *Classifier {
	return NewClassifier(store, logger.New("development"))
}

func TestFirstCompletionIsUnique(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	v := completedVisit(1, t1)
	c := newClassifier(newFakeStore(v))

	unique, err := c.ClassifyCompleted(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !unique {
		t.Fatal("first completion must be unique")
	}
}

func TestSecondCompletionIsRepeat(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	first := completedVisit(1, t1)
	second := completedVisit(2, t1.Add(2*time.Hour))
	c := newClassifier(newFakeStore(first, second))

	ctx := context.Background()
	if unique, _ := c.ClassifyCompleted(ctx, first.ID); !unique {
		t.Fatal("earliest completion must be unique")
	}
	if unique, _ := c.ClassifyCompleted(ctx, second.ID); unique {
		t.Fatal("later completion must be a repeat")
	}
}

func TestClassificationOrderIndependence(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	// Classify the later completion first.
	first := completedVisit(1, t1)
	second := completedVisit(2, t1.Add(time.Hour))
	c := newClassifier(newFakeStore(first, second))

	ctx := context.Background()
	if unique, _ := c.ClassifyCompleted(ctx, second.ID); unique {
		t.Fatal("later completion must be a repeat even when classified first")
	}
	if unique, _ := c.ClassifyCompleted(ctx, first.ID); !unique {
		t.Fatal("earliest completion must be unique regardless of classification order")
	}
}

func TestTieBreaksTowardLowestVisitID(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	low := completedVisit(1, t1)
	high := completedVisit(2, t1)
	c := newClassifier(newFakeStore(low, high))

	ctx := context.Background()
	if unique, _ := c.ClassifyCompleted(ctx, high.ID); unique {
		t.Fatal("same-instant completion with the higher ID must be a repeat")
	}
	if unique, _ := c.ClassifyCompleted(ctx, low.ID); !unique {
		t.Fatal("same-instant completion with the lowest ID must be unique")
	}
}

func TestClassificationIsWriteOnce(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	v := completedVisit(1, t1)
	store := newFakeStore(v)
	c := newClassifier(store)

	ctx := context.Background()
	if unique, _ := c.ClassifyCompleted(ctx, v.ID); !unique {
		t.Fatal("first classification must be unique")
	}

	// A later completion appearing afterwards does not flip the verdict.
	store.visits[uuid.UUID{2}] = completedVisit(2, t1.Add(-time.Hour))
	if unique, _ := c.ClassifyCompleted(ctx, v.ID); !unique {
		t.Fatal("classification must not change once recorded")
	}
}

func TestOutOfOrderCompletionStaysRepeat(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	late := completedVisit(2, t1.Add(time.Hour))
	store := newFakeStore(late)
	c := newClassifier(store)

	ctx := context.Background()
	if unique, _ := c.ClassifyCompleted(ctx, late.ID); !unique {
		t.Fatal("only known completion must be unique")
	}

	// An earlier completion arrives after uniqueness was already claimed.
	early := completedVisit(1, t1)
	store.visits[early.ID] = early
	if unique, _ := c.ClassifyCompleted(ctx, early.ID); unique {
		t.Fatal("late-arriving earlier completion must not steal uniqueness")
	}
}
